package nilauth

import (
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// Network is the payment environment an auth service runs against.
type Network int

const (
	NetworkMainnet Network = iota
	NetworkTestnet
)

// testnetMarkers are matched case-sensitively against the auth service URL.
var testnetMarkers = []string{"staging", "testnet"}

// ClassifyNetwork maps an auth service URL to a Network. Any URL containing one
// of the testnet markers is a testnet; everything else, including the empty
// string, is mainnet.
func ClassifyNetwork(authURL string) Network {
	for _, marker := range testnetMarkers {
		if strings.Contains(authURL, marker) {
			return NetworkTestnet
		}
	}
	return NetworkMainnet
}

// ChainID returns the EVM chain id payments are made on: Ethereum mainnet or
// Sepolia.
func (n Network) ChainID() uint64 {
	if n == NetworkTestnet {
		return params.SepoliaChainConfig.ChainID.Uint64()
	}
	return params.MainnetChainConfig.ChainID.Uint64()
}

func (n Network) String() string {
	if n == NetworkTestnet {
		return "testnet"
	}
	return "mainnet"
}
