package interfaces

// NetworkConfig is the caller supplied network configuration of a builder.
type NetworkConfig struct {
	// APIKey is the builder's hex encoded secp256k1 private key.
	APIKey string `json:"NILLION_API_KEY"`

	// AuthURL is the base URL of the authentication service.
	AuthURL string `json:"NILAUTH_URL"`

	// NodeURLs are the base URLs of the storage nodes, in order.
	NodeURLs []string `json:"NILDB_NODES"`
}
