package nildb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/ruteri/secretvault-builder/common"
	"github.com/ruteri/secretvault-builder/interfaces"
	"github.com/ruteri/secretvault-builder/signer"
)

const (
	aboutPath    = "/about"
	profilePath  = "/v1/builders/me"
	registerPath = "/v1/builders/register"

	// InvocationCommand is the command every invocation token is scoped to.
	InvocationCommand = "/nil/db"

	invocationTTL = time.Minute
)

var (
	// ErrNoNodes is returned when a builder is created without node URLs.
	ErrNoNodes = errors.New("at least one node url is required")

	// ErrNoRootToken is returned by node operations issued before RefreshRootToken.
	ErrNoRootToken = errors.New("no root token, call RefreshRootToken first")
)

// NodeError is returned for any non-2xx response from a storage node. Its
// message carries the node's error strings verbatim.
type NodeError struct {
	Node       string
	StatusCode int
	Messages   []string
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s returned %d: %s", e.Node, e.StatusCode, strings.Join(e.Messages, "; "))
}

// NodeInfo describes a running storage node.
type NodeInfo struct {
	Started   string `json:"started"`
	PublicKey string `json:"public_key"`
	URL       string `json:"url"`
	Build     struct {
		Commit  string `json:"commit"`
		Version string `json:"version"`
	} `json:"build"`
}

// InvocationClaims are the claims of a node invocation token. Proof is the
// sha256 of the root token the invocation is chained to.
type InvocationClaims struct {
	jwt.RegisteredClaims
	Command string `json:"cmd"`
	Proof   string `json:"prf"`
}

type node struct {
	url    string
	pubkey []byte
	did    string
}

// Builder is a builder client bound to one identity and an ordered set of
// storage nodes. It is safe for concurrent use once created.
type Builder struct {
	signer     interfaces.Signer
	did        string
	auth       interfaces.AuthClient
	nodes      []node
	httpClient *http.Client
	log        *slog.Logger
	now        func() time.Time

	mu        sync.RWMutex
	rootToken string
}

// Option configures a Builder.
type Option func(*Builder)

// WithHTTPClient overrides the HTTP client, default has a 30 second timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Builder) {
		b.httpClient = c
	}
}

// WithLogger sets the builder logger.
func WithLogger(log *slog.Logger) Option {
	return func(b *Builder) {
		b.log = log
	}
}

// NewBuilder binds s, nodeURLs and auth into a Builder. Each node is asked for
// its public key, which invocation tokens are addressed to.
func NewBuilder(ctx context.Context, s interfaces.Signer, nodeURLs []string, auth interfaces.AuthClient, opts ...Option) (*Builder, error) {
	if len(nodeURLs) == 0 {
		return nil, ErrNoNodes
	}

	did, err := s.DID(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not derive builder did: %w", err)
	}

	b := &Builder{
		signer:     s,
		did:        did,
		auth:       auth,
		nodes:      make([]node, 0, len(nodeURLs)),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	for _, nodeURL := range nodeURLs {
		nodeURL = strings.TrimRight(strings.TrimSpace(nodeURL), "/")
		if nodeURL == "" {
			return nil, errors.New("empty node url")
		}

		var info NodeInfo
		if err := b.doJSON(ctx, nodeURL, http.MethodGet, aboutPath, "", nil, &info); err != nil {
			return nil, fmt.Errorf("could not fetch node info from %s: %w", nodeURL, err)
		}

		pubkey, err := hex.DecodeString(info.PublicKey)
		if err != nil || len(pubkey) == 0 {
			return nil, fmt.Errorf("node %s returned invalid public key %q", nodeURL, info.PublicKey)
		}

		b.nodes = append(b.nodes, node{
			url:    nodeURL,
			pubkey: pubkey,
			did:    signer.DIDFromPublicKey(pubkey),
		})
	}

	b.log.Debug("Builder client created",
		slog.String("did", did),
		slog.Int("nodes", len(b.nodes)))

	return b, nil
}

// DID returns the builder DID.
func (b *Builder) DID() string {
	return b.did
}

// Nodes returns the bound node URLs in order.
func (b *Builder) Nodes() []string {
	urls := make([]string, len(b.nodes))
	for i, n := range b.nodes {
		urls[i] = n.url
	}
	return urls
}

// RefreshRootToken obtains a new root token from the auth service.
func (b *Builder) RefreshRootToken(ctx context.Context) error {
	token, err := b.auth.RequestToken(ctx, b.signer)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.rootToken = token
	b.mu.Unlock()

	b.log.Debug("Root token refreshed", slog.String("did", b.did))
	return nil
}

// ReadProfile reads the builder profile from every node and returns the first
// node's copy. A failure on any node fails the read.
func (b *Builder) ReadProfile(ctx context.Context) (*interfaces.BuilderProfile, error) {
	var profile *interfaces.BuilderProfile
	for _, n := range b.nodes {
		token, err := b.invocationToken(n)
		if err != nil {
			return nil, err
		}

		var resp struct {
			Data interfaces.BuilderProfile `json:"data"`
		}
		if err := b.doJSON(ctx, n.url, http.MethodGet, profilePath, token, nil, &resp); err != nil {
			return nil, err
		}
		if profile == nil {
			profile = &resp.Data
		}
	}
	return profile, nil
}

// Register registers the builder on every node. Nodes are all attempted; the
// returned error joins every node failure.
func (b *Builder) Register(ctx context.Context, req interfaces.RegisterBuilderRequest) error {
	var errs []error
	for _, n := range b.nodes {
		token, err := b.invocationToken(n)
		if err != nil {
			return err
		}

		if err := b.doJSON(ctx, n.url, http.MethodPost, registerPath, token, req, nil); err != nil {
			b.log.Debug("Registration failed on node",
				slog.String("node", n.url),
				"err", err)
			errs = append(errs, err)
			continue
		}
		b.log.Debug("Registered on node", slog.String("node", n.url), slog.String("did", req.DID))
	}
	return errors.Join(errs...)
}

// invocationToken builds the bearer credential for one node: an invocation
// signed by the builder, addressed to the node and chained to the root token.
func (b *Builder) invocationToken(n node) (string, error) {
	b.mu.RLock()
	rootToken := b.rootToken
	b.mu.RUnlock()

	if rootToken == "" {
		return "", ErrNoRootToken
	}

	proof := sha256.Sum256([]byte(rootToken))
	now := b.now()
	claims := InvocationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    b.did,
			Subject:   b.did,
			Audience:  jwt.ClaimStrings{n.did},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(invocationTTL)),
		},
		Command: InvocationCommand,
		Proof:   hex.EncodeToString(proof[:]),
	}

	invocation, err := jwt.NewWithClaims(signer.ES256K, claims).SignedString(b.signer)
	if err != nil {
		return "", fmt.Errorf("could not sign invocation for %s: %w", n.url, err)
	}
	return invocation + "/" + rootToken, nil
}

func (b *Builder) doJSON(ctx context.Context, nodeURL, method, path, token string, reqBody, respBody any) error {
	err := common.DoJSON(ctx, b.httpClient, common.JSONRequest{
		Method:      method,
		URL:         nodeURL + path,
		BearerToken: token,
		Body:        reqBody,
		Out:         respBody,
	}, func(statusCode int, body []byte) error {
		return parseNodeError(nodeURL, statusCode, body)
	})

	var nodeErr *NodeError
	if err != nil && !errors.As(err, &nodeErr) {
		return fmt.Errorf("request to node %s failed: %w", nodeURL, err)
	}
	return err
}

func parseNodeError(nodeURL string, statusCode int, body []byte) error {
	var parsed struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		return &NodeError{Node: nodeURL, StatusCode: statusCode, Messages: parsed.Errors}
	}
	return &NodeError{Node: nodeURL, StatusCode: statusCode, Messages: []string{strings.TrimSpace(string(body))}}
}

// Factory implements interfaces.BuilderClientFactory.
type Factory struct {
	HTTPClient *http.Client
	Log        *slog.Logger
}

// NewBuilderClient creates a Builder for s, nodeURLs and auth.
func (f *Factory) NewBuilderClient(ctx context.Context, s interfaces.Signer, nodeURLs []string, auth interfaces.AuthClient) (interfaces.BuilderClient, error) {
	var opts []Option
	if f.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(f.HTTPClient))
	}
	if f.Log != nil {
		opts = append(opts, WithLogger(f.Log))
	}

	b, err := NewBuilder(ctx, s, nodeURLs, auth, opts...)
	if err != nil {
		return nil, err
	}
	return b, nil
}
