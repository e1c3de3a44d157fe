// Package nilauth is a client for the authentication service that issues root
// tokens to builders.
package nilauth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/secretvault-builder/common"
	"github.com/ruteri/secretvault-builder/interfaces"
)

const (
	aboutPath              = "/about"
	createTokenPath        = "/api/v1/nucs/create"
	subscriptionStatusPath = "/api/v1/subscriptions/status"

	// tokenRequestTTL bounds how long a signed token request stays valid.
	tokenRequestTTL = time.Minute
)

// ErrMissingBaseURL is returned when the auth service URL is empty.
var ErrMissingBaseURL = errors.New("auth service base url is required")

// ResponseError is returned for any non-2xx response from the auth service.
type ResponseError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *ResponseError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("auth service returned %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("auth service returned %d: %s", e.StatusCode, e.Message)
}

// About describes a running auth service.
type About struct {
	Started   string `json:"started"`
	PublicKey string `json:"public_key"`
	Build     struct {
		Commit    string `json:"commit"`
		Timestamp string `json:"timestamp"`
	} `json:"build"`
}

// SubscriptionStatus is the subscription state of a public key.
type SubscriptionStatus struct {
	Subscribed bool `json:"subscribed"`
	Details    *struct {
		ExpiresAt   int64 `json:"expires_at"`
		RenewableAt int64 `json:"renewable_at"`
	} `json:"details,omitempty"`
}

type createTokenPayload struct {
	Nonce           string `json:"nonce"`
	ExpiresAt       int64  `json:"expires_at"`
	TargetPublicKey string `json:"target_public_key"`
}

type createTokenRequest struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
	Payload   string `json:"payload"`
}

type createTokenResponse struct {
	Token string `json:"token"`
}

// Client talks to one auth service for one payment chain. The chain id only
// matters to subscription payments, which this client does not make; token
// and subscription status requests do not carry it.
type Client struct {
	baseURL       string
	chainID       uint64
	httpClient    *http.Client
	log           *slog.Logger
	about         About
	servicePubkey []byte
	now           func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, default has a 30 second timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) Option {
	return func(client *Client) {
		client.log = log
	}
}

// NewClient creates a client and fetches the service description, which
// carries the public key token requests are addressed to.
func NewClient(ctx context.Context, baseURL string, chainID uint64, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		chainID:    chainID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.doJSON(ctx, http.MethodGet, aboutPath, nil, &c.about); err != nil {
		return nil, fmt.Errorf("could not fetch auth service info: %w", err)
	}

	pubkey, err := hex.DecodeString(c.about.PublicKey)
	if err != nil || len(pubkey) == 0 {
		return nil, fmt.Errorf("auth service returned invalid public key %q", c.about.PublicKey)
	}
	c.servicePubkey = pubkey

	c.log.Debug("Auth client created",
		slog.String("baseURL", baseURL),
		slog.Uint64("chainID", chainID),
		slog.String("servicePublicKey", c.about.PublicKey))

	return c, nil
}

// ChainID returns the payment chain id the client was created for. It is
// informational and is not sent with any request.
func (c *Client) ChainID() uint64 {
	return c.chainID
}

// About returns the service description fetched at creation.
func (c *Client) About() About {
	return c.about
}

// RequestToken asks the service for a root token for signer. The request is
// signed by signer and addressed to the service public key.
func (c *Client) RequestToken(ctx context.Context, signer interfaces.Signer) (string, error) {
	nonce := uuid.New()
	payload, err := json.Marshal(createTokenPayload{
		Nonce:           hex.EncodeToString(nonce[:]),
		ExpiresAt:       c.now().Add(tokenRequestTTL).Unix(),
		TargetPublicKey: hex.EncodeToString(c.servicePubkey),
	})
	if err != nil {
		return "", err
	}

	sig, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("could not sign token request: %w", err)
	}

	req := createTokenRequest{
		PublicKey: hex.EncodeToString(signer.PublicKey()),
		Signature: hex.EncodeToString(sig),
		Payload:   hex.EncodeToString(payload),
	}

	var resp createTokenResponse
	if err := c.doJSON(ctx, http.MethodPost, createTokenPath, req, &resp); err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	if resp.Token == "" {
		return "", errors.New("auth service returned an empty token")
	}
	return resp.Token, nil
}

// SubscriptionStatus queries the subscription of a compressed public key.
func (c *Client) SubscriptionStatus(ctx context.Context, pubkey []byte) (*SubscriptionStatus, error) {
	path := subscriptionStatusPath + "?public_key=" + url.QueryEscape(hex.EncodeToString(pubkey))

	var status SubscriptionStatus
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, fmt.Errorf("subscription status request failed: %w", err)
	}
	return &status, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, respBody any) error {
	return common.DoJSON(ctx, c.httpClient, common.JSONRequest{
		Method: method,
		URL:    c.baseURL + path,
		Body:   reqBody,
		Out:    respBody,
	}, parseResponseError)
}

func parseResponseError(statusCode int, body []byte) error {
	var parsed struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return &ResponseError{StatusCode: statusCode, ErrorCode: parsed.ErrorCode, Message: parsed.Message}
	}
	return &ResponseError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
}

// Factory implements interfaces.AuthClientFactory.
type Factory struct {
	HTTPClient *http.Client
	Log        *slog.Logger
}

// NewAuthClient creates a Client for baseURL and chainID.
func (f *Factory) NewAuthClient(ctx context.Context, baseURL string, chainID uint64) (interfaces.AuthClient, error) {
	var opts []Option
	if f.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(f.HTTPClient))
	}
	if f.Log != nil {
		opts = append(opts, WithLogger(f.Log))
	}
	client, err := NewClient(ctx, baseURL, chainID, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}
