package nilauth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/secretvault-builder/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBuilderKey  = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testServiceKey  = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
	testIssuedToken = "root.token.value"
)

type fakeAuthService struct {
	t             *testing.T
	servicePubkey []byte
	subscribed    bool
	failCreate    bool
}

func newFakeAuthService(t *testing.T) *fakeAuthService {
	service, err := signer.FromPrivateKey(testServiceKey)
	require.NoError(t, err)
	return &fakeAuthService{t: t, servicePubkey: service.PublicKey(), subscribed: true}
}

func (f *fakeAuthService) router() http.Handler {
	mux := chi.NewRouter()
	mux.Get("/about", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"started":    "2025-01-01T00:00:00Z",
			"public_key": hex.EncodeToString(f.servicePubkey),
			"build":      map[string]string{"commit": "abc", "timestamp": "2025-01-01T00:00:00Z"},
		})
	})
	mux.Post("/api/v1/nucs/create", func(w http.ResponseWriter, r *http.Request) {
		if f.failCreate {
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(map[string]string{"error_code": "NOT_SUBSCRIBED", "message": "not subscribed"})
			return
		}

		var req createTokenRequest
		if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		pubkey, err1 := hex.DecodeString(req.PublicKey)
		sig, err2 := hex.DecodeString(req.Signature)
		payload, err3 := hex.DecodeString(req.Payload)
		if !assert.NoError(f.t, errors.Join(err1, err2, err3)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if !signer.Verify(pubkey, payload, sig) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error_code": "INVALID_SIGNATURE", "message": "invalid signature"})
			return
		}

		var p createTokenPayload
		assert.NoError(f.t, json.Unmarshal(payload, &p))
		assert.Equal(f.t, hex.EncodeToString(f.servicePubkey), p.TargetPublicKey)
		assert.Len(f.t, p.Nonce, 32)
		assert.NotContains(f.t, string(payload), "chain")
		assert.Greater(f.t, p.ExpiresAt, time.Now().Unix())

		json.NewEncoder(w).Encode(createTokenResponse{Token: testIssuedToken})
	})
	mux.Get("/api/v1/subscriptions/status", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("public_key") == "" {
			http.Error(w, "missing public key", http.StatusBadRequest)
			return
		}
		resp := map[string]any{"subscribed": f.subscribed}
		if f.subscribed {
			resp["details"] = map[string]int64{"expires_at": 1900000000, "renewable_at": 1890000000}
		}
		json.NewEncoder(w).Encode(resp)
	})
	return mux
}

func TestNewClient(t *testing.T) {
	fake := newFakeAuthService(t)
	srv := httptest.NewServer(fake.router())
	defer srv.Close()

	client, err := NewClient(context.Background(), srv.URL+"/", NetworkTestnet.ChainID())
	require.NoError(t, err)
	assert.Equal(t, uint64(11155111), client.ChainID())
	assert.Equal(t, hex.EncodeToString(fake.servicePubkey), client.About().PublicKey)
	assert.Equal(t, "abc", client.About().Build.Commit)
}

func TestNewClient_Errors(t *testing.T) {
	_, err := NewClient(context.Background(), "  ", 1)
	assert.ErrorIs(t, err, ErrMissingBaseURL)

	mux := chi.NewRouter()
	mux.Get("/about", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err = NewClient(context.Background(), srv.URL, 1)
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusServiceUnavailable, respErr.StatusCode)
	assert.Equal(t, "maintenance", respErr.Message)

	bad := chi.NewRouter()
	bad.Get("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"public_key":"not-hex"}`))
	})
	badSrv := httptest.NewServer(bad)
	defer badSrv.Close()

	_, err = NewClient(context.Background(), badSrv.URL, 1)
	assert.ErrorContains(t, err, "invalid public key")
}

func TestRequestToken(t *testing.T) {
	fake := newFakeAuthService(t)
	srv := httptest.NewServer(fake.router())
	defer srv.Close()

	builder, err := signer.FromPrivateKey(testBuilderKey)
	require.NoError(t, err)

	client, err := NewClient(context.Background(), srv.URL, NetworkMainnet.ChainID())
	require.NoError(t, err)

	token, err := client.RequestToken(context.Background(), builder)
	require.NoError(t, err)
	assert.Equal(t, testIssuedToken, token)

	fake.failCreate = true
	_, err = client.RequestToken(context.Background(), builder)
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusPaymentRequired, respErr.StatusCode)
	assert.Equal(t, "NOT_SUBSCRIBED", respErr.ErrorCode)
	assert.Contains(t, err.Error(), "not subscribed")
}

func TestSubscriptionStatus(t *testing.T) {
	fake := newFakeAuthService(t)
	srv := httptest.NewServer(fake.router())
	defer srv.Close()

	builder, err := signer.FromPrivateKey(testBuilderKey)
	require.NoError(t, err)

	factory := &Factory{}
	authClient, err := factory.NewAuthClient(context.Background(), srv.URL, NetworkMainnet.ChainID())
	require.NoError(t, err)
	client := authClient.(*Client)

	status, err := client.SubscriptionStatus(context.Background(), builder.PublicKey())
	require.NoError(t, err)
	assert.True(t, status.Subscribed)
	require.NotNil(t, status.Details)
	assert.Equal(t, int64(1900000000), status.Details.ExpiresAt)

	fake.subscribed = false
	status, err = client.SubscriptionStatus(context.Background(), builder.PublicKey())
	require.NoError(t, err)
	assert.False(t, status.Subscribed)
	assert.Nil(t, status.Details)
}
