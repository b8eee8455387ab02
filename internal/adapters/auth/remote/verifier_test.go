package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medcare/internal/platform/httpclient"
	"medcare/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentityServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != verifyPath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Api-Key") != "k1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var req verifyRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		switch req.Token {
		case "good":
			_ = json.NewEncoder(w).Encode(verifyResponse{UserID: "user-1", Email: "a@b.c"})
		case "nouser":
			_ = json.NewEncoder(w).Encode(verifyResponse{})
		case "boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
}

func TestVerify(t *testing.T) {
	srv := newIdentityServer(t)
	defer srv.Close()

	v, err := NewVerifier(Config{BaseURL: srv.URL, APIKey: "k1", Timeout: time.Second})
	require.NoError(t, err)
	ctx := context.Background()

	claims, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.Equal(t, auth.SourceRemote, claims.Source)

	_, err = v.Verify(ctx, "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = v.Verify(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = v.Verify(ctx, "nouser")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = v.Verify(ctx, "boom")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestVerify_WrongAPIKeyIsUnauthorized(t *testing.T) {
	srv := newIdentityServer(t)
	defer srv.Close()

	c, err := httpclient.New(httpclient.Config{BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)

	_, err = NewVerifierWithClient(c, "wrong").Verify(context.Background(), "good")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestNewVerifier_RequiresBaseURL(t *testing.T) {
	_, err := NewVerifier(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
