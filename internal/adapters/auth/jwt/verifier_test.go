package jwt

import (
	"context"
	"testing"
	"time"

	"medcare/internal/ports/auth"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndVerify(t *testing.T) {
	v, err := NewVerifier("s3cret", "medcare")
	require.NoError(t, err)

	tok, err := v.Mint("user-1", time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, auth.SourceJWT, claims.Source)
}

func TestVerify_Rejects(t *testing.T) {
	v, err := NewVerifier("s3cret", "medcare")
	require.NoError(t, err)
	other, err := NewVerifier("another", "medcare")
	require.NoError(t, err)
	foreignIssuer, err := NewVerifier("s3cret", "someone-else")
	require.NoError(t, err)

	expired, err := v.Mint("user-1", time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	wrongKey, err := other.Mint("user-1", time.Hour, time.Now())
	require.NoError(t, err)
	wrongIss, err := foreignIssuer.Mint("user-1", time.Hour, time.Now())
	require.NoError(t, err)
	noExp, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		Subject: "user-1", Issuer: "medcare",
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	hs512, err := gojwt.NewWithClaims(gojwt.SigningMethodHS512, gojwt.RegisteredClaims{
		Subject: "user-1", Issuer: "medcare", ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":       expired,
		"wrong key":     wrongKey,
		"wrong issuer":  wrongIss,
		"no expiration": noExp,
		"other alg":     hs512,
		"garbage":       "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := NewVerifier(" ", "")
	assert.Error(t, err)
}
