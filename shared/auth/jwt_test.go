package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator(secret string) *JWTAuthenticator {
	return NewJWTAuthenticator(JWTConfig{Secret: secret, Issuer: "notes-api"})
}

func TestIssueAndVerifyToken(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator("super-secret")

	tok, expiresAt, err := a.IssueToken("user-123", "alice@x.com", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := a.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, Identity{UserID: "user-123", Email: "alice@x.com"}, claims.Identity())
}

func TestIssueToken_UniqueIDs(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator("k")

	first, _, err := a.IssueToken("u1", "u1@x.com", time.Hour)
	require.NoError(t, err)
	second, _, err := a.IssueToken("u1", "u1@x.com", time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyToken_Expired(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator("secret")

	tok, _, err := a.IssueToken("u1", "u1@x.com", -time.Second)
	require.NoError(t, err)

	_, err = a.VerifyToken(tok)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyToken_Rejections(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator("right-secret")
	valid, _, err := a.IssueToken("u2", "u2@x.com", time.Hour)
	require.NoError(t, err)

	otherIssuer := NewJWTAuthenticator(JWTConfig{Secret: "right-secret", Issuer: "someone-else"})
	foreign, _, err := otherIssuer.IssueToken("u2", "u2@x.com", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "u2",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "notes-api",
			Audience:  jwt.ClaimStrings{"notes-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name          string
		token         string
		authenticator *JWTAuthenticator
	}{
		{name: "wrong secret", token: valid, authenticator: newTestAuthenticator("wrong-secret")},
		{name: "wrong issuer", token: foreign, authenticator: a},
		{name: "tampered payload", token: tampered, authenticator: a},
		{name: "alg none", token: unsigned, authenticator: a},
		{name: "malformed", token: "not.a.jwt", authenticator: a},
		{name: "empty", token: "", authenticator: a},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			claims, err := tc.authenticator.VerifyToken(tc.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyToken_MissingUserID(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator("secret")

	tok, err := a.GenerateToken(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "notes-api",
			Audience:  jwt.ClaimStrings{"notes-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	_, err = a.VerifyToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
