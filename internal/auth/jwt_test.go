package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Relay/internal/domain"
)

func TestVerifyValidToken(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Issue("u1", time.Minute)
	require.NoError(t, err)

	user, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), user)
}

func TestVerifyRejections(t *testing.T) {
	v := NewVerifier("test-secret")

	expired, err := v.Issue("u1", -time.Minute)
	require.NoError(t, err)

	other := NewVerifier("other-secret")
	wrongSecret, err := other.Issue("u1", time.Minute)
	require.NoError(t, err)

	// Signed correctly but carries no subject claim.
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not-a-jwt"},
		{"wrong secret", wrongSecret},
		{"expired token", expired},
		{"missing subject", noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestVerifyRejectsWrongSigningMethod(t *testing.T) {
	v := NewVerifier("test-secret")

	// alg: none tokens must never pass.
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.Error(t, err)
}
