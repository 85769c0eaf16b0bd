package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) *Keys {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})

	keys, err := NewKeys(privatePEM, publicPEM)
	require.NoError(t, err)
	return keys
}

func TestTokenRoundTrip(t *testing.T) {
	keys := testKeys(t)

	token, err := keys.GenerateToken("user-1", []string{RoleUser})
	require.NoError(t, err)

	claims, err := keys.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.True(t, claims.HasRole(RoleUser))
	assert.False(t, claims.HasRole(RoleAdmin))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	keys := testKeys(t)

	_, err := keys.ValidateToken("not-a-token")
	assert.Error(t, err)

	// token signed by a different key pair
	other := testKeys(t)
	token, err := other.GenerateToken("user-1", []string{RoleUser})
	require.NoError(t, err)
	_, err = keys.ValidateToken(token)
	assert.Error(t, err)
}

func TestNewKeysRejectsBadPEM(t *testing.T) {
	_, err := NewKeys([]byte("junk"), []byte("junk"))
	assert.Error(t, err)
}
