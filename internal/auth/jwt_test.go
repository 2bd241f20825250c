package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer("0123456789abcdef0123456789abcdef", time.Minute, time.Hour)
	require.NoError(t, err)
	return issuer
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.GenerateAccessToken("admin-1", "admin@example.org")
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.AdminID)
	assert.Equal(t, "admin@example.org", claims.Email)
	assert.Equal(t, "admin-1", claims.Subject)
}

func TestRefreshTokenCarriesID(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.GenerateRefreshToken("admin-1", "01HZX3T7V0G5W9M2K4Q8R6N1PB")
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token, TypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, "01HZX3T7V0G5W9M2K4Q8R6N1PB", claims.ID)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	issuer := newTestIssuer(t)

	access, err := issuer.GenerateAccessToken("admin-1", "admin@example.org")
	require.NoError(t, err)
	refresh, err := issuer.GenerateRefreshToken("admin-1", "jti")
	require.NoError(t, err)

	_, err = issuer.ValidateToken(access, TypeRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = issuer.ValidateToken(refresh, TypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestExpiredToken(t *testing.T) {
	issuer := newTestIssuer(t)
	issued := time.Now().Add(-2 * time.Minute)
	issuer.now = func() time.Time { return issued }

	token, err := issuer.GenerateAccessToken("admin-1", "admin@example.org")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.ValidateToken(token, TypeAccess)
	assert.Error(t, err)
}

func TestForeignSecretRejected(t *testing.T) {
	issuer := newTestIssuer(t)
	other, err := NewIssuer("another-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := other.GenerateAccessToken("admin-1", "admin@example.org")
	require.NoError(t, err)

	_, err = issuer.ValidateToken(token, TypeAccess)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword("correct-horse", hash))
	assert.Error(t, VerifyPassword("battery-staple", hash))
}
