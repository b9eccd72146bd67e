package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService(testConfig())

	access, err := tokens.CreateAccessToken(42, 3)
	require.NoError(t, err)

	claims, err := tokens.ParseScoped(access, ScopeAccess)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, 3, claims.Version)
	assert.Equal(t, ScopeAccess, claims.Scope)

	// 作用域不符
	_, err = tokens.ParseScoped(access, ScopeRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	activation, err := tokens.CreateActivationToken(42, 3, "wizkid_fan")
	require.NoError(t, err)
	claims, err = tokens.ParseScoped(activation, ScopeActivation)
	require.NoError(t, err)
	assert.Equal(t, "wizkid_fan", claims.Subject)
}

func TestTokenExpiry(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTTL = -time.Minute
	tokens := NewTokenService(cfg)

	access, err := tokens.CreateAccessToken(1, 0)
	require.NoError(t, err)
	_, err = tokens.Parse(access)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenWrongSecret(t *testing.T) {
	tokens := NewTokenService(testConfig())
	access, err := tokens.CreateAccessToken(1, 0)
	require.NoError(t, err)

	other := NewTokenService(testConfig())
	other.Secret = []byte("different")
	_, err = other.Parse(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
