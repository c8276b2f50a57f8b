package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens() *Tokens {
	return NewTokens("roster", "test-signing-key", 15*time.Minute, 24*time.Hour)
}

func TestIssueAndParse(t *testing.T) {
	tokens := newTestTokens()
	pair, err := tokens.Issue("user-1", "ADMIN")
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.True(t, pair.RefreshExp.After(pair.AccessExp))

	claims, err := tokens.Parse(pair.AccessToken, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "roster", claims.Issuer)

	refresh, err := tokens.Parse(pair.RefreshToken, TypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, pair.refreshID, refresh.ID)
	assert.NotEqual(t, claims.ID, refresh.ID)
}

func TestParseRejectsWrongType(t *testing.T) {
	tokens := newTestTokens()
	pair, err := tokens.Issue("user-1", "EMPLOYEE")
	require.NoError(t, err)

	_, err = tokens.Parse(pair.RefreshToken, TypeAccess)
	assert.ErrorIs(t, err, errTokenType)
	_, err = tokens.Parse(pair.AccessToken, TypeRefresh)
	assert.ErrorIs(t, err, errTokenType)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	pair, err := NewTokens("someone-else", "test-signing-key", time.Minute, time.Hour).Issue("user-1", "ADMIN")
	require.NoError(t, err)
	_, err = newTestTokens().Parse(pair.AccessToken, TypeAccess)
	assert.ErrorIs(t, err, errIssuer)

	pair, err = NewTokens("roster", "other-key", time.Minute, time.Hour).Issue("user-1", "ADMIN")
	require.NoError(t, err)
	_, err = newTestTokens().Parse(pair.AccessToken, TypeAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = newTestTokens().Parse("not-a-token", TypeAccess)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	tokens := newTestTokens()
	issued := time.Now()
	tokens.now = func() time.Time { return issued }
	pair, err := tokens.Issue("user-1", "ADMIN")
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = tokens.Parse(pair.AccessToken, TypeAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	_, err = tokens.Parse(pair.RefreshToken, TypeRefresh)
	assert.NoError(t, err)
}
