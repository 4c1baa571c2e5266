package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseRoundtrip(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	token, err := Issue("ssid-123", "user@example.com", "Test User", "google", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "ssid-123", claims.SSID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "Test User", claims.Name)
	assert.Equal(t, "google", claims.Provider)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestIssueRequiresSessionID(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	_, err := Issue("", "user@example.com", "Test User", "google", time.Hour)
	assert.ErrorIs(t, err, ErrNoSessionID)
}

func TestIssueRequiresSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	_, err := Issue("ssid-123", "", "", "", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestParseRejectsExpiredToken(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	token, err := Issue("ssid-123", "", "", "", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	token, err := Issue("ssid-123", "", "", "", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + ".invalidsignature"

	_, err = Parse(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsTokenSignedWithOtherSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "first-secret")
	token, err := Issue("ssid-123", "", "", "", time.Hour)
	require.NoError(t, err)

	t.Setenv("SESSION_SECRET", "second-secret")
	_, err = Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshKeepsIdentityClaims(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	token, err := Issue("ssid-123", "user@example.com", "Test User", "spotify", time.Minute)
	require.NoError(t, err)
	claims, err := Parse(token)
	require.NoError(t, err)

	refreshed, err := Refresh(claims, time.Hour)
	require.NoError(t, err)

	newClaims, err := Parse(refreshed)
	require.NoError(t, err)
	assert.Equal(t, claims.SSID, newClaims.SSID)
	assert.Equal(t, claims.Email, newClaims.Email)
	assert.Equal(t, claims.Provider, newClaims.Provider)
	assert.True(t, newClaims.ExpiresAt.After(claims.ExpiresAt.Time))
}

func TestPublicSnapshotStripsSessionID(t *testing.T) {
	claims := &Claims{SSID: "secret-ssid", Email: "user@example.com", Name: "Test User", Provider: "google"}

	snap := claims.Public()
	assert.True(t, snap.HasAuth)
	assert.Equal(t, "user@example.com", snap.Email)
	assert.NotContains(t, []string{snap.Email, snap.Name, snap.Provider}, "secret-ssid")
}
