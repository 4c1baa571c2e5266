package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserValidate(t *testing.T) {
	user := User{
		Name:   "Test User",
		Email:  "user@example.com",
		Role:   ROLE_USER,
		Status: STATUS_ACTIVE,
	}
	assert.NoError(t, user.Validate())

	user.Email = "not-an-email"
	assert.Error(t, user.Validate())

	user.Email = "user@example.com"
	user.Role = "superuser"
	assert.Error(t, user.Validate())
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2-secret")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2-secret", hash)

	assert.True(t, CheckPasswordHash("hunter2-secret", hash))
	assert.False(t, CheckPasswordHash("wrong-password", hash))
}

func TestUserJSONHidesSecrets(t *testing.T) {
	user := User{
		Name:        "Test User",
		Email:       "user@example.com",
		Password:    "hashed-password",
		CustomerKey: "cust-secret-key",
	}

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hashed-password")
	assert.NotContains(t, string(raw), "cust-secret-key")
}
