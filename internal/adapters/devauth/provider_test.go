package devauth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinova/platform/internal/ports"
)

func TestProvider_BeginAndExchange(t *testing.T) {
	prov, err := NewProvider(Config{
		UserID:   "dev-user",
		Email:    "dev@example.com",
		Role:     "clinic_owner",
		ClinicID: "clinic-1",
	})
	require.NoError(t, err)

	authURL, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(authURL, "/auth/callback?"), "authURL = %s", authURL)
	assert.Contains(t, authURL, "state="+state)
	assert.NotEmpty(t, state)
	assert.NotEmpty(t, nonce)

	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev", State: state, Nonce: nonce})
	require.NoError(t, err)
	assert.Equal(t, "dev-user", id.UserID)
	assert.Equal(t, "dev@example.com", id.Email)
	assert.Equal(t, "clinic_owner", id.Role)
	assert.Equal(t, "clinic-1", id.ClinicID)
	assert.True(t, id.ExpiresAt.After(time.Now()))
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(Config{Email: "dev@example.com"})
	require.Error(t, err, "missing UserID")

	_, err = NewProvider(Config{UserID: "dev-user"})
	require.Error(t, err, "missing Email")
}

func TestProvider_Begin_StateIsUnique(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "u", Email: "u@example.com"})
	require.NoError(t, err)

	_, s1, n1, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)
	_, s2, n2, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
	assert.NotEqual(t, n1, n2)
}

func TestProvider_Exchange_RefreshesNearExpiry(t *testing.T) {
	prov, err := NewProvider(Config{
		UserID:          "u",
		Email:           "u@example.com",
		SessionDuration: time.Minute,
	})
	require.NoError(t, err)

	// A one-minute session is always within the refresh threshold, so every
	// exchange pushes expiry forward.
	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.True(t, id.ExpiresAt.After(time.Now().Add(30*time.Second)))
}
