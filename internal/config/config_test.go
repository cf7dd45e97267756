package config_test

import (
	"testing"
	"time"

	"github.com/cropgenius/authflow/internal/config"
	"github.com/cropgenius/authflow/pkce"
	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := config.Default()

	assert.Equal(t, ":8080", s.ListenAddr)
	assert.Equal(t, "auto", s.PreferredFlow)
	assert.Equal(t, "google", s.Provider)
	assert.Equal(t, pkce.DefaultCodeVerifierByteLength, s.CodeVerifierByteLength)
	assert.Equal(t, pkce.DefaultStateByteLength, s.StateByteLength)
	assert.Equal(t, pkce.DefaultExpiration, s.Expiration)
	assert.Equal(t, pkce.DefaultStorageKeyPrefix, s.StorageKeyPrefix)
	assert.Equal(t, pkce.DefaultCleanupInterval, s.CleanupInterval)
	assert.Equal(t, 30*time.Second, s.ExchangeTimeout)
	assert.Empty(t, s.StateDir)
	assert.Empty(t, s.RedisAddr)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AUTHFLOW_LISTEN_ADDR", ":9090")
	t.Setenv("AUTHFLOW_PREFERRED_FLOW", "implicit")
	t.Setenv("AUTHFLOW_PROVIDER", "azure")
	t.Setenv("AUTHFLOW_CLIENT_ID", "client-id")
	t.Setenv("AUTHFLOW_CLIENT_SECRET", "client-secret")
	t.Setenv("AUTHFLOW_OAUTH_REDIRECT_URL", "https://app.example.com/auth/callback")
	t.Setenv("AUTHFLOW_ISSUER_URL", "https://idp.example.com")
	t.Setenv("AUTHFLOW_PKCE_VERIFIER_BYTES", "48")
	t.Setenv("AUTHFLOW_PKCE_STATE_BYTES", "16")
	t.Setenv("AUTHFLOW_PKCE_EXPIRATION_MINUTES", "5")
	t.Setenv("AUTHFLOW_PKCE_KEY_PREFIX", "custom-prefix-")
	t.Setenv("AUTHFLOW_PKCE_CLEANUP_INTERVAL_MS", "60000")
	t.Setenv("AUTHFLOW_EXCHANGE_TIMEOUT_SECONDS", "10")
	t.Setenv("AUTHFLOW_STATE_DIR", "/var/lib/authflow")
	t.Setenv("AUTHFLOW_REDIS_ADDR", "localhost:6379")

	s := config.FromEnv()

	assert.Equal(t, ":9090", s.ListenAddr)
	assert.Equal(t, "implicit", s.PreferredFlow)
	assert.Equal(t, "azure", s.Provider)
	assert.Equal(t, "client-id", s.ClientID)
	assert.Equal(t, "client-secret", s.ClientSecret)
	assert.Equal(t, "https://app.example.com/auth/callback", s.OAuthRedirectURL)
	assert.Equal(t, "https://idp.example.com", s.IssuerURL)
	assert.Equal(t, 48, s.CodeVerifierByteLength)
	assert.Equal(t, 16, s.StateByteLength)
	assert.Equal(t, 5*time.Minute, s.Expiration)
	assert.Equal(t, "custom-prefix-", s.StorageKeyPrefix)
	assert.Equal(t, time.Minute, s.CleanupInterval)
	assert.Equal(t, 10*time.Second, s.ExchangeTimeout)
	assert.Equal(t, "/var/lib/authflow", s.StateDir)
	assert.Equal(t, "localhost:6379", s.RedisAddr)
}

func TestFromEnvIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("AUTHFLOW_PKCE_VERIFIER_BYTES", "not-a-number")

	s := config.FromEnv()
	assert.Equal(t, pkce.DefaultCodeVerifierByteLength, s.CodeVerifierByteLength)
}

func TestProviderConfigMapping(t *testing.T) {
	s := config.Default()
	s.ClientID = "client-id"
	s.IssuerURL = "https://idp.example.com"

	cfg := s.ProviderConfig()
	assert.Equal(t, "google", cfg.Name)
	assert.Equal(t, "client-id", cfg.ClientID)
	assert.Equal(t, "https://idp.example.com", cfg.IssuerURL)
	assert.Equal(t, s.ExchangeTimeout, cfg.ExchangeTimeout)
}

func TestPKCEConfigMapping(t *testing.T) {
	s := config.Default()
	s.CodeVerifierByteLength = 48
	s.StorageKeyPrefix = "mapped-"

	cfg := s.PKCEConfig()
	assert.Equal(t, 48, cfg.CodeVerifierByteLength)
	assert.Equal(t, s.StateByteLength, cfg.StateByteLength)
	assert.Equal(t, s.Expiration, cfg.Expiration)
	assert.Equal(t, "mapped-", cfg.StorageKeyPrefix)
	assert.Equal(t, s.CleanupInterval, cfg.CleanupInterval)
}
