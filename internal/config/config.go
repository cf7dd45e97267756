// Package config resolves library settings from the environment, with
// defaults applied up front. The resolved Settings value is injected into
// the PKCE manager and flow manager at construction; nothing reads the
// environment lazily per call.
package config

import (
	"time"

	"github.com/cropgenius/authflow/identity"
	"github.com/cropgenius/authflow/pkce"
)

const (
	listenAddrVar        = "AUTHFLOW_LISTEN_ADDR"
	clientIDVar          = "AUTHFLOW_CLIENT_ID"
	clientSecretVar      = "AUTHFLOW_CLIENT_SECRET"
	oauthRedirectURLVar  = "AUTHFLOW_OAUTH_REDIRECT_URL"
	issuerURLVar         = "AUTHFLOW_ISSUER_URL"
	authURLVar           = "AUTHFLOW_AUTH_URL"
	tokenURLVar          = "AUTHFLOW_TOKEN_URL"
	preferredFlowVar     = "AUTHFLOW_PREFERRED_FLOW"
	providerVar          = "AUTHFLOW_PROVIDER"
	verifierBytesVar     = "AUTHFLOW_PKCE_VERIFIER_BYTES"
	stateBytesVar        = "AUTHFLOW_PKCE_STATE_BYTES"
	expirationMinutesVar = "AUTHFLOW_PKCE_EXPIRATION_MINUTES"
	keyPrefixVar         = "AUTHFLOW_PKCE_KEY_PREFIX"
	cleanupIntervalMsVar = "AUTHFLOW_PKCE_CLEANUP_INTERVAL_MS"
	exchangeTimeoutVar   = "AUTHFLOW_EXCHANGE_TIMEOUT_SECONDS"
	stateDirVar          = "AUTHFLOW_STATE_DIR"
	redisAddrVar         = "AUTHFLOW_REDIS_ADDR"
)

// Settings is the recognized configuration surface.
type Settings struct {
	// ListenAddr is the address the embedded HTTP server binds to.
	ListenAddr string

	// PreferredFlow is "pkce", "implicit", "hybrid" or "auto".
	PreferredFlow string

	// Provider names the identity provider to request sign-in from.
	Provider string

	// OAuth client registration and endpoints. Either IssuerURL or the
	// AuthURL/TokenURL pair must be set for the serving binary.
	ClientID         string
	ClientSecret     string
	OAuthRedirectURL string
	IssuerURL        string
	AuthURL          string
	TokenURL         string

	CodeVerifierByteLength int
	StateByteLength        int
	Expiration             time.Duration
	StorageKeyPrefix       string
	CleanupInterval        time.Duration

	// ExchangeTimeout bounds the identity-provider round trip.
	ExchangeTimeout time.Duration

	// StateDir overrides the persistent tier's on-disk location.
	StateDir string

	// RedisAddr, when set, selects a Redis-backed persistent tier.
	RedisAddr string
}

// Default builds Settings with every field at its default.
func Default() Settings {
	return Settings{
		ListenAddr:             ":8080",
		PreferredFlow:          "auto",
		Provider:               "google",
		CodeVerifierByteLength: pkce.DefaultCodeVerifierByteLength,
		StateByteLength:        pkce.DefaultStateByteLength,
		Expiration:             pkce.DefaultExpiration,
		StorageKeyPrefix:       pkce.DefaultStorageKeyPrefix,
		CleanupInterval:        pkce.DefaultCleanupInterval,
		ExchangeTimeout:        30 * time.Second,
	}
}

// FromEnv builds Settings from the environment, falling back to defaults
// for anything unset or unparsable.
func FromEnv() Settings {
	s := Default()
	s.ListenAddr = GetEnv(listenAddrVar, s.ListenAddr)
	s.PreferredFlow = GetEnv(preferredFlowVar, s.PreferredFlow)
	s.Provider = GetEnv(providerVar, s.Provider)
	s.ClientID = GetEnv(clientIDVar, s.ClientID)
	s.ClientSecret = GetEnv(clientSecretVar, s.ClientSecret)
	s.OAuthRedirectURL = GetEnv(oauthRedirectURLVar, s.OAuthRedirectURL)
	s.IssuerURL = GetEnv(issuerURLVar, s.IssuerURL)
	s.AuthURL = GetEnv(authURLVar, s.AuthURL)
	s.TokenURL = GetEnv(tokenURLVar, s.TokenURL)
	s.CodeVerifierByteLength = GetEnvInt(verifierBytesVar, s.CodeVerifierByteLength)
	s.StateByteLength = GetEnvInt(stateBytesVar, s.StateByteLength)
	s.Expiration = time.Duration(GetEnvInt(expirationMinutesVar, int(s.Expiration/time.Minute))) * time.Minute
	s.StorageKeyPrefix = GetEnv(keyPrefixVar, s.StorageKeyPrefix)
	s.CleanupInterval = time.Duration(GetEnvInt(cleanupIntervalMsVar, int(s.CleanupInterval/time.Millisecond))) * time.Millisecond
	s.ExchangeTimeout = time.Duration(GetEnvInt(exchangeTimeoutVar, int(s.ExchangeTimeout/time.Second))) * time.Second
	s.StateDir = GetEnv(stateDirVar, s.StateDir)
	s.RedisAddr = GetEnv(redisAddrVar, s.RedisAddr)
	return s
}

// ProviderConfig maps the settings onto the OAuth client's config.
func (s Settings) ProviderConfig() identity.ProviderConfig {
	return identity.ProviderConfig{
		Name:            s.Provider,
		ClientID:        s.ClientID,
		ClientSecret:    s.ClientSecret,
		RedirectURL:     s.OAuthRedirectURL,
		IssuerURL:       s.IssuerURL,
		AuthURL:         s.AuthURL,
		TokenURL:        s.TokenURL,
		ExchangeTimeout: s.ExchangeTimeout,
	}
}

// PKCEConfig maps the settings onto the PKCE manager's config.
func (s Settings) PKCEConfig() pkce.Config {
	return pkce.Config{
		CodeVerifierByteLength: s.CodeVerifierByteLength,
		StateByteLength:        s.StateByteLength,
		Expiration:             s.Expiration,
		StorageKeyPrefix:       s.StorageKeyPrefix,
		CleanupInterval:        s.CleanupInterval,
	}
}
