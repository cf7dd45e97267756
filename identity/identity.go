// Package identity defines the contract the flow strategies use to talk to
// the external identity/session service, plus an OAuth2/OIDC-backed
// implementation of it.
package identity

import (
	"context"
	"time"
)

// Prompt modes forwarded to the provider's consent screen.
const (
	PromptConsent = "consent"
	PromptNone    = "none"
)

// DefaultScopes are the standard identity scopes requested when the caller
// does not say otherwise.
var DefaultScopes = []string{"openid", "email", "profile"}

// RedirectRequest parameterises a sign-in URL request. The PKCE fields are
// populated only by the PKCE flow; the implicit flow leaves them empty.
type RedirectRequest struct {
	Provider            string
	CodeChallenge       string
	CodeChallengeMethod string
	CorrelationToken    string
	RedirectTarget      string
	Scopes              []string
	PromptMode          string
	OfflineAccess       bool
}

// Redirect is the provider's answer: the URL the user agent should
// navigate to, echoing the correlation token it was built with.
type Redirect struct {
	URL              string
	CorrelationToken string
}

// Session is the authenticated session returned by a successful
// code-for-session exchange.
type Session struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	ExpiresAt    time.Time
	Subject      string
	Email        string
}

// Expired reports whether the session's access token has expired.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Client is the collaborator contract implemented by the external
// identity/session service.
type Client interface {
	// RequestOAuthRedirectURL asks the provider for a sign-in URL.
	RequestOAuthRedirectURL(ctx context.Context, req RedirectRequest) (*Redirect, error)

	// ExchangeCodeForSession swaps an authorization code (plus the PKCE
	// verifier, when the flow used one) for a session.
	ExchangeCodeForSession(ctx context.Context, code, codeVerifier string) (*Session, error)

	// CurrentSession returns the active session, or nil when signed out.
	CurrentSession(ctx context.Context) (*Session, error)

	// SignOut discards the active session.
	SignOut(ctx context.Context) error
}
