package identity

import (
	"context"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/cropgenius/authflow/autherrors"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// DefaultExchangeTimeout bounds the code-for-session round trip so a hung
// provider call surfaces as a retryable timeout failure instead of
// blocking flow completion indefinitely.
const DefaultExchangeTimeout = 30 * time.Second

// ProviderConfig configures an OAuthClient. Either IssuerURL (OIDC
// discovery) or the explicit AuthURL/TokenURL pair must be set.
type ProviderConfig struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// IssuerURL enables OIDC discovery of endpoints and ID-token
	// verification.
	IssuerURL string

	// AuthURL and TokenURL configure endpoints statically when discovery
	// is not wanted.
	AuthURL  string
	TokenURL string

	// ExchangeTimeout bounds provider round trips. Zero takes the default.
	ExchangeTimeout time.Duration
}

// OAuthClient implements Client on top of golang.org/x/oauth2, with
// optional OIDC discovery and ID-token verification. It keeps the most
// recent session in memory, standing in for the hosted service's own
// session persistence.
type OAuthClient struct {
	name     string
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
	timeout  time.Duration

	mu      sync.Mutex
	current *Session
}

var _ Client = (*OAuthClient)(nil)

// NewOAuthClient builds a provider client. With an IssuerURL set, OIDC
// discovery runs once here and ID tokens returned by the exchange are
// verified against the issuer's keys.
func NewOAuthClient(ctx context.Context, cfg ProviderConfig) (*OAuthClient, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("[NewOAuthClient] client ID is required")
	}

	endpoint := oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	var verifier *oidc.IDTokenVerifier
	if cfg.IssuerURL != "" {
		provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
		if err != nil {
			return nil, errors.Wrap(err, "[NewOAuthClient] OIDC discovery")
		}
		endpoint = provider.Endpoint()
		verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	} else if cfg.AuthURL == "" || cfg.TokenURL == "" {
		return nil, errors.New("[NewOAuthClient] either issuer URL or auth and token URLs are required")
	}

	timeout := cfg.ExchangeTimeout
	if timeout <= 0 {
		timeout = DefaultExchangeTimeout
	}

	return &OAuthClient{
		name: cfg.Name,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       DefaultScopes,
			Endpoint:     endpoint,
		},
		verifier: verifier,
		timeout:  timeout,
	}, nil
}

// RequestOAuthRedirectURL implements Client. URL construction is local;
// the PKCE parameters are attached only when the request carries them, so
// the implicit flow produces a plain authorization URL. The redirect_uri
// is always the registered callback: the post-auth destination travels in
// the flow record and is applied after the callback, never sent to the
// provider.
func (c *OAuthClient) RequestOAuthRedirectURL(_ context.Context, req RedirectRequest) (*Redirect, error) {
	cfg := *c.config
	if len(req.Scopes) > 0 {
		cfg.Scopes = req.Scopes
	}

	var opts []oauth2.AuthCodeOption
	if req.CodeChallenge != "" {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", req.CodeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", req.CodeChallengeMethod),
		)
	}
	if req.PromptMode != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", req.PromptMode))
	}
	if req.OfflineAccess {
		opts = append(opts, oauth2.AccessTypeOffline)
	}

	url := cfg.AuthCodeURL(req.CorrelationToken, opts...)
	if url == "" {
		return nil, autherrors.NoRedirectURL()
	}
	return &Redirect{URL: url, CorrelationToken: req.CorrelationToken}, nil
}

// ExchangeCodeForSession implements Client. The round trip is bounded by
// the configured timeout; hitting it yields a retryable timeout failure.
func (c *OAuthClient) ExchangeCodeForSession(ctx context.Context, code, codeVerifier string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	}

	token, err := c.config.Exchange(ctx, code, opts...)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, autherrors.Timeout("code exchange", err)
		}
		return nil, autherrors.Exchange("token endpoint rejected the code exchange", err)
	}

	session := sessionFromToken(token)
	if c.verifier != nil && session.IDToken != "" {
		idToken, err := c.verifier.Verify(ctx, session.IDToken)
		if err != nil {
			return nil, autherrors.Exchange("ID token failed verification", err)
		}
		session.Subject = idToken.Subject
		var claims struct {
			Email string `json:"email"`
		}
		if err := idToken.Claims(&claims); err == nil && claims.Email != "" {
			session.Email = claims.Email
		}
	}

	c.mu.Lock()
	c.current = session
	c.mu.Unlock()
	return session, nil
}

// CurrentSession implements Client. An expired cached session reports as
// signed out.
func (c *OAuthClient) CurrentSession(_ context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.Expired() {
		return nil, nil
	}
	return c.current, nil
}

// SignOut implements Client.
func (c *OAuthClient) SignOut(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = nil
	return nil
}
