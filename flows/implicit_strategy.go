package flows

import (
	"context"
	"net/url"

	"github.com/cropgenius/authflow/autherrors"
	"github.com/cropgenius/authflow/identity"
)

// ImplicitStrategy is the compatibility fallback: no PKCE material, just a
// plain sign-in URL with the standard identity scopes and a consent
// prompt.
type ImplicitStrategy struct {
	client   identity.Client
	provider string
}

var _ Strategy = (*ImplicitStrategy)(nil)

// NewImplicitStrategy wires the strategy to the identity collaborator.
func NewImplicitStrategy(client identity.Client, provider string) *ImplicitStrategy {
	return &ImplicitStrategy{client: client, provider: provider}
}

// Name implements Strategy.
func (s *ImplicitStrategy) Name() Type {
	return TypeImplicit
}

// Priority implements Strategy.
func (s *ImplicitStrategy) Priority() int {
	return PriorityImplicit
}

// IsSupported implements Strategy. Only basic URL handling is required.
func (s *ImplicitStrategy) IsSupported() (supported bool) {
	defer func() {
		if recover() != nil {
			supported = false
		}
	}()
	return urlPrimitivesAvailable()
}

// Execute implements Strategy. A provider that reports success without a
// URL is a distinct failure mode from a transport error.
func (s *ImplicitStrategy) Execute(ctx context.Context, redirectTarget string) (*Result, error) {
	redirect, err := s.client.RequestOAuthRedirectURL(ctx, identity.RedirectRequest{
		Provider:       s.provider,
		RedirectTarget: redirectTarget,
		Scopes:         identity.DefaultScopes,
		PromptMode:     identity.PromptConsent,
		OfflineAccess:  true,
	})
	if err != nil {
		return nil, autherrors.Provider(autherrors.CodeImplicitProviderError,
			"implicit flow sign-in URL request failed", err)
	}
	if redirect.URL == "" {
		return nil, autherrors.NoRedirectURL()
	}

	return &Result{URL: redirect.URL, Strategy: TypeImplicit}, nil
}

func urlPrimitivesAvailable() bool {
	parsed, err := url.Parse("https://probe.invalid/callback")
	return err == nil && parsed.Host != ""
}
