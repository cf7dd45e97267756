package flows

import (
	"context"

	"github.com/cropgenius/authflow/autherrors"
	"github.com/cropgenius/authflow/identity"
	"github.com/cropgenius/authflow/pkce"
)

// PKCEStrategy is the primary flow: it mints and stores a PKCE record,
// then requests a sign-in URL carrying the challenge and state. The code
// verifier never leaves the client at flow start.
type PKCEStrategy struct {
	state    *pkce.StateManager
	client   identity.Client
	provider string
}

var _ Strategy = (*PKCEStrategy)(nil)

// NewPKCEStrategy wires the strategy to the PKCE state manager and the
// identity collaborator.
func NewPKCEStrategy(state *pkce.StateManager, client identity.Client, provider string) *PKCEStrategy {
	return &PKCEStrategy{state: state, client: client, provider: provider}
}

// Name implements Strategy.
func (s *PKCEStrategy) Name() Type {
	return TypePKCE
}

// Priority implements Strategy.
func (s *PKCEStrategy) Priority() int {
	return PriorityPKCE
}

// IsSupported implements Strategy. Requires a working secure-random
// source, a digest primitive, and at least one writable storage tier.
// These are capability probes, not write tests.
func (s *PKCEStrategy) IsSupported() (supported bool) {
	defer func() {
		if recover() != nil {
			supported = false
		}
	}()
	return s.state.CryptoAvailable() && s.state.Store().WritableTierAvailable()
}

// Execute implements Strategy.
func (s *PKCEStrategy) Execute(ctx context.Context, redirectTarget string) (*Result, error) {
	record, err := s.state.CreateAndStore(redirectTarget, "")
	if err != nil {
		return nil, err
	}

	redirect, err := s.client.RequestOAuthRedirectURL(ctx, identity.RedirectRequest{
		Provider:            s.provider,
		CodeChallenge:       record.CodeChallenge,
		CodeChallengeMethod: record.CodeChallengeMethod,
		CorrelationToken:    record.CorrelationToken,
		RedirectTarget:      redirectTarget,
		Scopes:              identity.DefaultScopes,
		PromptMode:          identity.PromptConsent,
		OfflineAccess:       true,
	})
	if err != nil {
		return nil, err
	}
	if redirect.URL == "" {
		return nil, autherrors.NoRedirectURL()
	}

	return &Result{
		URL:              redirect.URL,
		CorrelationToken: record.CorrelationToken,
		Strategy:         TypePKCE,
	}, nil
}
