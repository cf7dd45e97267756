package flows

import (
	"context"

	"github.com/rs/zerolog/log"
)

// HybridStrategy attempts PKCE and falls back to the implicit flow when
// the PKCE attempt fails for any reason, structured failure or transport
// error alike. The original client only fell back on thrown exceptions and
// let reported failures through; that asymmetry was judged a latent bug
// and is deliberately not preserved.
type HybridStrategy struct {
	pkce     *PKCEStrategy
	implicit *ImplicitStrategy
}

var _ Strategy = (*HybridStrategy)(nil)

// NewHybridStrategy composes the two underlying strategies.
func NewHybridStrategy(pkce *PKCEStrategy, implicit *ImplicitStrategy) *HybridStrategy {
	return &HybridStrategy{pkce: pkce, implicit: implicit}
}

// Name implements Strategy.
func (s *HybridStrategy) Name() Type {
	return TypeHybrid
}

// Priority implements Strategy.
func (s *HybridStrategy) Priority() int {
	return PriorityHybrid
}

// IsSupported implements Strategy. Hybrid needs both constituents.
func (s *HybridStrategy) IsSupported() (supported bool) {
	defer func() {
		if recover() != nil {
			supported = false
		}
	}()
	return s.pkce.IsSupported() && s.implicit.IsSupported()
}

// Execute implements Strategy.
func (s *HybridStrategy) Execute(ctx context.Context, redirectTarget string) (*Result, error) {
	result, err := s.pkce.Execute(ctx, redirectTarget)
	if err == nil {
		return result, nil
	}
	log.Warn().Err(err).Msg("hybrid flow: PKCE attempt failed, falling back to implicit")

	result, err = s.implicit.Execute(ctx, redirectTarget)
	if err != nil {
		return nil, err
	}
	return result, nil
}
