// Package flows selects and runs an OAuth sign-in flow. Three strategies
// (PKCE, hybrid, implicit) declare their environment requirements and a
// priority; the manager picks the best supported one, or an explicit
// caller preference.
package flows

import (
	"context"
)

// Type names a flow strategy, plus the "auto" preference value.
type Type string

const (
	TypePKCE     Type = "pkce"
	TypeImplicit Type = "implicit"
	TypeHybrid   Type = "hybrid"
	TypeAuto     Type = "auto"
)

// Strategy priorities. Higher wins during auto-selection.
const (
	PriorityPKCE     = 100
	PriorityHybrid   = 75
	PriorityImplicit = 50
)

// Result is a successful flow start: the URL the user agent should
// navigate to, and the correlation token to expect back (empty for the
// implicit flow, which carries no client-side state).
type Result struct {
	URL              string
	CorrelationToken string
	Strategy         Type
}

// Strategy is one interchangeable sign-in algorithm.
type Strategy interface {
	// Name identifies the strategy.
	Name() Type

	// IsSupported probes the environment for the strategy's requirements.
	// Probe failures must be swallowed and reported as unsupported, never
	// propagated.
	IsSupported() bool

	// Priority orders strategies during auto-selection.
	Priority() int

	// Execute starts the flow and returns the redirect. Unlike the store
	// and manager layers, Execute may return transport errors verbatim;
	// the flow manager passes them through to its caller.
	Execute(ctx context.Context, redirectTarget string) (*Result, error)
}
