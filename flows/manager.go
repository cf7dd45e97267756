package flows

import (
	"context"
	"sort"
	"sync"

	"github.com/cropgenius/authflow/autherrors"
	"github.com/cropgenius/authflow/identity"
	"github.com/cropgenius/authflow/pkce"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Manager holds the strategy registry and the selection policy. It is an
// explicit instance constructed once at application startup and passed to
// consumers; there is no process-wide singleton.
type Manager struct {
	state    *pkce.StateManager
	client   identity.Client
	provider string

	strategies []Strategy

	mu        sync.RWMutex
	preferred Type
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPreferredFlow sets the initial flow preference. The default is auto.
func WithPreferredFlow(preferred Type) ManagerOption {
	return func(m *Manager) {
		m.preferred = preferred
	}
}

// WithStrategies replaces the built-in strategy registry (primarily for
// testing).
func WithStrategies(strategies ...Strategy) ManagerOption {
	return func(m *Manager) {
		m.strategies = strategies
	}
}

// NewManager initialises a Manager with required dependencies. The three
// standard strategies are registered and kept sorted by descending
// priority.
func NewManager(state *pkce.StateManager, client identity.Client, provider string, options ...ManagerOption) (*Manager, error) {
	if state == nil {
		return nil, errors.New("[NewManager] PKCE state manager is required")
	}
	if client == nil {
		return nil, errors.New("[NewManager] identity client is required")
	}

	pkceStrategy := NewPKCEStrategy(state, client, provider)
	implicitStrategy := NewImplicitStrategy(client, provider)

	manager := &Manager{
		state:    state,
		client:   client,
		provider: provider,
		strategies: []Strategy{
			pkceStrategy,
			NewHybridStrategy(pkceStrategy, implicitStrategy),
			implicitStrategy,
		},
		preferred: TypeAuto,
	}
	for _, opt := range options {
		opt(manager)
	}

	sort.SliceStable(manager.strategies, func(i, j int) bool {
		return manager.strategies[i].Priority() > manager.strategies[j].Priority()
	})
	return manager, nil
}

// SetPreferredFlow overrides auto-selection with an explicit flow type.
// Setting TypeAuto restores auto-selection.
func (m *Manager) SetPreferredFlow(preferred Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.preferred = preferred
}

// PreferredFlow returns the current preference setting.
func (m *Manager) PreferredFlow() Type {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.preferred
}

// SupportedStrategies filters the registry down to strategies whose
// capability probes pass, preserving priority order.
func (m *Manager) SupportedStrategies() []Strategy {
	var supported []Strategy
	for _, strategy := range m.strategies {
		if strategy.IsSupported() {
			supported = append(supported, strategy)
		}
	}
	return supported
}

// OptimalStrategy resolves the strategy to run: the preference when it is
// set and supported, otherwise the highest-priority supported strategy.
// Returns nil when nothing is supported; that only becomes an error at
// execution time.
func (m *Manager) OptimalStrategy() Strategy {
	preferred := m.PreferredFlow()
	if preferred != TypeAuto && preferred != "" {
		for _, strategy := range m.strategies {
			if strategy.Name() == preferred && strategy.IsSupported() {
				return strategy
			}
		}
		log.Debug().Str("preferred", string(preferred)).Msg("preferred flow unsupported, using auto-selection")
	}

	supported := m.SupportedStrategies()
	if len(supported) == 0 {
		return nil
	}
	return supported[0]
}

// ExecuteOptimalFlow resolves and runs the optimal strategy. With no
// supported strategy it returns a non-retryable configuration failure;
// otherwise the strategy's result or error is returned verbatim, without
// converting strategy-level errors.
func (m *Manager) ExecuteOptimalFlow(ctx context.Context, redirectTarget string) (*Result, error) {
	strategy := m.OptimalStrategy()
	if strategy == nil {
		return nil, autherrors.NoSupportedStrategy()
	}

	log.Debug().
		Str("strategy", string(strategy.Name())).
		Int("priority", strategy.Priority()).
		Msg("executing OAuth flow strategy")
	return strategy.Execute(ctx, redirectTarget)
}

// HandleCallback completes a sign-in: it consumes the stored flow record
// for the returned state and exchanges the authorization code for a
// session. The consumed record is returned alongside the session so the
// caller can honor its post-auth redirect target. A callback whose state
// has no client-side record reports a state mismatch; the caller decides
// how to react (cross-device callbacks land here too).
func (m *Manager) HandleCallback(ctx context.Context, correlationToken, code string) (*identity.Session, *pkce.FlowRecord, error) {
	record, err := m.state.RetrieveAndConsume(correlationToken)
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		return nil, nil, autherrors.StateMismatch(correlationToken)
	}

	session, err := m.client.ExchangeCodeForSession(ctx, code, record.CodeVerifier)
	if err != nil {
		return nil, record, err
	}
	return session, record, nil
}
