package pkce

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper deletes expired flow records on a fixed interval, bounding
// storage growth from abandoned sign-in attempts that never reach the
// callback.
type Sweeper struct {
	manager  *StateManager
	interval time.Duration
}

// NewSweeper creates a Sweeper over the manager's store. A zero interval
// uses the manager's configured cleanup interval.
func NewSweeper(manager *StateManager, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = manager.Config().CleanupInterval
	}
	return &Sweeper{manager: manager, interval: interval}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
// It blocks; callers run it in a goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	if deleted := s.manager.CleanupExpired(); deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("swept expired PKCE flow records")
	}
}
