package worker

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper is implemented by revocation stores that need explicit expiry.
// Redis expires keys on its own, so only the in-memory revoker runs one.
type Sweeper interface {
	Sweep() int
}

type RevocationSweeper struct {
	store    Sweeper
	interval time.Duration
}

func NewRevocationSweeper(store Sweeper, interval time.Duration) *RevocationSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RevocationSweeper{store: store, interval: interval}
}

// Start blocks until ctx is cancelled.
func (s *RevocationSweeper) Start(ctx context.Context) {
	slog.Info("revocation sweeper started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("revocation sweeper stopping")
			return
		case <-ticker.C:
			if n := s.store.Sweep(); n > 0 {
				slog.Debug("expired revocations removed", "count", n)
			}
		}
	}
}
