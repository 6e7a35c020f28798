package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Guard runs one job at a time. A call made while the previous run is still
// in flight is dropped, not queued.
type Guard struct {
	name    string
	log     *slog.Logger
	running atomic.Bool
}

// NewGuard constructs a Guard for the named job.
func NewGuard(name string, log *slog.Logger) *Guard {
	return &Guard{name: name, log: log.With("job", name)}
}

// Name returns the job name.
func (g *Guard) Name() string {
	return g.name
}

// Running reports whether a run is in flight.
func (g *Guard) Running() bool {
	return g.running.Load()
}

// Do runs fn unless a previous run is still active. It reports whether fn ran.
// Errors and panics from fn are logged.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) bool {
	if !g.running.CompareAndSwap(false, true) {
		g.log.Warn("job skipped: previous run still in progress")
		return false
	}
	defer g.running.Store(false)

	defer func() {
		if r := recover(); r != nil {
			g.log.Error("job panicked", "recover", r)
		}
	}()

	start := time.Now()
	g.log.Debug("job started")

	if err := fn(ctx); err != nil {
		g.log.Error("job failed", "err", err, "duration", time.Since(start))
		return true
	}

	g.log.Debug("job finished", "duration", time.Since(start))
	return true
}
