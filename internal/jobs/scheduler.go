package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job names.
const (
	MailFlush  = "mail-flush"
	MailPurge  = "mail-purge"
	PriceCheck = "price-check"
)

// Scheduler runs guarded jobs on cron schedules with a seconds field.
type Scheduler struct {
	cron   *cron.Cron
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	guards map[string]*Guard
}

// NewScheduler constructs a Scheduler that evaluates schedules in loc.
func NewScheduler(loc *time.Location, log *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		guards: map[string]*Guard{},
	}
}

// Register adds a named job. Each name gets its own Guard so slow runs of one
// job never block another.
func (s *Scheduler) Register(name, spec string, fn func(ctx context.Context) error) error {
	if _, ok := s.guards[name]; ok {
		return fmt.Errorf("job %s already registered", name)
	}

	g := NewGuard(name, s.log)
	if _, err := s.cron.AddFunc(spec, func() { g.Do(s.ctx, fn) }); err != nil {
		return fmt.Errorf("scheduling job %s with %q: %w", name, spec, err)
	}

	s.guards[name] = g
	s.log.Info("job scheduled", "job", name, "schedule", spec)
	return nil
}

// Guard returns the guard of a registered job, or nil.
func (s *Scheduler) Guard(name string) *Guard {
	return s.guards[name]
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for jobs to stop: %w", ctx.Err())
	}
}
