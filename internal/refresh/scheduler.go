package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Target is one thing the scheduler keeps fresh, usually a controller's Load.
type Target struct {
	Name    string
	Refresh func(ctx context.Context) error
}

// Scheduler refreshes targets on a fixed interval until its context ends.
// Failures are logged and retried on the next tick; the controllers keep
// showing their last good state meanwhile.
type Scheduler struct {
	interval time.Duration
	targets  []Target
	wg       sync.WaitGroup
}

func NewScheduler(interval time.Duration, targets ...Target) *Scheduler {
	return &Scheduler{
		interval: interval,
		targets:  targets,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	slog.Info("starting refresh loop", "targets", len(s.targets), "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Initial refresh
	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh loop shutting down")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range s.targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.refresh(ctx, t)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) refresh(ctx context.Context, t Target) {
	slog.Debug("refreshing", "target", t.Name)
	start := time.Now()
	if err := t.Refresh(ctx); err != nil {
		slog.Error("refresh failed", "target", t.Name, "error", err)
		return
	}
	slog.Debug("refresh complete", "target", t.Name, "elapsed", time.Since(start))
}

// Stop waits for the loop to exit. Cancel the context passed to Start first.
func (s *Scheduler) Stop() {
	s.wg.Wait()
	slog.Info("refresh scheduler stopped")
}
