package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScheduler_InitialRefreshAndStop(t *testing.T) {
	var calls atomic.Int64
	cycled := make(chan struct{}, 1)
	s := NewScheduler(time.Hour, Target{
		Name: "alerts",
		Refresh: func(ctx context.Context) error {
			calls.Add(1)
			cycled <- struct{}{}
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	select {
	case <-cycled:
	case <-time.After(5 * time.Second):
		t.Fatal("initial refresh did not run")
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 refresh, got %d", calls.Load())
	}

	cancel()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop timed out")
	}
}

func TestScheduler_TicksAndSurvivesFailures(t *testing.T) {
	var ok, failing atomic.Int64
	s := NewScheduler(10*time.Millisecond,
		Target{Name: "resources", Refresh: func(ctx context.Context) error {
			ok.Add(1)
			return nil
		}},
		Target{Name: "weather", Refresh: func(ctx context.Context) error {
			failing.Add(1)
			return errors.New("upstream down")
		}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	deadline := time.After(5 * time.Second)
	for ok.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected repeated refreshes, got %d", ok.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	s.Stop()

	if failing.Load() < 3 {
		t.Errorf("failing target should keep being retried, got %d calls", failing.Load())
	}
}

func TestScheduler_CanceledBeforeStart(t *testing.T) {
	var sawCanceled atomic.Bool
	s := NewScheduler(time.Hour, Target{Name: "teams", Refresh: func(ctx context.Context) error {
		sawCanceled.Store(ctx.Err() != nil)
		return ctx.Err()
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
	s.Stop()

	if !sawCanceled.Load() {
		t.Error("the initial refresh should see the canceled context")
	}
}
