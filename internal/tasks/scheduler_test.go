package tasks

import (
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rsmeets/radiolist/internal/shared"
)

func TestScheduler(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("RearmsAfterDone", func(t *testing.T) {
		var runs atomic.Int32

		s := NewScheduler("test", 10*time.Millisecond, func(done func()) {
			runs.Add(1)
			done()
		}, logger)
		s.Start()
		defer s.Stop()

		deadline := time.Now().Add(time.Second)
		for runs.Load() < 3 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}

		if runs.Load() < 3 {
			t.Fatalf("expected at least 3 runs, got %d", runs.Load())
		}
	})

	t.Run("NeverOverlaps", func(t *testing.T) {
		var active atomic.Int32
		var overlapped atomic.Bool
		var runs atomic.Int32

		s := NewScheduler("test", time.Millisecond, func(done func()) {
			if active.Add(1) > 1 {
				overlapped.Store(true)
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			runs.Add(1)
			done()
		}, logger)
		s.Start()

		deadline := time.Now().Add(time.Second)
		for runs.Load() < 4 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		s.Stop()

		if runs.Load() < 4 {
			t.Fatalf("expected at least 4 runs, got %d", runs.Load())
		}
		if overlapped.Load() {
			t.Error("expected runs to never overlap")
		}
	})

	t.Run("IntervalCountsFromDone", func(t *testing.T) {
		interval := 30 * time.Millisecond
		work := 30 * time.Millisecond

		times := make(chan time.Time, 2)
		s := NewScheduler("test", interval, func(done func()) {
			if len(times) < cap(times) {
				times <- time.Now()
			}
			time.Sleep(work)
			done()
		}, logger)
		s.Start()
		defer s.Stop()

		first := <-times
		second := <-times

		// The gap includes the first run's work plus a full interval.
		if gap := second.Sub(first); gap < interval+work {
			t.Errorf("expected gap of at least %v, got %v", interval+work, gap)
		}
	})

	t.Run("StopCancelsPendingRun", func(t *testing.T) {
		var runs atomic.Int32

		s := NewScheduler("test", 10*time.Millisecond, func(done func()) {
			runs.Add(1)
			done()
		}, logger)
		s.Start()

		deadline := time.Now().Add(time.Second)
		for runs.Load() < 1 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		s.Stop()

		// Let a firing already in flight drain before snapshotting.
		time.Sleep(20 * time.Millisecond)
		count := runs.Load()
		time.Sleep(50 * time.Millisecond)

		if got := runs.Load(); got != count {
			t.Errorf("expected no runs after stop, had %d then %d", count, got)
		}
	})

	t.Run("PanickingHandlerRearms", func(t *testing.T) {
		var runs atomic.Int32

		s := NewScheduler("test", 5*time.Millisecond, func(done func()) {
			runs.Add(1)
			panic("boom")
		}, logger)
		s.Start()
		defer s.Stop()

		deadline := time.Now().Add(time.Second)
		for runs.Load() < 2 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}

		if runs.Load() < 2 {
			t.Fatalf("expected the schedule to survive a panic, got %d runs", runs.Load())
		}
	})
}
