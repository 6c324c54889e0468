package tasks

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Handler is a scheduled job body. It must call done exactly once, whether it
// succeeds or fails; the next interval only starts counting down when done is
// called, so two firings of the same schedule can never overlap.
type Handler func(done func())

// Scheduler fires a named job on a fixed interval. Start arms an immediate
// first firing; each subsequent firing is armed from inside the previous
// run's done callback, not by wall-clock cadence.
type Scheduler struct {
	name     string
	interval time.Duration
	handler  Handler
	logger   *log.Logger

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewScheduler creates a scheduler for the given job.
func NewScheduler(name string, interval time.Duration, handler Handler, logger *log.Logger) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		handler:  handler,
		logger:   logger.With("schedule", name),
	}
}

// Start arms an immediate first firing. Calling Start on a stopped scheduler
// re-enables it.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.stopped = false
	s.mu.Unlock()

	s.logger.Info("starting schedule", "interval", s.interval)
	go s.fire()
}

// Stop cancels any pending firing. A run already in flight finishes normally
// but will not re-arm.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fire runs the handler once. The handler owns calling done; a panicking
// handler must not take the schedule down, so fire recovers and re-arms.
func (s *Scheduler) fire() {
	var once sync.Once
	done := func() {
		once.Do(s.arm)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panicked", "panic", r)
			done()
		}
	}()

	s.handler(done)
}

// arm schedules the next firing after the configured interval.
func (s *Scheduler) arm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	s.logger.Debug("scheduling next run", "interval", s.interval)
	s.timer = time.AfterFunc(s.interval, s.fire)
}
