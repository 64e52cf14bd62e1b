package automation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler drives the automation agent on a fixed interval. Start and Stop
// are idempotent; the schedule runs until stopped or the parent context ends.
type Scheduler struct {
	agent    Agent
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	enabled bool
}

func NewScheduler(agent Agent, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Scheduler{agent: agent, interval: interval, logger: logger}
}

// Start begins the interaction loop. No-op when already running. The loop
// lives until Stop; the daemon calls Stop during shutdown.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.enabled = true
	go s.loop(loopCtx)
	s.logger.Info("automation.started", "interval", s.interval.String())
}

// Stop halts the loop. No-op when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	s.cancel()
	s.cancel = nil
	s.enabled = false
	s.logger.Info("automation.stopped")
}

// Enabled reports whether the loop is running.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			out, err := s.agent.AttemptInteraction(ctx)
			if err != nil {
				s.logger.Warn("automation.attempt.failed", "error", err)
				continue
			}
			s.logger.Info("automation.attempt.ok",
				"triggered", out.Triggered,
				"detail", out.Detail,
			)
		}
	}
}
