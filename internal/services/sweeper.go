package services

import (
	"context"
	"log/slog"
	"time"

	"visitorgate/internal/domain"
)

// Sweeper periodically retires pending visit requests whose window has
// passed. It runs as a background goroutine and is safe to stop via its
// context or the Stop method.
//
// An interval of 0 disables sweeping entirely.
type Sweeper struct {
	visits   domain.VisitService
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSweeper creates a sweeper but does not start it. Call Start to begin
// the background loop.
func NewSweeper(visits domain.VisitService, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		visits:   visits,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the background sweep loop. It runs an immediate sweep on
// startup, then repeats on the configured interval. The loop exits when ctx
// is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("visit sweeper disabled (interval=0)")
		close(s.done)
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	go s.loop(ctx)

	s.logger.Info("visit sweeper started", "interval", s.interval)
}

// Stop signals the sweeper to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	// Run immediately on startup to clean up any backlog.
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.visits.ExpireOverdue(ctx)
	if err != nil {
		s.logger.Error("visit sweep", "error", err)
		return
	}
	if expired > 0 {
		s.logger.Info("visit sweep expired overdue requests", "count", expired)
	}
}
