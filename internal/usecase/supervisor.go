package usecase

import (
	"context"
	"sync"
	"time"

	drepo "ChainPulse/internal/domain/repository"
	"ChainPulse/pkg/logger"
)

// Supervisor runs the long-lived polling loops. Each loop iteration is
// isolated: a panic or error in one loop is logged and followed by a
// backoff sleep, and never takes sibling loops down.
type Supervisor struct {
	log     *logger.Logger
	metrics drepo.Metrics
	backoff time.Duration
	wg      sync.WaitGroup
}

// NewSupervisor creates a loop supervisor with the given failure backoff.
func NewSupervisor(log *logger.Logger, metrics drepo.Metrics, backoff time.Duration) *Supervisor {
	if backoff <= 0 {
		backoff = 5 * time.Second
	}
	return &Supervisor{log: log, metrics: metrics, backoff: backoff}
}

// Go runs fn every interval until ctx is cancelled. The first iteration
// fires immediately. Cancellation is observed between iterations only.
func (s *Supervisor) Go(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("loop started", logger.String("loop", name))

		for {
			s.iterate(ctx, name, fn)
			select {
			case <-ctx.Done():
				s.log.Info("loop stopped", logger.String("loop", name))
				return
			case <-time.After(interval):
			}
		}
	}()
}

func (s *Supervisor) iterate(ctx context.Context, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.RecordError("panic")
			s.log.Error("loop iteration panicked",
				logger.String("loop", name),
				logger.Any("panic", r))
			s.sleep(ctx)
		}
	}()

	start := time.Now()
	err := fn(ctx)
	s.metrics.RecordLatency(name, time.Since(start).Seconds())
	if err != nil && ctx.Err() == nil {
		s.metrics.RecordError(name)
		s.log.Error("loop iteration failed", logger.String("loop", name), logger.Error(err))
		s.sleep(ctx)
	}
}

func (s *Supervisor) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(s.backoff):
	}
}

// Wait blocks until every loop has exited.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
