package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/finops/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// leaseName identifies the overdue sweep lease across all instances.
const leaseName = "emi:overdue-sweep"

// OverdueSweeper is the job the scheduler drives each cycle.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
}

// OverdueSweepConfig holds configuration for the overdue sweep scheduler
type OverdueSweepConfig struct {
	// Interval between sweep cycles
	Interval time.Duration
	// LockTTL bounds how long one instance may hold the sweep lease
	LockTTL time.Duration
}

// OverdueSweepScheduler runs the overdue installment sweep on a ticker.
// The Redis lease keeps the sweep single-flight across instances: losing the
// lease race means another instance is already sweeping this cycle, and the
// sweep itself is idempotent so an occasional double run is harmless.
type OverdueSweepScheduler struct {
	sweeper OverdueSweeper
	lock    *cache.RedisLeaseLock
	cfg     OverdueSweepConfig
	logger  *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewOverdueSweepScheduler creates a new OverdueSweepScheduler
func NewOverdueSweepScheduler(
	sweeper OverdueSweeper,
	lock *cache.RedisLeaseLock,
	cfg OverdueSweepConfig,
	logger *zap.Logger,
) *OverdueSweepScheduler {
	return &OverdueSweepScheduler{
		sweeper: sweeper,
		lock:    lock,
		cfg:     cfg,
		logger:  logger.Named("overdue-sweep"),
	}
}

// Start launches the scheduler loop. Safe to call once; subsequent calls are
// no-ops until Stop.
func (s *OverdueSweepScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.run(ctx)
	s.logger.Info("overdue sweep scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("lock_ttl", s.cfg.LockTTL))
}

// Stop halts the scheduler and waits for an in-flight sweep to finish.
func (s *OverdueSweepScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("overdue sweep scheduler stopped")
}

func (s *OverdueSweepScheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce acquires the lease and runs one sweep cycle.
func (s *OverdueSweepScheduler) sweepOnce(ctx context.Context) {
	lease, acquired, err := s.lock.Acquire(ctx, leaseName, s.cfg.LockTTL)
	if err != nil {
		s.logger.Error("failed to acquire sweep lease", zap.Error(err))
		return
	}
	if !acquired {
		s.logger.Debug("sweep lease held elsewhere, skipping cycle")
		return
	}
	defer func() {
		if err := lease.Release(ctx); err != nil {
			s.logger.Warn("failed to release sweep lease", zap.Error(err))
		}
	}()

	sweepCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTTL)
	defer cancel()

	marked, err := s.sweeper.SweepOverdue(sweepCtx, time.Now())
	if err != nil {
		s.logger.Error("overdue sweep failed", zap.Error(err))
		return
	}
	if marked > 0 {
		s.logger.Info("overdue sweep completed", zap.Int("installments_marked", marked))
	}
}
