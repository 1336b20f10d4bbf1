package service

import (
	"context"
	"sync"
	"time"

	"smart-pantry-api/internal/repository"

	"go.uber.org/zap"
)

const purgeTimeout = 5 * time.Minute

// PurgeConfig holds configuration for the expired-item purge.
type PurgeConfig struct {
	// Retention is how long past its expiration date an item is kept.
	// Zero disables the scheduler.
	Retention time.Duration

	// Interval is how often the purge runs. Default: 24 hours
	Interval time.Duration

	// InitialDelay postpones the first run after Start. Default: 1 minute
	InitialDelay time.Duration
}

// PurgeScheduler periodically deletes items that expired more than Retention ago.
type PurgeScheduler struct {
	store     repository.Store
	config    PurgeConfig
	logger    *zap.Logger
	now       func() time.Time
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewPurgeScheduler creates a purge scheduler.
func NewPurgeScheduler(store repository.Store, config PurgeConfig, logger *zap.Logger) *PurgeScheduler {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PurgeScheduler{
		store:  store,
		config: config,
		logger: logger.Named("purge"),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
}

// Enabled reports whether a retention period is configured.
func (s *PurgeScheduler) Enabled() bool {
	return s.config.Retention > 0
}

// Start begins the periodic purge. It does nothing when disabled or already running.
func (s *PurgeScheduler) Start() {
	if !s.Enabled() {
		s.logger.Info("expired-item purge disabled")
		return
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	s.logger.Info("expired-item purge started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("retention", s.config.Retention))

	go s.run()
}

func (s *PurgeScheduler) run() {
	select {
	case <-time.After(s.config.InitialDelay):
		s.purge()
	case <-s.stopCh:
		return
	}

	for {
		select {
		case <-s.ticker.C:
			s.purge()
		case <-s.stopCh:
			s.logger.Info("expired-item purge stopped")
			return
		}
	}
}

func (s *PurgeScheduler) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	deleted, err := s.RunNow(ctx)
	if err != nil {
		s.logger.Error("purge failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("purged expired items", zap.Int64("deleted", deleted))
	} else {
		s.logger.Debug("no expired items to purge")
	}
}

// RunNow deletes items whose expiration date is older than now minus Retention.
func (s *PurgeScheduler) RunNow(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.config.Retention)
	return s.store.DeleteExpiredBefore(ctx, cutoff)
}

// Stop stops the scheduler. It is safe to call more than once.
func (s *PurgeScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}
