// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bolao/internal/adapters/repository"
	"github.com/okian/bolao/internal/domain/scoring"
	"github.com/okian/bolao/pkg/logger"
	"github.com/okian/bolao/pkg/metrics"
)

// Service hosts rounds and betting cards and scores them on every read.
type Service struct {
	mu sync.RWMutex
	// writeMu serializes read-modify-write sequences against the store.
	writeMu sync.Mutex

	store     repository.Store
	ownsStore bool
	engine    *scoring.Engine

	now   func() time.Time
	newID func() string

	started bool
	stopCh  chan struct{}

	roundsScored atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the repository. Without it Start creates a MemoryStore.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRule sets the point values used for scoring.
func WithRule(r scoring.Rule) Option {
	return func(s *Service) {
		s.engine = scoring.NewEngine(scoring.WithRule(r))
	}
}

// WithClock overrides the time source for card timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		engine: scoring.NewEngine(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start prepares the store and starts the system metrics loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	s.logger.Info(ctx, "starting bolão service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.ownsStore = true
		s.logger.Info(ctx, "using memory store")
	}

	s.stopCh = make(chan struct{})
	go s.runSystemMetrics(s.stopCh)

	s.started = true
	rule := s.engine.Rule()
	s.logger.Info(ctx, "bolão service started",
		logger.Int("exactPoints", rule.Exact),
		logger.Int("drawPoints", rule.Draw),
		logger.Int("winnerAndScorePoints", rule.WinnerAndScore),
		logger.Int("winnerPoints", rule.Winner),
	)
	return nil
}

// Stop gracefully shuts down the service. A store passed with WithStore is
// left open for its owner to close.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping bolão service...")

	close(s.stopCh)
	if s.ownsStore {
		if err := s.store.Close(ctx); err != nil {
			s.logger.Warn(ctx, "closing store failed", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "bolão service stopped")
}

func (s *Service) runSystemMetrics(stop <-chan struct{}) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			metrics.UpdateSystemMemoryUsage(ms.HeapAlloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}

// repo returns the store or ErrNotStarted.
func (s *Service) repo() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Nop()
	}
	return l
}

// observe records the outcome of a named operation.
func (s *Service) observe(op string, err error) {
	if err == nil {
		metrics.RecordCardOperation(op, "ok")
		return
	}
	metrics.RecordCardOperation(op, "error")
	metrics.RecordErrorByComponent("service", errorKind(err))
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started, store := s.started, s.store
	s.mu.RUnlock()

	rule := s.engine.Rule()
	stats := map[string]interface{}{
		"started":      started,
		"roundsScored": s.roundsScored.Load(),
		"rule":         rule,
		"goroutines":   runtime.NumGoroutine(),
	}

	if started {
		counts, err := store.Count(context.Background())
		if err != nil {
			stats["storeError"] = err.Error()
			return stats
		}
		stats["rounds"] = counts.Rounds
		stats["cards"] = counts.Cards
		metrics.UpdateStoreRecords(repository.CollectionRounds, counts.Rounds)
		metrics.UpdateStoreRecords(repository.CollectionCards, counts.Cards)
	}
	return stats
}
