package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/bolao/internal/domain/model"
	"github.com/okian/bolao/pkg/metrics"
)

const defaultMetricsUpdateInterval = 5 * time.Second

// MemoryStore is an in-memory Store guarded by a RWMutex. Values are copied
// on the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	rounds map[model.ID]model.Round
	cards  map[model.ID]model.BettingCard
	closed bool

	metricsUpdateInterval time.Duration
	stopChan              chan struct{}
	stopOnce              sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store and starts its metrics updater,
// which runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		rounds:                make(map[model.ID]model.Round),
		cards:                 make(map[model.ID]model.BettingCard),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	rounds, cards := len(s.rounds), len(s.cards)
	s.mu.RUnlock()
	metrics.UpdateStoreRecords(CollectionRounds, rounds)
	metrics.UpdateStoreRecords(CollectionCards, cards)
}

// Close stops the background updater and refuses further writes. Reads keep
// working. It is safe to call more than once.
func (s *MemoryStore) Close(_ context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
	})
	return nil
}

func observeWrite(start time.Time) {
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func observeRead(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func (s *MemoryStore) SaveRound(_ context.Context, r model.Round) error {
	defer observeWrite(time.Now())
	if r.ID.Empty() {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.rounds[r.ID] = cloneRound(r)
	return nil
}

func (s *MemoryStore) Round(_ context.Context, id model.ID) (model.Round, error) {
	defer observeRead(time.Now())
	s.mu.RLock()
	r, ok := s.rounds[id]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Round{}, ErrNotFound
	}
	return cloneRound(r), nil
}

func (s *MemoryStore) SaveCard(_ context.Context, c model.BettingCard) error {
	defer observeWrite(time.Now())
	if c.ID.Empty() || c.RoundID.Empty() {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.cards[c.ID] = cloneCard(c)
	return nil
}

func (s *MemoryStore) Card(_ context.Context, id model.ID) (model.BettingCard, error) {
	defer observeRead(time.Now())
	s.mu.RLock()
	c, ok := s.cards[id]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.BettingCard{}, ErrNotFound
	}
	return cloneCard(c), nil
}

func (s *MemoryStore) CardsByRound(_ context.Context, roundID model.ID) ([]model.BettingCard, error) {
	defer observeRead(time.Now())
	s.mu.RLock()
	out := make([]model.BettingCard, 0)
	for _, c := range s.cards {
		if c.RoundID == roundID {
			out = append(out, cloneCard(c))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.BettingCard) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{Rounds: len(s.rounds), Cards: len(s.cards)}, nil
}
