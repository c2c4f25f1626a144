package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"ChainPulse/internal/domain/models"
	"ChainPulse/internal/domain/repository"
)

// MemorySignalStore is the in-memory SignalStore used for tests and single
// process runs without Redis. All compare-and-swap semantics match the
// Redis implementation.
type MemorySignalStore struct {
	mu       sync.Mutex
	signals  map[string]*models.Signal
	reserved map[string]string // dedup key -> signal id
}

// NewMemorySignalStore creates an empty in-memory signal store.
func NewMemorySignalStore() *MemorySignalStore {
	return &MemorySignalStore{
		signals:  make(map[string]*models.Signal),
		reserved: make(map[string]string),
	}
}

func (s *MemorySignalStore) Reserve(_ context.Context, dedupKey, signalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reserved[dedupKey]; exists {
		return false, nil
	}
	s.reserved[dedupKey] = signalID
	return true, nil
}

func (s *MemorySignalStore) Create(_ context.Context, sig *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sig
	s.signals[sig.ID] = &cp
	return nil
}

func (s *MemorySignalStore) Pending(_ context.Context, limit int) ([]*models.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]*models.Signal, 0)
	for _, sig := range s.signals {
		if sig.Status == models.SignalPending {
			cp := *sig
			pending = append(pending, &cp)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *MemorySignalStore) Transition(_ context.Context, id string, from, to models.SignalStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.signals[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if sig.Status != from {
		return false, nil
	}
	sig.Status = to
	return true, nil
}

func (s *MemorySignalStore) IncrementAttempts(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.signals[id]
	if !ok || sig.Status != models.SignalPending {
		return 0, repository.ErrNotFound
	}
	sig.Attempts++
	return sig.Attempts, nil
}

func (s *MemorySignalStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.signals)), nil
}

func (s *MemorySignalStore) Health(_ context.Context) error {
	return nil
}

func (s *MemorySignalStore) Close() error {
	return nil
}

// MemoryTradeStore is the in-memory TradeStore counterpart.
type MemoryTradeStore struct {
	mu     sync.Mutex
	trades map[string]*models.Trade
}

// NewMemoryTradeStore creates an empty in-memory trade store.
func NewMemoryTradeStore() *MemoryTradeStore {
	return &MemoryTradeStore{trades: make(map[string]*models.Trade)}
}

func (s *MemoryTradeStore) Create(_ context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.trades[t.ID] = &cp
	return nil
}

func (s *MemoryTradeStore) Open(_ context.Context, limit int) ([]*models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open := make([]*models.Trade, 0)
	for _, t := range s.trades {
		if t.Status == models.TradeOpen {
			cp := *t
			open = append(open, &cp)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})
	if len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

func (s *MemoryTradeStore) CloseTrade(_ context.Context, id string, exitPrice, profit float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trades[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if t.Status != models.TradeOpen {
		return false, nil
	}
	t.Status = models.TradeClosed
	t.ExitPrice = exitPrice
	t.Profit = profit
	t.ClosedAt = time.Now().UTC()
	return true, nil
}

func (s *MemoryTradeStore) Transition(_ context.Context, id string, from, to models.TradeStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trades[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (s *MemoryTradeStore) IncrementCloseAttempts(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trades[id]
	if !ok || t.Status != models.TradeOpen {
		return 0, repository.ErrNotFound
	}
	t.CloseAttempts++
	return t.CloseAttempts, nil
}

func (s *MemoryTradeStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.trades)), nil
}

func (s *MemoryTradeStore) CountOpen(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.trades {
		if t.Status == models.TradeOpen {
			n++
		}
	}
	return n, nil
}

func (s *MemoryTradeStore) Health(_ context.Context) error {
	return nil
}

func (s *MemoryTradeStore) Close() error {
	return nil
}
