package repository

import (
	"ChainPulse/internal/domain/repository"
)

// StoreSet bundles the signal and trade stores built on one backend
// connection and owns that connection's lifetime.
type StoreSet struct {
	Signals repository.SignalStore
	Trades  repository.TradeStore
	closer  func() error
}

// NewStoreSet creates a store bundle. closer may be nil for backends
// without an underlying connection.
func NewStoreSet(signals repository.SignalStore, trades repository.TradeStore, closer func() error) *StoreSet {
	return &StoreSet{Signals: signals, Trades: trades, closer: closer}
}

// Close releases the backend connection shared by both stores.
func (s *StoreSet) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
