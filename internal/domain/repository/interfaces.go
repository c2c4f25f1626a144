package repository

import (
	"context"
	"errors"

	"ChainPulse/internal/domain/models"
)

// ErrNotFound is returned when a record does not exist in the store.
var ErrNotFound = errors.New("record not found")

// SignalStore is the persisted, status-tagged record of signals. It is the
// only synchronization point between the ingestion and trading loops, so
// every status transition is a compare-and-swap.
type SignalStore interface {
	// Reserve atomically claims the dedup identity (chain, token address).
	// Returns false when a signal for the same identity already exists.
	Reserve(ctx context.Context, dedupKey, signalID string) (bool, error)

	// Create persists a new signal. Reserve must have succeeded first.
	Create(ctx context.Context, sig *models.Signal) error

	// Pending returns up to limit pending signals in ascending creation order.
	Pending(ctx context.Context, limit int) ([]*models.Signal, error)

	// Transition performs a conditional status update: it succeeds only if
	// the signal still has status from. A losing claim returns false, nil.
	Transition(ctx context.Context, id string, from, to models.SignalStatus) (bool, error)

	// IncrementAttempts bumps the execution attempt counter while the signal
	// is still pending and returns the new count.
	IncrementAttempts(ctx context.Context, id string) (int, error)

	Count(ctx context.Context) (int64, error)
	Health(ctx context.Context) error
	Close() error
}

// TradeStore is the persisted record of entry/exit executions.
type TradeStore interface {
	Create(ctx context.Context, t *models.Trade) error

	// Open returns up to limit open trades in ascending creation order.
	Open(ctx context.Context, limit int) ([]*models.Trade, error)

	// CloseTrade transitions open -> closed and sets exit price, profit and
	// closed-at together. Returns false when the trade was no longer open.
	CloseTrade(ctx context.Context, id string, exitPrice, profit float64) (bool, error)

	// Transition performs a conditional status update (e.g. open -> failed).
	Transition(ctx context.Context, id string, from, to models.TradeStatus) (bool, error)

	// IncrementCloseAttempts bumps the close attempt counter while the trade
	// is still open and returns the new count.
	IncrementCloseAttempts(ctx context.Context, id string) (int, error)

	Count(ctx context.Context) (int64, error)
	CountOpen(ctx context.Context) (int64, error)
	Health(ctx context.Context) error
	Close() error
}

// MarketFeed supplies normalized pair records from the market-data feed.
type MarketFeed interface {
	// TrendingPairs returns currently trending pairs for one network.
	TrendingPairs(ctx context.Context, network string) ([]*models.PairRecord, error)
	// NewPairs returns recently created pairs for one network.
	NewPairs(ctx context.Context, network string) ([]*models.PairRecord, error)
}

// Notifier is the outbound notification sink. The core emits events as data;
// formatting is the consumer's concern.
type Notifier interface {
	SignalCreated(ctx context.Context, sig *models.Signal) error
	SignalFailed(ctx context.Context, sig *models.Signal) error
	TradeOpened(ctx context.Context, t *models.Trade) error
	TradeClosed(ctx context.Context, t *models.Trade) error
	TradeFailed(ctx context.Context, t *models.Trade) error
	StatusSnapshot(ctx context.Context, s *models.StatusSnapshot) error
	BotEvent(ctx context.Context, event string) error
	Close() error
}

// Journal archives signal and trade history for offline analysis.
// Writes are best-effort; failures must not affect the trading loops.
type Journal interface {
	RecordSignal(ctx context.Context, sig *models.Signal) error
	RecordTrade(ctx context.Context, t *models.Trade) error
	Close() error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordSignal(status string)
	RecordTrade(event, venue string)
	RecordError(kind string)
	RecordVenueError(venue, op string)
	SetOpenTrades(n int64)
	RecordLatency(op string, seconds float64)
}
