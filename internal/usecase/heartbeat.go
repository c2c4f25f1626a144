package usecase

import (
	"context"
	"fmt"
	"time"

	"ChainPulse/internal/domain/models"
	drepo "ChainPulse/internal/domain/repository"
	"ChainPulse/pkg/logger"
)

// Heartbeat periodically publishes a status snapshot with the store totals.
type Heartbeat struct {
	signals  drepo.SignalStore
	trades   drepo.TradeStore
	notifier drepo.Notifier
	metrics  drepo.Metrics
	log      *logger.Logger
}

// NewHeartbeat creates a heartbeat publisher.
func NewHeartbeat(
	signals drepo.SignalStore,
	trades drepo.TradeStore,
	notifier drepo.Notifier,
	metrics drepo.Metrics,
	log *logger.Logger,
) *Heartbeat {
	return &Heartbeat{
		signals:  signals,
		trades:   trades,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
	}
}

// Snapshot gathers the current totals.
func (h *Heartbeat) Snapshot(ctx context.Context) (*models.StatusSnapshot, error) {
	totalSignals, err := h.signals.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count signals: %w", err)
	}
	totalTrades, err := h.trades.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count trades: %w", err)
	}
	openTrades, err := h.trades.CountOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("count open trades: %w", err)
	}

	return &models.StatusSnapshot{
		TotalSignals: totalSignals,
		TotalTrades:  totalTrades,
		OpenTrades:   openTrades,
		At:           time.Now().UTC(),
	}, nil
}

// Publish sends one status snapshot to the notification sink.
func (h *Heartbeat) Publish(ctx context.Context) error {
	snap, err := h.Snapshot(ctx)
	if err != nil {
		return err
	}
	h.metrics.SetOpenTrades(snap.OpenTrades)

	if err := h.notifier.StatusSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	h.log.Info("status snapshot published",
		logger.Int64("total_signals", snap.TotalSignals),
		logger.Int64("total_trades", snap.TotalTrades),
		logger.Int64("open_trades", snap.OpenTrades))
	return nil
}
