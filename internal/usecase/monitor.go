package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ChainPulse/internal/domain/models"
	drepo "ChainPulse/internal/domain/repository"
	"ChainPulse/internal/venue"
	"ChainPulse/pkg/logger"
)

const openBatchSize = 50

// MonitorConfig holds the exit evaluation parameters.
type MonitorConfig struct {
	// ExitTargetPct is the profit percentage that triggers a close. It is
	// the same value as the engine's minimum entry spread: a position is
	// taken inside the spread window and unwound once the market has moved
	// by at least that window's lower bound.
	ExitTargetPct    float64
	MaxCloseAttempts int
}

// PositionMonitor re-evaluates open trades against the exit target and
// executes closing orders.
type PositionMonitor struct {
	trades   drepo.TradeStore
	registry *venue.Registry
	notifier drepo.Notifier
	journal  drepo.Journal
	metrics  drepo.Metrics
	log      *logger.Logger
	cfg      MonitorConfig
}

// NewPositionMonitor creates a position monitor.
func NewPositionMonitor(
	trades drepo.TradeStore,
	registry *venue.Registry,
	notifier drepo.Notifier,
	journal drepo.Journal,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg MonitorConfig,
) *PositionMonitor {
	return &PositionMonitor{
		trades:   trades,
		registry: registry,
		notifier: notifier,
		journal:  journal,
		metrics:  metrics,
		log:      log,
		cfg:      cfg,
	}
}

// MonitorTrades runs one exit pass over the open batch.
func (m *PositionMonitor) MonitorTrades(ctx context.Context) error {
	open, err := m.trades.Open(ctx, openBatchSize)
	if err != nil {
		return fmt.Errorf("fetch open trades: %w", err)
	}

	for _, t := range open {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.monitorTrade(ctx, t)
	}

	n, err := m.trades.CountOpen(ctx)
	if err == nil {
		m.metrics.SetOpenTrades(n)
	}
	return nil
}

func (m *PositionMonitor) monitorTrade(ctx context.Context, t *models.Trade) {
	gw, ok := m.registry.Get(t.Venue)
	if !ok {
		// Venue got disabled or was never registered. Leave the trade open,
		// nothing can be done about it this cycle.
		return
	}

	ob := gw.GetOrderbook(ctx, t.Symbol)
	bestBid := ob.BestBid()
	if bestBid <= 0 || t.EntryPrice <= 0 {
		return
	}

	profitPct := (bestBid - t.EntryPrice) / t.EntryPrice * 100
	if profitPct < m.cfg.ExitTargetPct {
		return
	}

	if _, err := gw.CreateOrder(ctx, t.Symbol, "sell", t.Amount, bestBid); err != nil {
		if errors.Is(err, venue.ErrAuthRejected) {
			m.registry.Disable(t.Venue)
			m.metrics.RecordVenueError(t.Venue, "auth")
		} else {
			m.metrics.RecordVenueError(t.Venue, "create_order")
		}
		m.fault(ctx, t, err)
		return
	}

	profit := (bestBid - t.EntryPrice) * t.Amount
	closed, err := m.trades.CloseTrade(ctx, t.ID, bestBid, profit)
	if err != nil {
		m.metrics.RecordError("trade_close")
		m.log.Error("trade close write failed", logger.String("trade_id", t.ID), logger.Error(err))
		return
	}
	if !closed {
		return
	}

	// Exit fields travel together: the notified payload and journal row
	// carry the same closed tuple the store just wrote.
	t.Status = models.TradeClosed
	t.ExitPrice = bestBid
	t.Profit = profit
	t.ClosedAt = time.Now().UTC()

	m.metrics.RecordTrade("closed", t.Venue)
	m.log.Info("trade closed",
		logger.String("trade_id", t.ID),
		logger.String("venue", t.Venue),
		logger.Float64("exit_price", bestBid),
		logger.Float64("profit", profit))

	if err := m.notifier.TradeClosed(ctx, t); err != nil {
		m.metrics.RecordError("notify")
		m.log.Warn("close notification failed", logger.String("trade_id", t.ID), logger.Error(err))
	}
	if err := m.journal.RecordTrade(ctx, t); err != nil {
		m.metrics.RecordError("journal")
		m.log.Warn("close journal write failed", logger.String("trade_id", t.ID), logger.Error(err))
	}
}

// fault records one faulted close attempt and retires the trade after the
// attempt budget is spent.
func (m *PositionMonitor) fault(ctx context.Context, t *models.Trade, cause error) {
	m.log.Warn("close attempt faulted", logger.String("trade_id", t.ID), logger.Error(cause))

	attempts, err := m.trades.IncrementCloseAttempts(ctx, t.ID)
	if err != nil {
		if !errors.Is(err, drepo.ErrNotFound) {
			m.metrics.RecordError("trade_attempts")
			m.log.Error("close counter update failed", logger.String("trade_id", t.ID), logger.Error(err))
		}
		return
	}
	if attempts < m.cfg.MaxCloseAttempts {
		return
	}

	ok, err := m.trades.Transition(ctx, t.ID, models.TradeOpen, models.TradeFailed)
	if err != nil {
		m.metrics.RecordError("trade_transition")
		m.log.Error("trade transition failed", logger.String("trade_id", t.ID), logger.Error(err))
		return
	}
	if !ok {
		return
	}

	t.Status = models.TradeFailed
	t.CloseAttempts = attempts
	m.metrics.RecordTrade("failed", t.Venue)
	m.log.Warn("trade retired after max close attempts",
		logger.String("trade_id", t.ID),
		logger.Int("attempts", attempts))
	if err := m.notifier.TradeFailed(ctx, t); err != nil {
		m.metrics.RecordError("notify")
		m.log.Warn("failure notification failed", logger.String("trade_id", t.ID), logger.Error(err))
	}
}
