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

const pendingBatchSize = 10

// EngineConfig holds the trading decision parameters.
type EngineConfig struct {
	MinSpread    float64
	MaxSpread    float64
	MinLiquidity float64
	MinVolume24h float64
	TradeAmount  float64
	AutoTrading  bool
	Symbol       string
	MaxAttempts  int
	ActiveVenues []string
}

// TradingEngine claims pending signals, evaluates trade criteria and
// executes entry orders. Every status move is a compare-and-swap against
// the store, so concurrent engines never double-process a signal.
type TradingEngine struct {
	signals  drepo.SignalStore
	trades   drepo.TradeStore
	registry *venue.Registry
	notifier drepo.Notifier
	journal  drepo.Journal
	metrics  drepo.Metrics
	log      *logger.Logger
	cfg      EngineConfig
}

// NewTradingEngine creates a trading engine.
func NewTradingEngine(
	signals drepo.SignalStore,
	trades drepo.TradeStore,
	registry *venue.Registry,
	notifier drepo.Notifier,
	journal drepo.Journal,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg EngineConfig,
) *TradingEngine {
	return &TradingEngine{
		signals:  signals,
		trades:   trades,
		registry: registry,
		notifier: notifier,
		journal:  journal,
		metrics:  metrics,
		log:      log,
		cfg:      cfg,
	}
}

// ProcessSignals runs one decision pass over the pending batch.
func (e *TradingEngine) ProcessSignals(ctx context.Context) error {
	pending, err := e.signals.Pending(ctx, pendingBatchSize)
	if err != nil {
		return fmt.Errorf("fetch pending: %w", err)
	}

	for _, sig := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.processSignal(ctx, sig)
	}
	return nil
}

func (e *TradingEngine) processSignal(ctx context.Context, sig *models.Signal) {
	if !e.shouldTrade(sig) {
		e.transition(ctx, sig, models.SignalSkipped)
		return
	}

	if !e.cfg.AutoTrading {
		if e.transition(ctx, sig, models.SignalNotified) {
			e.log.Info("signal surfaced, auto-trading disabled", logger.String("id", sig.ID))
		}
		return
	}

	e.executeTrade(ctx, sig)
}

// shouldTrade applies the trading thresholds, which are independent of the
// ingestion floors.
func (e *TradingEngine) shouldTrade(sig *models.Signal) bool {
	return sig.Liquidity >= e.cfg.MinLiquidity && sig.Volume24h >= e.cfg.MinVolume24h
}

// executeTrade attempts an entry order for a claimed-tradeable signal. Any
// faulted attempt bumps the signal's attempt counter; the counter reaching
// the limit moves the signal to failed for good.
func (e *TradingEngine) executeTrade(ctx context.Context, sig *models.Signal) {
	name, gw := e.selectVenue()
	if gw == nil {
		e.fault(ctx, sig, "no venue available")
		return
	}

	ob := gw.GetOrderbook(ctx, e.cfg.Symbol)
	spread := venue.CalculateSpread(ob)
	if spread < e.cfg.MinSpread || spread > e.cfg.MaxSpread {
		e.fault(ctx, sig, fmt.Sprintf("spread %.4f%% outside %.2f-%.2f%%", spread, e.cfg.MinSpread, e.cfg.MaxSpread))
		return
	}

	bestAsk := ob.BestAsk()
	if bestAsk <= 0 {
		e.fault(ctx, sig, "no ask side")
		return
	}
	amount := e.cfg.TradeAmount / bestAsk

	order, err := gw.CreateOrder(ctx, e.cfg.Symbol, "buy", amount, bestAsk)
	if err != nil {
		if errors.Is(err, venue.ErrAuthRejected) {
			e.registry.Disable(name)
			e.metrics.RecordVenueError(name, "auth")
		} else {
			e.metrics.RecordVenueError(name, "create_order")
		}
		e.fault(ctx, sig, err.Error())
		return
	}

	if !e.transition(ctx, sig, models.SignalExecuted) {
		// Another worker claimed the signal while the order was in flight.
		// Back out the duplicate order instead of recording a second trade.
		e.log.Warn("signal claimed elsewhere after order placement",
			logger.String("id", sig.ID),
			logger.String("order_id", order.OrderID))
		if !gw.CancelOrder(ctx, order.OrderID, e.cfg.Symbol) {
			e.metrics.RecordVenueError(name, "cancel_order")
			e.log.Error("duplicate order cancel failed",
				logger.String("id", sig.ID),
				logger.String("order_id", order.OrderID))
		}
		return
	}

	now := time.Now().UTC()
	trade := &models.Trade{
		ID:         models.NewTradeID(now),
		SignalID:   sig.ID,
		Venue:      name,
		Symbol:     e.cfg.Symbol,
		Side:       "buy",
		EntryPrice: bestAsk,
		Amount:     amount,
		Spread:     spread,
		Status:     models.TradeOpen,
		CreatedAt:  now,
	}
	if err := e.trades.Create(ctx, trade); err != nil {
		e.metrics.RecordError("trade_create")
		e.log.Error("trade record write failed",
			logger.String("trade_id", trade.ID),
			logger.String("order_id", order.OrderID),
			logger.Error(err))
		return
	}

	e.metrics.RecordTrade("opened", name)
	e.log.Info("trade opened",
		logger.String("trade_id", trade.ID),
		logger.String("venue", name),
		logger.String("symbol", trade.Symbol),
		logger.Float64("entry_price", trade.EntryPrice),
		logger.Float64("amount", trade.Amount))

	if err := e.notifier.TradeOpened(ctx, trade); err != nil {
		e.metrics.RecordError("notify")
		e.log.Warn("trade notification failed", logger.String("trade_id", trade.ID), logger.Error(err))
	}
	if err := e.journal.RecordTrade(ctx, trade); err != nil {
		e.metrics.RecordError("journal")
		e.log.Warn("trade journal write failed", logger.String("trade_id", trade.ID), logger.Error(err))
	}
}

// selectVenue returns the first configured venue still in rotation.
func (e *TradingEngine) selectVenue() (string, venue.Gateway) {
	for _, name := range e.cfg.ActiveVenues {
		if gw, ok := e.registry.Get(name); ok {
			return name, gw
		}
	}
	return "", nil
}

// transition claims a pending signal into its next status. Returns false
// when another worker got there first.
func (e *TradingEngine) transition(ctx context.Context, sig *models.Signal, to models.SignalStatus) bool {
	ok, err := e.signals.Transition(ctx, sig.ID, models.SignalPending, to)
	if err != nil {
		e.metrics.RecordError("signal_transition")
		e.log.Error("signal transition failed",
			logger.String("id", sig.ID),
			logger.String("to", string(to)),
			logger.Error(err))
		return false
	}
	if ok {
		e.metrics.RecordSignal(string(to))
	}
	return ok
}

// fault records one faulted execution attempt and retires the signal after
// the attempt budget is spent.
func (e *TradingEngine) fault(ctx context.Context, sig *models.Signal, reason string) {
	e.log.Warn("execution attempt faulted", logger.String("id", sig.ID), logger.String("reason", reason))

	attempts, err := e.signals.IncrementAttempts(ctx, sig.ID)
	if err != nil {
		if !errors.Is(err, drepo.ErrNotFound) {
			e.metrics.RecordError("signal_attempts")
			e.log.Error("attempt counter update failed", logger.String("id", sig.ID), logger.Error(err))
		}
		return
	}
	if attempts < e.cfg.MaxAttempts {
		return
	}

	if !e.transition(ctx, sig, models.SignalFailed) {
		return
	}
	sig.Attempts = attempts
	sig.Status = models.SignalFailed
	e.log.Warn("signal retired after max attempts",
		logger.String("id", sig.ID),
		logger.Int("attempts", attempts))
	if err := e.notifier.SignalFailed(ctx, sig); err != nil {
		e.metrics.RecordError("notify")
		e.log.Warn("failure notification failed", logger.String("id", sig.ID), logger.Error(err))
	}
}
