package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ChainPulse/internal/domain/models"
	"ChainPulse/internal/repository"
	"ChainPulse/internal/venue"
	"ChainPulse/pkg/logger"
)

func seedTrade(t *testing.T, store *repository.MemoryTradeStore, venueName string, entry, amount float64) *models.Trade {
	t.Helper()
	tr := &models.Trade{
		ID:         models.NewTradeID(time.Now().UTC()),
		SignalID:   "sig-1",
		Venue:      venueName,
		Symbol:     "BTC/USDT",
		Side:       "buy",
		EntryPrice: entry,
		Amount:     amount,
		Spread:     2.5,
		Status:     models.TradeOpen,
		CreatedAt:  time.Now().UTC(),
	}
	if err := store.Create(context.Background(), tr); err != nil {
		t.Fatalf("seed trade: %v", err)
	}
	return tr
}

func newTestMonitor(trades *repository.MemoryTradeStore, gw venue.Gateway, notifier *fakeNotifier) (*PositionMonitor, *venue.Registry) {
	reg := venue.NewRegistry(logger.Nop(), gw)
	mon := NewPositionMonitor(trades, reg, notifier, nopJournal{}, nopMetrics{}, logger.Nop(), MonitorConfig{
		ExitTargetPct:    2.0,
		MaxCloseAttempts: 3,
	})
	return mon, reg
}

func TestTradeHeldBelowExitTarget(t *testing.T) {
	trades := repository.NewMemoryTradeStore()
	// entry 100, best bid 101 => +1%, below the 2% target
	gw := &fakeGateway{name: "fake", book: &models.Orderbook{
		Bids: []models.BookLevel{{Price: 101, Size: 10}},
		Asks: []models.BookLevel{{Price: 101.5, Size: 10}},
	}}
	seedTrade(t, trades, "fake", 100, 1)

	mon, _ := newTestMonitor(trades, gw, &fakeNotifier{})
	if err := mon.MonitorTrades(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gw.Orders()) != 0 {
		t.Fatalf("expected no sell orders below target")
	}
	open, _ := trades.Open(context.Background(), 10)
	if len(open) != 1 {
		t.Fatalf("expected trade still open")
	}
}

func TestTradeClosedAtExitTarget(t *testing.T) {
	trades := repository.NewMemoryTradeStore()
	// entry 100, best bid 103 => +3%, above the 2% target
	gw := &fakeGateway{name: "fake", book: &models.Orderbook{
		Bids: []models.BookLevel{{Price: 103, Size: 10}},
		Asks: []models.BookLevel{{Price: 103.5, Size: 10}},
	}}
	notifier := &fakeNotifier{}
	tr := seedTrade(t, trades, "fake", 100, 2)

	mon, _ := newTestMonitor(trades, gw, notifier)
	if err := mon.MonitorTrades(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orders := gw.Orders()
	if len(orders) != 1 {
		t.Fatalf("expected 1 sell order, got %d", len(orders))
	}
	if orders[0].Side != "sell" || orders[0].Price != 103 || orders[0].Amount != 2 {
		t.Fatalf("unexpected order %+v", orders[0])
	}

	open, _ := trades.Open(context.Background(), 10)
	if len(open) != 0 {
		t.Fatalf("expected no open trades")
	}

	// profit = (103 - 100) * 2 = 6
	ok, _ := trades.Transition(context.Background(), tr.ID, models.TradeClosed, models.TradeFailed)
	if !ok {
		t.Fatalf("expected trade in closed state")
	}

	events := notifier.Events()
	if len(events) != 1 || events[0] != "trade_closed" {
		t.Fatalf("unexpected events %v", events)
	}
}

func TestTradeClosedPayloadCarriesExitTuple(t *testing.T) {
	trades := repository.NewMemoryTradeStore()
	gw := &fakeGateway{name: "fake", book: &models.Orderbook{
		Bids: []models.BookLevel{{Price: 103, Size: 10}},
		Asks: []models.BookLevel{{Price: 103.5, Size: 10}},
	}}
	notifier := &fakeNotifier{}
	seedTrade(t, trades, "fake", 100, 2)

	mon, _ := newTestMonitor(trades, gw, notifier)
	if err := mon.MonitorTrades(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	closed := notifier.Closed()
	if len(closed) != 1 {
		t.Fatalf("expected 1 closed payload, got %d", len(closed))
	}
	payload := closed[0]
	if payload.Status != models.TradeClosed {
		t.Fatalf("expected closed status, got %s", payload.Status)
	}
	if payload.ExitPrice != 103 || payload.Profit != 6 {
		t.Fatalf("unexpected exit fields %+v", payload)
	}
	if payload.ClosedAt.IsZero() {
		t.Fatalf("closed payload must carry a close time alongside exit price and profit")
	}
}

func TestTradeCloseProfitMath(t *testing.T) {
	trades := repository.NewMemoryTradeStore()
	gw := &fakeGateway{name: "fake", book: &models.Orderbook{
		Bids: []models.BookLevel{{Price: 110, Size: 10}},
		Asks: []models.BookLevel{{Price: 111, Size: 10}},
	}}
	seedTrade(t, trades, "fake", 100, 0.5)

	mon, _ := newTestMonitor(trades, gw, &fakeNotifier{})
	if err := mon.MonitorTrades(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// fetch the closed record through a fresh open scan plus direct counters
	n, _ := trades.CountOpen(context.Background())
	if n != 0 {
		t.Fatalf("expected 0 open trades, got %d", n)
	}
	total, _ := trades.Count(context.Background())
	if total != 1 {
		t.Fatalf("expected 1 trade total, got %d", total)
	}
	orders := gw.Orders()
	if len(orders) != 1 || orders[0].Price != 110 || orders[0].Amount != 0.5 {
		t.Fatalf("unexpected order %+v", orders)
	}
}

func TestUnknownVenueLeavesTradeOpen(t *testing.T) {
	trades := repository.NewMemoryTradeStore()
	gw := &fakeGateway{name: "fake", book: &models.Orderbook{
		Bids: []models.BookLevel{{Price: 200, Size: 10}},
		Asks: []models.BookLevel{{Price: 201, Size: 10}},
	}}
	seedTrade(t, trades, "other", 100, 1)

	mon, _ := newTestMonitor(trades, gw, &fakeNotifier{})
	if err := mon.MonitorTrades(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	open, _ := trades.Open(context.Background(), 10)
	if len(open) != 1 {
		t.Fatalf("expected trade to stay open for unknown venue")
	}
	if open[0].CloseAttempts != 0 {
		t.Fatalf("unknown venue must not burn close attempts")
	}
}

func TestTradeFailsAfterMaxCloseAttempts(t *testing.T) {
	trades := repository.NewMemoryTradeStore()
	gw := &fakeGateway{
		name: "fake",
		book: &models.Orderbook{
			Bids: []models.BookLevel{{Price: 103, Size: 10}},
			Asks: []models.BookLevel{{Price: 103.5, Size: 10}},
		},
		orderErr: errors.New("insufficient balance"),
	}
	notifier := &fakeNotifier{}
	tr := seedTrade(t, trades, "fake", 100, 1)

	mon, _ := newTestMonitor(trades, gw, notifier)
	for i := 0; i < 3; i++ {
		if err := mon.MonitorTrades(context.Background()); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}

	open, _ := trades.Open(context.Background(), 10)
	if len(open) != 0 {
		t.Fatalf("expected no open trades after retirement")
	}
	ok, _ := trades.Transition(context.Background(), tr.ID, models.TradeFailed, models.TradeClosed)
	if !ok {
		t.Fatalf("expected trade in failed state")
	}

	events := notifier.Events()
	if len(events) != 1 || events[0] != "trade_failed" {
		t.Fatalf("unexpected events %v", events)
	}
}

func TestHeartbeatSnapshot(t *testing.T) {
	signals := repository.NewMemorySignalStore()
	trades := repository.NewMemoryTradeStore()
	notifier := &fakeNotifier{}

	for i := 0; i < 3; i++ {
		sig := &models.Signal{
			ID:        models.NewSignalID(time.Now().UTC().Add(time.Duration(i))),
			Status:    models.SignalPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := signals.Create(context.Background(), sig); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	seedTrade(t, trades, "fake", 100, 1)

	hb := NewHeartbeat(signals, trades, notifier, nopMetrics{}, logger.Nop())
	snap, err := hb.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.TotalSignals != 3 || snap.TotalTrades != 1 || snap.OpenTrades != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if err := hb.Publish(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := notifier.Events()
	if len(events) != 1 || events[0] != "status_snapshot" {
		t.Fatalf("unexpected events %v", events)
	}
}
