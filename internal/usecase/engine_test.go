package usecase

import (
	"context"
	"testing"
	"time"

	"ChainPulse/internal/domain/models"
	"ChainPulse/internal/repository"
	"ChainPulse/internal/venue"
	"ChainPulse/pkg/logger"
)

func defaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinSpread:    2.0,
		MaxSpread:    3.0,
		MinLiquidity: 10000,
		MinVolume24h: 50000,
		TradeAmount:  100,
		AutoTrading:  true,
		Symbol:       "BTC/USDT",
		MaxAttempts:  3,
		ActiveVenues: []string{"fake"},
	}
}

func seedSignal(t *testing.T, store *repository.MemorySignalStore, liquidity, volume float64) *models.Signal {
	t.Helper()
	sig := &models.Signal{
		ID:           models.NewSignalID(time.Now().UTC()),
		Blockchain:   "ethereum",
		TokenAddress: "0xabc",
		TokenSymbol:  "TKN",
		EventKind:    models.EventTrending,
		Price:        1.5,
		Liquidity:    liquidity,
		Volume24h:    volume,
		Status:       models.SignalPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.Create(context.Background(), sig); err != nil {
		t.Fatalf("seed signal: %v", err)
	}
	return sig
}

// bookWithSpread builds an orderbook whose spread sits at spreadPct.
func bookWithSpread(bid, spreadPct float64) *models.Orderbook {
	ask := bid * (1 + spreadPct/100)
	return &models.Orderbook{
		Bids: []models.BookLevel{{Price: bid, Size: 10}},
		Asks: []models.BookLevel{{Price: ask, Size: 10}},
	}
}

func newTestEngine(
	signals *repository.MemorySignalStore,
	trades *repository.MemoryTradeStore,
	gw venue.Gateway,
	notifier *fakeNotifier,
	cfg EngineConfig,
) (*TradingEngine, *venue.Registry) {
	reg := venue.NewRegistry(logger.Nop(), gw)
	return NewTradingEngine(signals, trades, reg, notifier, nopJournal{}, nopMetrics{}, logger.Nop(), cfg), reg
}

func TestSignalSkippedBelowThresholds(t *testing.T) {
	signals := repository.NewMemorySignalStore()
	trades := repository.NewMemoryTradeStore()
	gw := &fakeGateway{name: "fake", book: bookWithSpread(100, 2.5)}
	sig := seedSignal(t, signals, 5000, 60000)

	eng, _ := newTestEngine(signals, trades, gw, &fakeNotifier{}, defaultEngineConfig())
	if err := eng.ProcessSignals(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, _ := signals.Transition(context.Background(), sig.ID, models.SignalSkipped, models.SignalExecuted)
	if !ok {
		t.Fatalf("expected signal to be in skipped state")
	}
	if len(gw.Orders()) != 0 {
		t.Fatalf("expected no orders, got %v", gw.Orders())
	}
}

func TestSignalNotifiedWhenAutoTradingDisabled(t *testing.T) {
	signals := repository.NewMemorySignalStore()
	trades := repository.NewMemoryTradeStore()
	gw := &fakeGateway{name: "fake", book: bookWithSpread(100, 2.5)}
	sig := seedSignal(t, signals, 100000, 60000)

	cfg := defaultEngineConfig()
	cfg.AutoTrading = false
	eng, _ := newTestEngine(signals, trades, gw, &fakeNotifier{}, cfg)
	if err := eng.ProcessSignals(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, _ := signals.Transition(context.Background(), sig.ID, models.SignalNotified, models.SignalExecuted)
	if !ok {
		t.Fatalf("expected signal to be in notified state")
	}
	if len(gw.Orders()) != 0 {
		t.Fatalf("expected no orders when auto-trading is off")
	}
}

func TestExecuteOpensTrade(t *testing.T) {
	signals := repository.NewMemorySignalStore()
	trades := repository.NewMemoryTradeStore()
	gw := &fakeGateway{name: "fake", book: bookWithSpread(100, 2.5)}
	notifier := &fakeNotifier{}
	sig := seedSignal(t, signals, 100000, 60000)

	eng, _ := newTestEngine(signals, trades, gw, notifier, defaultEngineConfig())
	if err := eng.ProcessSignals(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orders := gw.Orders()
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	bestAsk := gw.book.BestAsk()
	if orders[0].Side != "buy" || orders[0].Price != bestAsk {
		t.Fatalf("unexpected order %+v", orders[0])
	}
	wantAmount := 100.0 / bestAsk
	if orders[0].Amount != wantAmount {
		t.Fatalf("expected amount %v, got %v", wantAmount, orders[0].Amount)
	}

	open, _ := trades.Open(context.Background(), 10)
	if len(open) != 1 {
		t.Fatalf("expected 1 open trade, got %d", len(open))
	}
	tr := open[0]
	if tr.SignalID != sig.ID || tr.Venue != "fake" || tr.EntryPrice != bestAsk {
		t.Fatalf("unexpected trade %+v", tr)
	}
	if tr.Amount != wantAmount || tr.Spread != 2.5 {
		t.Fatalf("unexpected trade sizing %+v", tr)
	}

	ok, _ := signals.Transition(context.Background(), sig.ID, models.SignalExecuted, models.SignalSkipped)
	if !ok {
		t.Fatalf("expected signal to be executed")
	}

	events := notifier.Events()
	if len(events) != 1 || events[0] != "trade_opened" {
		t.Fatalf("unexpected events %v", events)
	}
}

// claimLostStore simulates a sibling worker winning the executed claim
// between the pending read and the transition.
type claimLostStore struct {
	*repository.MemorySignalStore
}

func (s *claimLostStore) Transition(ctx context.Context, id string, from, to models.SignalStatus) (bool, error) {
	if to == models.SignalExecuted {
		return false, nil
	}
	return s.MemorySignalStore.Transition(ctx, id, from, to)
}

func TestLostClaimCancelsDuplicateOrder(t *testing.T) {
	base := repository.NewMemorySignalStore()
	trades := repository.NewMemoryTradeStore()
	gw := &fakeGateway{name: "fake", book: bookWithSpread(100, 2.5)}
	notifier := &fakeNotifier{}
	seedSignal(t, base, 100000, 60000)

	reg := venue.NewRegistry(logger.Nop(), gw)
	eng := NewTradingEngine(&claimLostStore{base}, trades, reg, notifier, nopJournal{}, nopMetrics{}, logger.Nop(), defaultEngineConfig())
	if err := eng.ProcessSignals(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orders := gw.Orders()
	if len(orders) != 1 || orders[0].Side != "buy" {
		t.Fatalf("expected the in-flight buy order, got %v", orders)
	}
	cancels := gw.Cancels()
	if len(cancels) != 1 || cancels[0] != "order-1" {
		t.Fatalf("expected the duplicate order to be cancelled, got %v", cancels)
	}
	n, _ := trades.Count(context.Background())
	if n != 0 {
		t.Fatalf("losing claimant must not record a trade, got %d", n)
	}
	if events := notifier.Events(); len(events) != 0 {
		t.Fatalf("losing claimant must not notify, got %v", events)
	}
}

func TestSpreadOutsideWindowFaultsAttempt(t *testing.T) {
	signals := repository.NewMemorySignalStore()
	trades := repository.NewMemoryTradeStore()
	gw := &fakeGateway{name: "fake", book: bookWithSpread(100, 4.0)} // above max
	sig := seedSignal(t, signals, 100000, 60000)

	eng, _ := newTestEngine(signals, trades, gw, &fakeNotifier{}, defaultEngineConfig())
	if err := eng.ProcessSignals(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gw.Orders()) != 0 {
		t.Fatalf("expected no orders outside spread window")
	}
	// still pending, one attempt burned
	pending, _ := signals.Pending(context.Background(), 10)
	if len(pending) != 1 || pending[0].ID != sig.ID {
		t.Fatalf("expected signal still pending")
	}
	if pending[0].Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", pending[0].Attempts)
	}
}

func TestSignalFailsAfterMaxAttempts(t *testing.T) {
	signals := repository.NewMemorySignalStore()
	trades := repository.NewMemoryTradeStore()
	gw := &fakeGateway{name: "fake", book: bookWithSpread(100, 4.0)}
	notifier := &fakeNotifier{}
	sig := seedSignal(t, signals, 100000, 60000)

	cfg := defaultEngineConfig()
	cfg.MaxAttempts = 3
	eng, _ := newTestEngine(signals, trades, gw, notifier, cfg)

	for i := 0; i < 3; i++ {
		if err := eng.ProcessSignals(context.Background()); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}

	pending, _ := signals.Pending(context.Background(), 10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending signals, got %d", len(pending))
	}
	ok, _ := signals.Transition(context.Background(), sig.ID, models.SignalFailed, models.SignalSkipped)
	if !ok {
		t.Fatalf("expected signal in failed state")
	}

	events := notifier.Events()
	if len(events) != 1 || events[0] != "signal_failed" {
		t.Fatalf("unexpected events %v", events)
	}
}

func TestAuthRejectionDisablesVenue(t *testing.T) {
	signals := repository.NewMemorySignalStore()
	trades := repository.NewMemoryTradeStore()
	gw := &fakeGateway{
		name:     "fake",
		book:     bookWithSpread(100, 2.5),
		orderErr: venue.ErrAuthRejected,
	}
	seedSignal(t, signals, 100000, 60000)

	eng, reg := newTestEngine(signals, trades, gw, &fakeNotifier{}, defaultEngineConfig())
	if err := eng.ProcessSignals(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := reg.Get("fake"); ok {
		t.Fatalf("expected venue to be disabled after auth rejection")
	}
	open, _ := trades.Open(context.Background(), 10)
	if len(open) != 0 {
		t.Fatalf("expected no trades")
	}
}

func TestPendingBatchOrderIsDeterministic(t *testing.T) {
	signals := repository.NewMemorySignalStore()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		sig := &models.Signal{
			ID:           models.NewSignalID(base.Add(time.Duration(i) * time.Second)),
			Blockchain:   "ethereum",
			TokenAddress: "0x" + string(rune('a'+i)),
			Status:       models.SignalPending,
			CreatedAt:    base.Add(time.Duration(2-i) * time.Second),
		}
		if err := signals.Create(ctx, sig); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	pending, err := signals.Pending(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(pending); i++ {
		if pending[i].CreatedAt.Before(pending[i-1].CreatedAt) {
			t.Fatalf("expected ascending creation order")
		}
	}
}
