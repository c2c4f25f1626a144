package usecase

import (
	"context"
	"sync"

	"ChainPulse/internal/domain/models"
	"ChainPulse/internal/venue"
)

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string)             {}
func (nopMetrics) RecordTrade(string, string)      {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordVenueError(string, string) {}
func (nopMetrics) SetOpenTrades(int64)             {}
func (nopMetrics) RecordLatency(string, float64)   {}

// fakeFeed serves canned pair records per network.
type fakeFeed struct {
	trending map[string][]*models.PairRecord
	newPairs map[string][]*models.PairRecord
	err      error
}

func (f *fakeFeed) TrendingPairs(_ context.Context, network string) ([]*models.PairRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.trending[network], nil
}

func (f *fakeFeed) NewPairs(_ context.Context, network string) ([]*models.PairRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.newPairs[network], nil
}

// fakeNotifier records event names in order and keeps the closed-trade
// payloads it was handed.
type fakeNotifier struct {
	mu     sync.Mutex
	events []string
	closed []*models.Trade
}

func (f *fakeNotifier) record(event string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeNotifier) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeNotifier) SignalCreated(context.Context, *models.Signal) error {
	return f.record("signal_created")
}
func (f *fakeNotifier) SignalFailed(context.Context, *models.Signal) error {
	return f.record("signal_failed")
}
func (f *fakeNotifier) TradeOpened(context.Context, *models.Trade) error {
	return f.record("trade_opened")
}
func (f *fakeNotifier) TradeClosed(_ context.Context, t *models.Trade) error {
	f.mu.Lock()
	cp := *t
	f.closed = append(f.closed, &cp)
	f.mu.Unlock()
	return f.record("trade_closed")
}

func (f *fakeNotifier) Closed() []*models.Trade {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Trade, len(f.closed))
	copy(out, f.closed)
	return out
}
func (f *fakeNotifier) TradeFailed(context.Context, *models.Trade) error {
	return f.record("trade_failed")
}
func (f *fakeNotifier) StatusSnapshot(context.Context, *models.StatusSnapshot) error {
	return f.record("status_snapshot")
}
func (f *fakeNotifier) BotEvent(_ context.Context, event string) error {
	return f.record(event)
}
func (f *fakeNotifier) Close() error { return nil }

type nopJournal struct{}

func (nopJournal) RecordSignal(context.Context, *models.Signal) error { return nil }
func (nopJournal) RecordTrade(context.Context, *models.Trade) error   { return nil }
func (nopJournal) Close() error                                       { return nil }

type placedOrder struct {
	Symbol string
	Side   string
	Amount float64
	Price  float64
}

// fakeGateway serves a fixed orderbook and records placed orders.
type fakeGateway struct {
	name     string
	book     *models.Orderbook
	orderErr error

	mu      sync.Mutex
	orders  []placedOrder
	cancels []string
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) GetBalance(context.Context) (map[string]float64, error) {
	return map[string]float64{}, nil
}

func (g *fakeGateway) GetOrderbook(context.Context, string) *models.Orderbook {
	if g.book == nil {
		return &models.Orderbook{}
	}
	return g.book
}

func (g *fakeGateway) CreateOrder(_ context.Context, symbol, side string, amount, price float64) (*venue.OrderResult, error) {
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	g.mu.Lock()
	g.orders = append(g.orders, placedOrder{Symbol: symbol, Side: side, Amount: amount, Price: price})
	g.mu.Unlock()
	return &venue.OrderResult{OrderID: "order-1", Symbol: symbol, Side: side, Status: "accepted"}, nil
}

func (g *fakeGateway) GetTicker(_ context.Context, symbol string) *venue.Ticker {
	return &venue.Ticker{Symbol: symbol}
}

func (g *fakeGateway) GetOpenOrders(context.Context, string) ([]venue.OpenOrder, error) {
	return nil, nil
}

func (g *fakeGateway) CancelOrder(_ context.Context, orderID, _ string) bool {
	g.mu.Lock()
	g.cancels = append(g.cancels, orderID)
	g.mu.Unlock()
	return true
}

func (g *fakeGateway) Cancels() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.cancels))
	copy(out, g.cancels)
	return out
}

func (g *fakeGateway) Orders() []placedOrder {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]placedOrder, len(g.orders))
	copy(out, g.orders)
	return out
}
