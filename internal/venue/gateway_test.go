package venue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ChainPulse/internal/domain/models"
	"ChainPulse/pkg/logger"
)

func TestCalculateSpread(t *testing.T) {
	ob := &models.Orderbook{
		Bids: []models.BookLevel{{Price: 100, Size: 1}},
		Asks: []models.BookLevel{{Price: 102.5, Size: 1}},
	}
	got := CalculateSpread(ob)
	if got != 2.5 {
		t.Fatalf("expected 2.5, got %v", got)
	}
}

func TestCalculateSpreadRounding(t *testing.T) {
	ob := &models.Orderbook{
		Bids: []models.BookLevel{{Price: 3, Size: 1}},
		Asks: []models.BookLevel{{Price: 3.0001, Size: 1}},
	}
	got := CalculateSpread(ob)
	if got != 0.0033 {
		t.Fatalf("expected 0.0033, got %v", got)
	}
}

func TestCalculateSpreadEmptySide(t *testing.T) {
	cases := []*models.Orderbook{
		nil,
		{},
		{Bids: []models.BookLevel{{Price: 100, Size: 1}}},
		{Asks: []models.BookLevel{{Price: 100, Size: 1}}},
		{
			Bids: []models.BookLevel{{Price: 0, Size: 1}},
			Asks: []models.BookLevel{{Price: 100, Size: 1}},
		},
	}
	for i, ob := range cases {
		if got := CalculateSpread(ob); got != 0 {
			t.Fatalf("case %d: expected 0, got %v", i, got)
		}
	}
}

func TestRegistryDisable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	reg := NewRegistry(logger.Nop(),
		NewBybit("k", "s", WithBaseURL(srv.URL)),
		NewGate("k", "s", WithBaseURL(srv.URL)),
	)

	if _, ok := reg.Get("bybit"); !ok {
		t.Fatalf("expected bybit registered")
	}
	if _, ok := reg.Get("kraken"); ok {
		t.Fatalf("expected unknown venue to miss")
	}

	reg.Disable("bybit")
	if _, ok := reg.Get("bybit"); ok {
		t.Fatalf("expected disabled venue to miss")
	}

	names := reg.Names()
	if len(names) != 1 || names[0] != "gate" {
		t.Fatalf("unexpected enabled names %v", names)
	}
	off := reg.DisabledNames()
	if len(off) != 1 || off[0] != "bybit" {
		t.Fatalf("unexpected disabled names %v", off)
	}
}

func TestOrderbookSoftFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	gateways := []Gateway{
		NewBybit("k", "s", WithBaseURL(srv.URL)),
		NewGate("k", "s", WithBaseURL(srv.URL)),
		NewOKX("k", "s", "p", WithBaseURL(srv.URL)),
		NewBingX("k", "s", WithBaseURL(srv.URL)),
		NewXT("k", "s", WithBaseURL(srv.URL)),
	}
	for _, g := range gateways {
		ob := g.GetOrderbook(context.Background(), "BTCUSDT")
		if ob == nil {
			t.Fatalf("%s: expected non-nil orderbook", g.Name())
		}
		if !ob.Empty() {
			t.Fatalf("%s: expected empty orderbook on failure", g.Name())
		}
	}
}

func TestBybitOrderbookParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v5/market/orderbook" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"result":{"b":[["100.5","2"],["100.4","1"]],"a":[["100.9","3"]]}}`))
	}))
	defer srv.Close()

	b := NewBybit("k", "s", WithBaseURL(srv.URL))
	ob := b.GetOrderbook(context.Background(), "BTCUSDT")
	if ob.BestBid() != 100.5 {
		t.Fatalf("expected best bid 100.5, got %v", ob.BestBid())
	}
	if ob.BestAsk() != 100.9 {
		t.Fatalf("expected best ask 100.9, got %v", ob.BestAsk())
	}
	if len(ob.Bids) != 2 || ob.Bids[1].Size != 1 {
		t.Fatalf("unexpected bids %v", ob.Bids)
	}
}
