package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ChainPulse/internal/domain/models"
)

func TestSignalClaimExactlyOnce(t *testing.T) {
	store := NewMemorySignalStore()
	ctx := context.Background()

	sig := &models.Signal{
		ID:        "sig-1",
		Status:    models.SignalPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Create(ctx, sig); err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 16
	var wins int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			ok, err := store.Transition(ctx, "sig-1", models.SignalPending, models.SignalExecuted)
			if err != nil {
				t.Errorf("transition: %v", err)
				return
			}
			if ok {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winning claim, got %d", wins)
	}
}

func TestSignalTerminalStateIsSticky(t *testing.T) {
	store := NewMemorySignalStore()
	ctx := context.Background()

	sig := &models.Signal{ID: "sig-1", Status: models.SignalPending, CreatedAt: time.Now().UTC()}
	if err := store.Create(ctx, sig); err != nil {
		t.Fatalf("create: %v", err)
	}

	if ok, _ := store.Transition(ctx, "sig-1", models.SignalPending, models.SignalSkipped); !ok {
		t.Fatalf("first transition should win")
	}
	if ok, _ := store.Transition(ctx, "sig-1", models.SignalPending, models.SignalExecuted); ok {
		t.Fatalf("transition out of terminal state must fail")
	}
	if ok, _ := store.Transition(ctx, "sig-1", models.SignalSkipped, models.SignalExecuted); ok {
		t.Fatalf("skipped is terminal")
	}
}

func TestReserveIsFirstComeFirstServed(t *testing.T) {
	store := NewMemorySignalStore()
	ctx := context.Background()

	const workers = 16
	var wins int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			ok, err := store.Reserve(ctx, "ethereum:0xabc", models.NewSignalID(time.Now()))
			if err != nil {
				t.Errorf("reserve: %v", err)
				return
			}
			if ok {
				atomic.AddInt64(&wins, 1)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winning reservation, got %d", wins)
	}
}

func TestIncrementAttemptsGuardedByStatus(t *testing.T) {
	store := NewMemorySignalStore()
	ctx := context.Background()

	sig := &models.Signal{ID: "sig-1", Status: models.SignalPending, CreatedAt: time.Now().UTC()}
	if err := store.Create(ctx, sig); err != nil {
		t.Fatalf("create: %v", err)
	}

	n, err := store.IncrementAttempts(ctx, "sig-1")
	if err != nil || n != 1 {
		t.Fatalf("expected attempts 1, got %d (%v)", n, err)
	}

	if _, err := store.Transition(ctx, "sig-1", models.SignalPending, models.SignalFailed); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := store.IncrementAttempts(ctx, "sig-1"); err == nil {
		t.Fatalf("expected error incrementing a failed signal")
	}
}

func TestCloseTradeSetsExitFieldsTogether(t *testing.T) {
	store := NewMemoryTradeStore()
	ctx := context.Background()

	tr := &models.Trade{
		ID:         "t-1",
		Venue:      "bybit",
		Symbol:     "BTC/USDT",
		Side:       "buy",
		EntryPrice: 100,
		Amount:     2,
		Status:     models.TradeOpen,
		CreatedAt:  time.Now().UTC(),
	}
	if err := store.Create(ctx, tr); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := store.CloseTrade(ctx, "t-1", 103, 6)
	if err != nil || !ok {
		t.Fatalf("close failed: %v", err)
	}

	// second close loses the race
	ok, err = store.CloseTrade(ctx, "t-1", 104, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("closed trade must not close twice")
	}

	open, _ := store.Open(ctx, 10)
	if len(open) != 0 {
		t.Fatalf("expected no open trades")
	}
}

func TestOpenTradesAscendingOrderAndLimit(t *testing.T) {
	store := NewMemoryTradeStore()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		tr := &models.Trade{
			ID:        models.NewTradeID(base.Add(time.Duration(i) * time.Millisecond)),
			Status:    models.TradeOpen,
			CreatedAt: base.Add(time.Duration(4-i) * time.Second),
		}
		if err := store.Create(ctx, tr); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	open, err := store.Open(ctx, 3)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(open) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(open))
	}
	for i := 1; i < len(open); i++ {
		if open[i].CreatedAt.Before(open[i-1].CreatedAt) {
			t.Fatalf("expected ascending creation order")
		}
	}
}
