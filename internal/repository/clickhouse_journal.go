package repository

import (
	"context"
	"database/sql"

	"ChainPulse/internal/domain/models"
	"ChainPulse/internal/domain/repository"
)

// JournalSchema holds the idempotent DDL for the history tables.
var JournalSchema = []string{
	`CREATE TABLE IF NOT EXISTS signals_history (
		id            String,
		blockchain    String,
		token_address String,
		token_symbol  String,
		event_kind    String,
		price         Float64,
		liquidity     Float64,
		volume_24h    Float64,
		spread        Float64,
		status        String,
		created_at    DateTime64(9)
	) ENGINE = MergeTree()
	ORDER BY (created_at, id)`,
	`CREATE TABLE IF NOT EXISTS trades_history (
		id          String,
		signal_id   String,
		venue       String,
		symbol      String,
		side        String,
		entry_price Float64,
		exit_price  Float64,
		amount      Float64,
		spread      Float64,
		profit      Float64,
		status      String,
		created_at  DateTime64(9),
		closed_at   Nullable(DateTime64(9)),
		recorded_at DateTime64(9) DEFAULT now64(9)
	) ENGINE = MergeTree()
	ORDER BY (created_at, id)`,
}

// ClickHouseJournal implements Journal on ClickHouse. Appends are
// best-effort; callers log and move on when a write fails.
type ClickHouseJournal struct {
	db *sql.DB
}

// NewClickHouseJournal creates a ClickHouse-backed history journal.
func NewClickHouseJournal(db *sql.DB) repository.Journal {
	return &ClickHouseJournal{db: db}
}

func (j *ClickHouseJournal) RecordSignal(ctx context.Context, sig *models.Signal) error {
	const q = `INSERT INTO signals_history
		(id, blockchain, token_address, token_symbol, event_kind, price, liquidity, volume_24h, spread, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := j.db.ExecContext(ctx, q,
		sig.ID,
		sig.Blockchain,
		sig.TokenAddress,
		sig.TokenSymbol,
		string(sig.EventKind),
		sig.Price,
		sig.Liquidity,
		sig.Volume24h,
		sig.Spread,
		string(sig.Status),
		sig.CreatedAt,
	)
	return err
}

func (j *ClickHouseJournal) RecordTrade(ctx context.Context, t *models.Trade) error {
	const q = `INSERT INTO trades_history
		(id, signal_id, venue, symbol, side, entry_price, exit_price, amount, spread, profit, status, created_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var closedAt interface{}
	if !t.ClosedAt.IsZero() {
		closedAt = t.ClosedAt
	}
	_, err := j.db.ExecContext(ctx, q,
		t.ID,
		t.SignalID,
		t.Venue,
		t.Symbol,
		t.Side,
		t.EntryPrice,
		t.ExitPrice,
		t.Amount,
		t.Spread,
		t.Profit,
		string(t.Status),
		t.CreatedAt,
		closedAt,
	)
	return err
}

func (j *ClickHouseJournal) Close() error {
	return j.db.Close()
}

// NopJournal discards every record. Used when the journal is disabled.
type NopJournal struct{}

func (NopJournal) RecordSignal(context.Context, *models.Signal) error { return nil }
func (NopJournal) RecordTrade(context.Context, *models.Trade) error   { return nil }
func (NopJournal) Close() error                                       { return nil }
