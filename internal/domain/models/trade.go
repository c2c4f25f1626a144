package models

import (
	"fmt"
	"time"
)

// TradeStatus is the lifecycle state of a Trade.
// open -> closed | failed; closed and failed are terminal.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "open"
	TradeClosed TradeStatus = "closed"
	TradeFailed TradeStatus = "failed"
)

// Trade records one entry (and optional exit) execution against a venue.
// ExitPrice, Profit and ClosedAt are set together when the trade closes.
type Trade struct {
	ID            string      `json:"id"`
	SignalID      string      `json:"signal_id"`
	Venue         string      `json:"venue"`
	Symbol        string      `json:"symbol"`
	Side          string      `json:"side"`
	EntryPrice    float64     `json:"entry_price"`
	ExitPrice     float64     `json:"exit_price,omitempty"`
	Amount        float64     `json:"amount"`
	Spread        float64     `json:"spread"`
	Profit        float64     `json:"profit,omitempty"`
	CloseAttempts int         `json:"close_attempts"`
	Status        TradeStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	ClosedAt      time.Time   `json:"closed_at,omitzero"`
}

// NewTradeID derives a unique identity from the current time.
func NewTradeID(now time.Time) string {
	return fmt.Sprintf("%d", now.UnixNano())
}

// StatusSnapshot is the periodic heartbeat payload for the notification sink.
type StatusSnapshot struct {
	TotalSignals int64     `json:"total_signals"`
	TotalTrades  int64     `json:"total_trades"`
	OpenTrades   int64     `json:"open_trades"`
	At           time.Time `json:"at"`
}
