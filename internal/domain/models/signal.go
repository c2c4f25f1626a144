package models

import (
	"fmt"
	"time"
)

// SignalStatus is the lifecycle state of a Signal. Transitions are
// forward-only: pending -> notified | executed | skipped | failed.
type SignalStatus string

const (
	SignalPending  SignalStatus = "pending"
	SignalNotified SignalStatus = "notified"
	SignalExecuted SignalStatus = "executed"
	SignalSkipped  SignalStatus = "skipped"
	SignalFailed   SignalStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s SignalStatus) Terminal() bool {
	return s == SignalNotified || s == SignalExecuted || s == SignalSkipped || s == SignalFailed
}

// EventKind classifies the market event a signal was derived from.
type EventKind string

const (
	EventPoolCreation EventKind = "pool_creation"
	EventLargeSwap    EventKind = "large_swap"
	EventLiquidityAdd EventKind = "liquidity_add"
	EventTrending     EventKind = "trending"
)

// Signal is a normalized, persisted candidate trading opportunity.
// Dedup identity is (Blockchain, TokenAddress); ID is time-derived and unique.
type Signal struct {
	ID           string       `json:"id"`
	Blockchain   string       `json:"blockchain"`
	TokenAddress string       `json:"token_address"`
	TokenSymbol  string       `json:"token_symbol"`
	EventKind    EventKind    `json:"event_kind"`
	Price        float64      `json:"price"`
	Liquidity    float64      `json:"liquidity"`
	Volume24h    float64      `json:"volume_24h"`
	Spread       float64      `json:"spread"`
	Attempts     int          `json:"attempts"`
	Status       SignalStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}

// DedupKey returns the identity used to reject duplicate signals.
func (s *Signal) DedupKey() string {
	return fmt.Sprintf("%s:%s", s.Blockchain, s.TokenAddress)
}

// NewSignalID derives a unique identity from the current time.
func NewSignalID(now time.Time) string {
	return fmt.Sprintf("%d", now.UnixNano())
}
