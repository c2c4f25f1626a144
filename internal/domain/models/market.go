package models

import "time"

// PairRecord is a normalized feed record for one trading pair.
// Numeric fields default to zero when the upstream payload is malformed.
type PairRecord struct {
	ChainID        string
	PairAddress    string
	TokenAddress   string
	TokenSymbol    string
	PriceUSD       float64
	LiquidityUSD   float64
	Volume24hUSD   float64
	PriceChange24h float64
	PairCreatedAt  time.Time // zero when the feed did not report a creation time
}

// Age returns the time elapsed since pair creation, or a negative duration
// when the creation time is unknown.
func (p *PairRecord) Age(now time.Time) time.Duration {
	if p.PairCreatedAt.IsZero() {
		return -1
	}
	return now.Sub(p.PairCreatedAt)
}

// BookLevel is one (price, size) entry of an orderbook side.
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// Orderbook holds best-first bid/ask levels for a symbol.
// Bids descend, asks ascend. Transient: never persisted.
type Orderbook struct {
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
}

// BestBid returns the highest bid price, 0 when the side is empty.
func (o *Orderbook) BestBid() float64 {
	if len(o.Bids) == 0 {
		return 0
	}
	return o.Bids[0].Price
}

// BestAsk returns the lowest ask price, 0 when the side is empty.
func (o *Orderbook) BestAsk() float64 {
	if len(o.Asks) == 0 {
		return 0
	}
	return o.Asks[0].Price
}

// Empty reports whether either side has no levels.
func (o *Orderbook) Empty() bool {
	return len(o.Bids) == 0 || len(o.Asks) == 0
}
