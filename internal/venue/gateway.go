package venue

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"ChainPulse/internal/domain/models"
	"ChainPulse/pkg/logger"
	"ChainPulse/pkg/util"
)

// ErrAuthRejected marks a venue response that rejected our credentials.
// Callers should disable the venue in the registry instead of retrying.
var ErrAuthRejected = errors.New("venue rejected credentials")

// OrderResult is the normalized outcome of a create-order call.
type OrderResult struct {
	OrderID string `json:"order_id"`
	Symbol  string `json:"symbol"`
	Side    string `json:"side"`
	Status  string `json:"status"`
}

// Ticker is the normalized 24h ticker of a symbol.
type Ticker struct {
	Symbol string  `json:"symbol"`
	Last   float64 `json:"last"`
}

// OpenOrder is one resting order as reported by a venue.
type OpenOrder struct {
	ID     string  `json:"id"`
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
}

// Gateway is the uniform per-venue trading surface. Market-data reads
// (orderbook, ticker) degrade to empty results on transport or parse
// failures; order placement surfaces errors to the caller.
type Gateway interface {
	Name() string
	GetBalance(ctx context.Context) (map[string]float64, error)
	GetOrderbook(ctx context.Context, symbol string) *models.Orderbook
	// CreateOrder places an order. price <= 0 places a market order.
	CreateOrder(ctx context.Context, symbol, side string, amount, price float64) (*OrderResult, error)
	GetTicker(ctx context.Context, symbol string) *Ticker
	GetOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error)
	CancelOrder(ctx context.Context, orderID, symbol string) bool
}

// CalculateSpread returns the percent gap between best ask and best bid,
// rounded to 4 decimals. Returns 0 when either side is missing or the
// best bid is not positive.
func CalculateSpread(ob *models.Orderbook) float64 {
	if ob == nil {
		return 0
	}
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid <= 0 || ask <= 0 {
		return 0
	}
	return util.Round4((ask - bid) / bid * 100)
}

// Registry holds the venue-name to gateway mapping. The mapping itself is
// built once at startup and never mutated; only the disabled set changes,
// when a venue rejects our credentials.
type Registry struct {
	gateways map[string]Gateway

	mu       sync.RWMutex
	disabled map[string]struct{}

	log *logger.Logger
}

// NewRegistry builds an immutable registry over the given gateways.
func NewRegistry(log *logger.Logger, gateways ...Gateway) *Registry {
	m := make(map[string]Gateway, len(gateways))
	for _, g := range gateways {
		m[g.Name()] = g
	}
	return &Registry{
		gateways: m,
		disabled: make(map[string]struct{}),
		log:      log,
	}
}

// Get returns the gateway for name, or false when it is unknown or disabled.
func (r *Registry) Get(name string) (Gateway, bool) {
	r.mu.RLock()
	_, off := r.disabled[name]
	r.mu.RUnlock()
	if off {
		return nil, false
	}
	g, ok := r.gateways[name]
	return g, ok
}

// Disable removes a venue from rotation until restart.
func (r *Registry) Disable(name string) {
	if _, ok := r.gateways[name]; !ok {
		return
	}
	r.mu.Lock()
	_, already := r.disabled[name]
	r.disabled[name] = struct{}{}
	r.mu.Unlock()
	if !already {
		r.log.Warn("venue disabled", logger.String("venue", name))
	}
}

// Names returns the enabled venue names in stable order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		if _, off := r.disabled[name]; !off {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DisabledNames returns the disabled venue names in stable order.
func (r *Registry) DisabledNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.disabled))
	for name := range r.disabled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// options is shared adapter configuration.
type options struct {
	baseURL string
	timeout time.Duration
	log     *logger.Logger
}

// Option overrides adapter defaults.
type Option func(*options)

// WithBaseURL points the adapter at a different API host.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithTimeout bounds every outbound call.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func applyOptions(baseURL string, opts []Option) *options {
	o := &options{
		baseURL: baseURL,
		timeout: 10 * time.Second,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// toFloat converts the price/size encodings venues actually send,
// strings and JSON numbers, into a float64. Unknown shapes map to 0.
func toFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		return util.ParseFloatDefault(x, 0)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// toLevels converts raw [price, size, ...] rows into best-first book levels.
// Rows with fewer than two entries are dropped.
func toLevels(raw [][]interface{}) []models.BookLevel {
	out := make([]models.BookLevel, 0, len(raw))
	for _, row := range raw {
		if len(row) < 2 {
			continue
		}
		out = append(out, models.BookLevel{
			Price: toFloat(row[0]),
			Size:  toFloat(row[1]),
		})
	}
	return out
}

func emptyBook() *models.Orderbook {
	return &models.Orderbook{Bids: nil, Asks: nil}
}
