package dexscreener

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ChainPulse/internal/domain/models"
	drepo "ChainPulse/internal/domain/repository"
	httpkit "ChainPulse/pkg/http"
	"ChainPulse/pkg/logger"
	"ChainPulse/pkg/util"
)

const defaultBaseURL = "https://api.dexscreener.com/latest/dex"

// Client implements a MarketFeed backed by the DexScreener REST API.
// DexScreener aggregates all monitored networks behind one endpoint, so no
// per-chain RPC credentials are needed.
type Client struct {
	baseURL string
	client  *httpkit.Client
	log     *logger.Logger
}

// Option overrides client defaults.
type Option func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a DexScreener MarketFeed client.
func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		client:  httpkit.NewClient(httpkit.WithTimeout(timeout)),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ drepo.MarketFeed = (*Client)(nil)

// pairPayload mirrors the DexScreener pair schema. Prices come back as
// strings, liquidity and volume as nested objects, pairCreatedAt as epoch ms.
type pairPayload struct {
	ChainID     string `json:"chainId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD  string `json:"priceUsd"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	PairCreatedAt int64 `json:"pairCreatedAt"` // epoch ms, 0 when unknown
}

type searchResponse struct {
	Pairs []pairPayload `json:"pairs"`
}

func (p *pairPayload) toRecord() *models.PairRecord {
	rec := &models.PairRecord{
		ChainID:        p.ChainID,
		PairAddress:    p.PairAddress,
		TokenAddress:   p.BaseToken.Address,
		TokenSymbol:    p.BaseToken.Symbol,
		PriceUSD:       util.ParseFloatDefault(p.PriceUSD, 0),
		LiquidityUSD:   p.Liquidity.USD,
		Volume24hUSD:   p.Volume.H24,
		PriceChange24h: p.PriceChange.H24,
	}
	if p.PairCreatedAt > 0 {
		rec.PairCreatedAt = time.UnixMilli(p.PairCreatedAt).UTC()
	}
	return rec
}

func (c *Client) search(ctx context.Context, query string) ([]pairPayload, error) {
	var resp searchResponse
	err := c.client.SendAndParse(ctx, &httpkit.RequestOptions{
		Method:      httpkit.MethodGet,
		URL:         c.baseURL + "/search",
		QueryParams: map[string][]string{"q": {query}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("dexscreener search %q: %w", query, err)
	}
	return resp.Pairs, nil
}

// TrendingPairs returns the pairs DexScreener currently surfaces for a
// network, filtered to that chain id.
func (c *Client) TrendingPairs(ctx context.Context, network string) ([]*models.PairRecord, error) {
	pairs, err := c.search(ctx, network)
	if err != nil {
		return nil, err
	}

	records := make([]*models.PairRecord, 0, len(pairs))
	for i := range pairs {
		p := &pairs[i]
		if p.ChainID != "" && p.ChainID != network {
			continue
		}
		records = append(records, p.toRecord())
	}
	return records, nil
}

// NewPairs returns recently created pairs for a network: search results
// that carry a creation timestamp, newest first. Age filtering against the
// configured cutoff is the ingestor's call.
func (c *Client) NewPairs(ctx context.Context, network string) ([]*models.PairRecord, error) {
	pairs, err := c.search(ctx, network)
	if err != nil {
		return nil, err
	}

	records := make([]*models.PairRecord, 0, len(pairs))
	for i := range pairs {
		p := &pairs[i]
		if p.ChainID != "" && p.ChainID != network {
			continue
		}
		if p.PairCreatedAt <= 0 {
			continue
		}
		records = append(records, p.toRecord())
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].PairCreatedAt.After(records[j].PairCreatedAt)
	})
	return records, nil
}

// TokenPairs returns the pairs trading a token, highest liquidity first.
func (c *Client) TokenPairs(ctx context.Context, tokenAddress string) ([]*models.PairRecord, error) {
	var resp searchResponse
	err := c.client.SendAndParse(ctx, &httpkit.RequestOptions{
		Method: httpkit.MethodGet,
		URL:    c.baseURL + "/tokens/" + tokenAddress,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("dexscreener tokens %s: %w", tokenAddress, err)
	}

	records := make([]*models.PairRecord, 0, len(resp.Pairs))
	for i := range resp.Pairs {
		records = append(records, resp.Pairs[i].toRecord())
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LiquidityUSD > records[j].LiquidityUSD
	})
	return records, nil
}

// PairInfo returns one pair by chain and pair address, or nil when unknown.
func (c *Client) PairInfo(ctx context.Context, chain, pairAddress string) (*models.PairRecord, error) {
	var resp searchResponse
	err := c.client.SendAndParse(ctx, &httpkit.RequestOptions{
		Method: httpkit.MethodGet,
		URL:    fmt.Sprintf("%s/pairs/%s/%s", c.baseURL, chain, pairAddress),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("dexscreener pair %s/%s: %w", chain, pairAddress, err)
	}
	if len(resp.Pairs) == 0 {
		return nil, nil
	}
	return resp.Pairs[0].toRecord(), nil
}
