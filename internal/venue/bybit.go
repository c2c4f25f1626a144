package venue

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ChainPulse/internal/domain/models"
	httpkit "ChainPulse/pkg/http"
	"ChainPulse/pkg/logger"
	"ChainPulse/pkg/util"
)

const bybitBaseURL = "https://api.bybit.com"

// Bybit signs the sorted request params with HMAC-SHA256 and sends the hex
// digest as a `sign` field alongside api_key and timestamp.
type Bybit struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *httpkit.Client
	log       *logger.Logger
}

func NewBybit(apiKey, apiSecret string, opts ...Option) *Bybit {
	o := applyOptions(bybitBaseURL, opts)
	return &Bybit{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   o.baseURL,
		client:    httpkit.NewClient(httpkit.WithTimeout(o.timeout)),
		log:       o.log,
	}
}

func (b *Bybit) Name() string {
	return "bybit"
}

func (b *Bybit) sign(params map[string]string) map[string]string {
	signed := make(map[string]string, len(params)+3)
	for k, v := range params {
		signed[k] = v
	}
	signed["api_key"] = b.apiKey
	signed["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)
	signed["sign"] = hmacSHA256Hex(b.apiSecret, sortedParamString(signed))
	return signed
}

func (b *Bybit) request(ctx context.Context, method, endpoint string, params map[string]string, signed bool, dest interface{}) error {
	if signed {
		params = b.sign(params)
	}

	opts := &httpkit.RequestOptions{
		Method:  method,
		URL:     b.baseURL + endpoint,
		Headers: map[string]string{"Content-Type": "application/json"},
	}
	if method == httpkit.MethodGet {
		q := make(map[string][]string, len(params))
		for k, v := range params {
			q[k] = []string{v}
		}
		opts.QueryParams = q
	} else {
		opts.Body = params
	}

	return b.client.SendAndParse(ctx, opts, dest)
}

func (b *Bybit) GetBalance(ctx context.Context) (map[string]float64, error) {
	var resp struct {
		Result struct {
			List []struct {
				Coin []struct {
					Coin          string `json:"coin"`
					WalletBalance string `json:"walletBalance"`
				} `json:"coin"`
			} `json:"list"`
		} `json:"result"`
	}
	err := b.request(ctx, httpkit.MethodGet, "/v5/account/wallet-balance",
		map[string]string{"accountType": "UNIFIED"}, true, &resp)
	if err != nil {
		return nil, wrapAuth(b.Name(), err)
	}

	balances := make(map[string]float64)
	for _, acct := range resp.Result.List {
		for _, c := range acct.Coin {
			balances[c.Coin] = util.ParseFloatDefault(c.WalletBalance, 0)
		}
	}
	return balances, nil
}

func (b *Bybit) GetOrderbook(ctx context.Context, symbol string) *models.Orderbook {
	var resp struct {
		Result struct {
			Bids [][]interface{} `json:"b"`
			Asks [][]interface{} `json:"a"`
		} `json:"result"`
	}
	err := b.request(ctx, httpkit.MethodGet, "/v5/market/orderbook",
		map[string]string{"category": "spot", "symbol": symbol}, false, &resp)
	if err != nil {
		b.log.Warn("bybit orderbook fetch failed", logger.String("symbol", symbol), logger.Error(err))
		return emptyBook()
	}
	return &models.Orderbook{
		Bids: toLevels(resp.Result.Bids),
		Asks: toLevels(resp.Result.Asks),
	}
}

func (b *Bybit) CreateOrder(ctx context.Context, symbol, side string, amount, price float64) (*OrderResult, error) {
	params := map[string]string{
		"category":  "spot",
		"symbol":    symbol,
		"side":      capitalize(side),
		"orderType": "Market",
		"qty":       formatAmount(amount),
	}
	if price > 0 {
		params["orderType"] = "Limit"
		params["price"] = formatAmount(price)
	}

	var resp struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			OrderID string `json:"orderId"`
		} `json:"result"`
	}
	err := b.request(ctx, httpkit.MethodPost, "/v5/order/create", params, true, &resp)
	if err != nil {
		return nil, wrapAuth(b.Name(), err)
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("bybit order rejected: %d %s", resp.RetCode, resp.RetMsg)
	}

	return &OrderResult{
		OrderID: resp.Result.OrderID,
		Symbol:  symbol,
		Side:    side,
		Status:  "accepted",
	}, nil
}

func (b *Bybit) GetTicker(ctx context.Context, symbol string) *Ticker {
	var resp struct {
		Result struct {
			List []struct {
				LastPrice string `json:"lastPrice"`
			} `json:"list"`
		} `json:"result"`
	}
	err := b.request(ctx, httpkit.MethodGet, "/v5/market/tickers",
		map[string]string{"category": "spot", "symbol": symbol}, false, &resp)
	if err != nil || len(resp.Result.List) == 0 {
		return &Ticker{Symbol: symbol}
	}
	return &Ticker{
		Symbol: symbol,
		Last:   util.ParseFloatDefault(resp.Result.List[0].LastPrice, 0),
	}
}

func (b *Bybit) GetOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	params := map[string]string{"category": "spot"}
	if symbol != "" {
		params["symbol"] = symbol
	}

	var resp struct {
		Result struct {
			List []struct {
				OrderID string `json:"orderId"`
				Symbol  string `json:"symbol"`
				Side    string `json:"side"`
				Price   string `json:"price"`
				Qty     string `json:"qty"`
			} `json:"list"`
		} `json:"result"`
	}
	err := b.request(ctx, httpkit.MethodGet, "/v5/order/realtime", params, true, &resp)
	if err != nil {
		return nil, wrapAuth(b.Name(), err)
	}

	orders := make([]OpenOrder, 0, len(resp.Result.List))
	for _, o := range resp.Result.List {
		orders = append(orders, OpenOrder{
			ID:     o.OrderID,
			Symbol: o.Symbol,
			Side:   strings.ToLower(o.Side),
			Price:  util.ParseFloatDefault(o.Price, 0),
			Amount: util.ParseFloatDefault(o.Qty, 0),
		})
	}
	return orders, nil
}

func (b *Bybit) CancelOrder(ctx context.Context, orderID, symbol string) bool {
	var resp struct {
		RetCode int `json:"retCode"`
	}
	err := b.request(ctx, httpkit.MethodPost, "/v5/order/cancel",
		map[string]string{"category": "spot", "symbol": symbol, "orderId": orderID}, true, &resp)
	if err != nil {
		b.log.Warn("bybit cancel failed", logger.String("order_id", orderID), logger.Error(err))
		return false
	}
	return resp.RetCode == 0
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
