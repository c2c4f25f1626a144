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

const xtBaseURL = "https://sapi.xt.com"

// XT signs the sorted request params with HMAC-SHA256 and sends the hex
// digest as a `signature` param; the API key travels in the X-XT-APIKEY header.
type XT struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *httpkit.Client
	log       *logger.Logger
}

func NewXT(apiKey, apiSecret string, opts ...Option) *XT {
	o := applyOptions(xtBaseURL, opts)
	return &XT{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   o.baseURL,
		client:    httpkit.NewClient(httpkit.WithTimeout(o.timeout)),
		log:       o.log,
	}
}

func (x *XT) Name() string {
	return "xt"
}

func (x *XT) sign(params map[string]string) map[string]string {
	signed := make(map[string]string, len(params)+2)
	for k, v := range params {
		signed[k] = v
	}
	signed["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)
	signed["signature"] = hmacSHA256Hex(x.apiSecret, sortedParamString(signed))
	return signed
}

func (x *XT) request(ctx context.Context, method, endpoint string, params map[string]string, signed bool, dest interface{}) error {
	if signed {
		params = x.sign(params)
	}

	opts := &httpkit.RequestOptions{
		Method: method,
		URL:    x.baseURL + endpoint,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-XT-APIKEY":  x.apiKey,
		},
	}
	switch method {
	case httpkit.MethodGet, httpkit.MethodDelete:
		q := make(map[string][]string, len(params))
		for k, v := range params {
			q[k] = []string{v}
		}
		opts.QueryParams = q
	default:
		opts.Body = params
	}

	return x.client.SendAndParse(ctx, opts, dest)
}

func (x *XT) GetBalance(ctx context.Context) (map[string]float64, error) {
	var resp struct {
		Result struct {
			Assets []struct {
				Currency        string `json:"currency"`
				AvailableAmount string `json:"availableAmount"`
			} `json:"assets"`
		} `json:"result"`
	}
	if err := x.request(ctx, httpkit.MethodGet, "/v4/balances", nil, true, &resp); err != nil {
		return nil, wrapAuth(x.Name(), err)
	}

	balances := make(map[string]float64, len(resp.Result.Assets))
	for _, a := range resp.Result.Assets {
		balances[a.Currency] = util.ParseFloatDefault(a.AvailableAmount, 0)
	}
	return balances, nil
}

func (x *XT) GetOrderbook(ctx context.Context, symbol string) *models.Orderbook {
	var resp struct {
		Result struct {
			Bids [][]interface{} `json:"bids"`
			Asks [][]interface{} `json:"asks"`
		} `json:"result"`
	}
	err := x.request(ctx, httpkit.MethodGet, "/v4/public/depth",
		map[string]string{"symbol": symbol, "limit": "20"}, false, &resp)
	if err != nil {
		x.log.Warn("xt orderbook fetch failed", logger.String("symbol", symbol), logger.Error(err))
		return emptyBook()
	}
	return &models.Orderbook{
		Bids: toLevels(resp.Result.Bids),
		Asks: toLevels(resp.Result.Asks),
	}
}

func (x *XT) CreateOrder(ctx context.Context, symbol, side string, amount, price float64) (*OrderResult, error) {
	params := map[string]string{
		"symbol":   symbol,
		"side":     strings.ToUpper(side),
		"type":     "MARKET",
		"quantity": formatAmount(amount),
	}
	if price > 0 {
		params["type"] = "LIMIT"
		params["price"] = formatAmount(price)
	}

	var resp struct {
		Rc     int    `json:"rc"`
		Mc     string `json:"mc"`
		Result struct {
			OrderID string `json:"orderId"`
		} `json:"result"`
	}
	if err := x.request(ctx, httpkit.MethodPost, "/v4/order", params, true, &resp); err != nil {
		return nil, wrapAuth(x.Name(), err)
	}
	if resp.Rc != 0 {
		return nil, fmt.Errorf("xt order rejected: %d %s", resp.Rc, resp.Mc)
	}

	return &OrderResult{
		OrderID: resp.Result.OrderID,
		Symbol:  symbol,
		Side:    side,
		Status:  "accepted",
	}, nil
}

func (x *XT) GetTicker(ctx context.Context, symbol string) *Ticker {
	var resp struct {
		Result []struct {
			Close interface{} `json:"c"`
		} `json:"result"`
	}
	err := x.request(ctx, httpkit.MethodGet, "/v4/public/ticker/24h",
		map[string]string{"symbol": symbol}, false, &resp)
	if err != nil || len(resp.Result) == 0 {
		return &Ticker{Symbol: symbol}
	}
	return &Ticker{
		Symbol: symbol,
		Last:   toFloat(resp.Result[0].Close),
	}
}

func (x *XT) GetOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	params := map[string]string{}
	if symbol != "" {
		params["symbol"] = symbol
	}

	var resp struct {
		Result []struct {
			OrderID string      `json:"orderId"`
			Symbol  string      `json:"symbol"`
			Side    string      `json:"side"`
			Price   interface{} `json:"price"`
			OrigQty interface{} `json:"origQty"`
		} `json:"result"`
	}
	if err := x.request(ctx, httpkit.MethodGet, "/v4/orders", params, true, &resp); err != nil {
		return nil, wrapAuth(x.Name(), err)
	}

	orders := make([]OpenOrder, 0, len(resp.Result))
	for _, o := range resp.Result {
		orders = append(orders, OpenOrder{
			ID:     o.OrderID,
			Symbol: o.Symbol,
			Side:   strings.ToLower(o.Side),
			Price:  toFloat(o.Price),
			Amount: toFloat(o.OrigQty),
		})
	}
	return orders, nil
}

func (x *XT) CancelOrder(ctx context.Context, orderID, symbol string) bool {
	var resp struct {
		Rc int `json:"rc"`
	}
	err := x.request(ctx, httpkit.MethodDelete, "/v4/order",
		map[string]string{"orderId": orderID}, true, &resp)
	if err != nil {
		x.log.Warn("xt cancel failed", logger.String("order_id", orderID), logger.Error(err))
		return false
	}
	return resp.Rc == 0
}
