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

const bingxBaseURL = "https://open-api.bingx.com"

// BingX signs the sorted query string with HMAC-SHA256 and appends the hex
// digest as a `signature` param; the API key travels in the X-BX-APIKEY header.
type BingX struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *httpkit.Client
	log       *logger.Logger
}

func NewBingX(apiKey, apiSecret string, opts ...Option) *BingX {
	o := applyOptions(bingxBaseURL, opts)
	return &BingX{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   o.baseURL,
		client:    httpkit.NewClient(httpkit.WithTimeout(o.timeout)),
		log:       o.log,
	}
}

func (b *BingX) Name() string {
	return "bingx"
}

func (b *BingX) sign(params map[string]string) map[string]string {
	signed := make(map[string]string, len(params)+2)
	for k, v := range params {
		signed[k] = v
	}
	signed["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)
	signed["signature"] = hmacSHA256Hex(b.apiSecret, sortedParamString(signed))
	return signed
}

func (b *BingX) request(ctx context.Context, method, endpoint string, params map[string]string, signed bool, dest interface{}) error {
	if signed {
		params = b.sign(params)
	}

	opts := &httpkit.RequestOptions{
		Method:  method,
		URL:     b.baseURL + endpoint,
		Headers: map[string]string{"X-BX-APIKEY": b.apiKey},
	}
	if method == httpkit.MethodGet {
		q := make(map[string][]string, len(params))
		for k, v := range params {
			q[k] = []string{v}
		}
		opts.QueryParams = q
	} else {
		opts.Headers["Content-Type"] = "application/json"
		opts.Body = params
	}

	return b.client.SendAndParse(ctx, opts, dest)
}

func (b *BingX) GetBalance(ctx context.Context) (map[string]float64, error) {
	var resp struct {
		Data struct {
			Balances []struct {
				Asset string `json:"asset"`
				Free  string `json:"free"`
			} `json:"balances"`
		} `json:"data"`
	}
	err := b.request(ctx, httpkit.MethodGet, "/openApi/spot/v1/account/balance", nil, true, &resp)
	if err != nil {
		return nil, wrapAuth(b.Name(), err)
	}

	balances := make(map[string]float64, len(resp.Data.Balances))
	for _, bal := range resp.Data.Balances {
		balances[bal.Asset] = util.ParseFloatDefault(bal.Free, 0)
	}
	return balances, nil
}

func (b *BingX) GetOrderbook(ctx context.Context, symbol string) *models.Orderbook {
	var resp struct {
		Data struct {
			Bids [][]interface{} `json:"bids"`
			Asks [][]interface{} `json:"asks"`
		} `json:"data"`
	}
	err := b.request(ctx, httpkit.MethodGet, "/openApi/spot/v1/market/depth",
		map[string]string{"symbol": symbol, "limit": "20"}, false, &resp)
	if err != nil {
		b.log.Warn("bingx orderbook fetch failed", logger.String("symbol", symbol), logger.Error(err))
		return emptyBook()
	}
	return &models.Orderbook{
		Bids: toLevels(resp.Data.Bids),
		Asks: toLevels(resp.Data.Asks),
	}
}

func (b *BingX) CreateOrder(ctx context.Context, symbol, side string, amount, price float64) (*OrderResult, error) {
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
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			OrderID int64  `json:"orderId"`
			Status  string `json:"status"`
		} `json:"data"`
	}
	if err := b.request(ctx, httpkit.MethodPost, "/openApi/spot/v1/trade/order", params, true, &resp); err != nil {
		return nil, wrapAuth(b.Name(), err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("bingx order rejected: %d %s", resp.Code, resp.Msg)
	}

	return &OrderResult{
		OrderID: strconv.FormatInt(resp.Data.OrderID, 10),
		Symbol:  symbol,
		Side:    side,
		Status:  resp.Data.Status,
	}, nil
}

func (b *BingX) GetTicker(ctx context.Context, symbol string) *Ticker {
	var resp struct {
		Data struct {
			LastPrice interface{} `json:"lastPrice"`
		} `json:"data"`
	}
	err := b.request(ctx, httpkit.MethodGet, "/openApi/spot/v1/ticker/24hr",
		map[string]string{"symbol": symbol}, false, &resp)
	if err != nil {
		return &Ticker{Symbol: symbol}
	}
	return &Ticker{
		Symbol: symbol,
		Last:   toFloat(resp.Data.LastPrice),
	}
}

func (b *BingX) GetOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	params := map[string]string{}
	if symbol != "" {
		params["symbol"] = symbol
	}

	var resp struct {
		Data struct {
			Orders []struct {
				OrderID int64       `json:"orderId"`
				Symbol  string      `json:"symbol"`
				Side    string      `json:"side"`
				Price   interface{} `json:"price"`
				OrigQty interface{} `json:"origQty"`
			} `json:"orders"`
		} `json:"data"`
	}
	if err := b.request(ctx, httpkit.MethodGet, "/openApi/spot/v1/trade/openOrders", params, true, &resp); err != nil {
		return nil, wrapAuth(b.Name(), err)
	}

	orders := make([]OpenOrder, 0, len(resp.Data.Orders))
	for _, o := range resp.Data.Orders {
		orders = append(orders, OpenOrder{
			ID:     strconv.FormatInt(o.OrderID, 10),
			Symbol: o.Symbol,
			Side:   strings.ToLower(o.Side),
			Price:  toFloat(o.Price),
			Amount: toFloat(o.OrigQty),
		})
	}
	return orders, nil
}

func (b *BingX) CancelOrder(ctx context.Context, orderID, symbol string) bool {
	var resp struct {
		Code int `json:"code"`
	}
	err := b.request(ctx, httpkit.MethodPost, "/openApi/spot/v1/trade/cancel",
		map[string]string{"symbol": symbol, "orderId": orderID}, true, &resp)
	if err != nil {
		b.log.Warn("bingx cancel failed", logger.String("order_id", orderID), logger.Error(err))
		return false
	}
	return resp.Code == 0
}
