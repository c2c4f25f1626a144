package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ChainPulse/internal/domain/models"
	httpkit "ChainPulse/pkg/http"
	"ChainPulse/pkg/logger"
	"ChainPulse/pkg/util"
)

const gateBaseURL = "https://api.gateio.ws/api/v4"

// Gate composes method, path, query, the SHA512 of the body and a unix
// timestamp into one message, signs it with HMAC-SHA512 and sends the hex
// digest via KEY/Timestamp/SIGN headers.
type Gate struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *httpkit.Client
	log       *logger.Logger
}

func NewGate(apiKey, apiSecret string, opts ...Option) *Gate {
	o := applyOptions(gateBaseURL, opts)
	return &Gate{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   o.baseURL,
		client:    httpkit.NewClient(httpkit.WithTimeout(o.timeout)),
		log:       o.log,
	}
}

func (g *Gate) Name() string {
	return "gate"
}

func (g *Gate) sign(method, endpoint, query, payload, timestamp string) string {
	msg := fmt.Sprintf("%s\n%s\n%s\n%s\n%s", method, endpoint, query, sha512Hex(payload), timestamp)
	return hmacSHA512Hex(g.apiSecret, msg)
}

func (g *Gate) request(ctx context.Context, method, endpoint string, params map[string]string, signed bool, dest interface{}) error {
	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}

	var (
		query   string
		payload string
		body    interface{}
	)
	if method == httpkit.MethodPost && params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		payload = string(raw)
		body = raw
	} else {
		query = sortedParamString(params)
	}

	if signed {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		headers["KEY"] = g.apiKey
		headers["Timestamp"] = timestamp
		headers["SIGN"] = g.sign(method, endpoint, query, payload, timestamp)
	}

	url := g.baseURL + endpoint
	if query != "" {
		url += "?" + query
	}

	return g.client.SendAndParse(ctx, &httpkit.RequestOptions{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    body,
	}, dest)
}

func (g *Gate) GetBalance(ctx context.Context) (map[string]float64, error) {
	var resp []struct {
		Currency  string `json:"currency"`
		Available string `json:"available"`
	}
	if err := g.request(ctx, httpkit.MethodGet, "/spot/accounts", nil, true, &resp); err != nil {
		return nil, wrapAuth(g.Name(), err)
	}

	balances := make(map[string]float64, len(resp))
	for _, acct := range resp {
		balances[acct.Currency] = util.ParseFloatDefault(acct.Available, 0)
	}
	return balances, nil
}

func (g *Gate) GetOrderbook(ctx context.Context, symbol string) *models.Orderbook {
	var resp struct {
		Bids [][]interface{} `json:"bids"`
		Asks [][]interface{} `json:"asks"`
	}
	err := g.request(ctx, httpkit.MethodGet, "/spot/order_book",
		map[string]string{"currency_pair": symbol, "limit": "20"}, false, &resp)
	if err != nil {
		g.log.Warn("gate orderbook fetch failed", logger.String("symbol", symbol), logger.Error(err))
		return emptyBook()
	}
	return &models.Orderbook{
		Bids: toLevels(resp.Bids),
		Asks: toLevels(resp.Asks),
	}
}

func (g *Gate) CreateOrder(ctx context.Context, symbol, side string, amount, price float64) (*OrderResult, error) {
	params := map[string]string{
		"currency_pair": symbol,
		"side":          side,
		"amount":        formatAmount(amount),
		"type":          "market",
	}
	if price > 0 {
		params["type"] = "limit"
		params["price"] = formatAmount(price)
	}

	var resp struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Label   string `json:"label"`
		Message string `json:"message"`
	}
	if err := g.request(ctx, httpkit.MethodPost, "/spot/orders", params, true, &resp); err != nil {
		return nil, wrapAuth(g.Name(), err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("gate order rejected: %s %s", resp.Label, resp.Message)
	}

	return &OrderResult{
		OrderID: resp.ID,
		Symbol:  symbol,
		Side:    side,
		Status:  resp.Status,
	}, nil
}

func (g *Gate) GetTicker(ctx context.Context, symbol string) *Ticker {
	var resp []struct {
		Last string `json:"last"`
	}
	err := g.request(ctx, httpkit.MethodGet, "/spot/tickers",
		map[string]string{"currency_pair": symbol}, false, &resp)
	if err != nil || len(resp) == 0 {
		return &Ticker{Symbol: symbol}
	}
	return &Ticker{
		Symbol: symbol,
		Last:   util.ParseFloatDefault(resp[0].Last, 0),
	}
}

func (g *Gate) GetOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	params := map[string]string{"status": "open"}
	if symbol != "" {
		params["currency_pair"] = symbol
	}

	var resp []struct {
		ID           string `json:"id"`
		CurrencyPair string `json:"currency_pair"`
		Side         string `json:"side"`
		Price        string `json:"price"`
		Amount       string `json:"amount"`
	}
	if err := g.request(ctx, httpkit.MethodGet, "/spot/orders", params, true, &resp); err != nil {
		return nil, wrapAuth(g.Name(), err)
	}

	orders := make([]OpenOrder, 0, len(resp))
	for _, o := range resp {
		orders = append(orders, OpenOrder{
			ID:     o.ID,
			Symbol: o.CurrencyPair,
			Side:   o.Side,
			Price:  util.ParseFloatDefault(o.Price, 0),
			Amount: util.ParseFloatDefault(o.Amount, 0),
		})
	}
	return orders, nil
}

func (g *Gate) CancelOrder(ctx context.Context, orderID, symbol string) bool {
	var resp struct {
		ID string `json:"id"`
	}
	err := g.request(ctx, httpkit.MethodDelete, "/spot/orders/"+orderID,
		map[string]string{"currency_pair": symbol}, true, &resp)
	if err != nil {
		g.log.Warn("gate cancel failed", logger.String("order_id", orderID), logger.Error(err))
		return false
	}
	return resp.ID != ""
}
