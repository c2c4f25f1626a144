package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ChainPulse/internal/domain/models"
	httpkit "ChainPulse/pkg/http"
	"ChainPulse/pkg/logger"
	"ChainPulse/pkg/util"
)

const (
	okxBaseURL       = "https://www.okx.com"
	okxTimestampForm = "2006-01-02T15:04:05.000Z"
)

// OKX signs timestamp+method+path+body with HMAC-SHA256 and sends the
// base64 digest via OK-ACCESS-* headers together with the API passphrase.
type OKX struct {
	apiKey     string
	apiSecret  string
	passphrase string
	baseURL    string
	client     *httpkit.Client
	log        *logger.Logger
}

func NewOKX(apiKey, apiSecret, passphrase string, opts ...Option) *OKX {
	o := applyOptions(okxBaseURL, opts)
	return &OKX{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		passphrase: passphrase,
		baseURL:    o.baseURL,
		client:     httpkit.NewClient(httpkit.WithTimeout(o.timeout)),
		log:        o.log,
	}
}

func (x *OKX) Name() string {
	return "okx"
}

func (x *OKX) request(ctx context.Context, method, endpoint string, params map[string]string, signed bool, dest interface{}) error {
	headers := map[string]string{"Content-Type": "application/json"}

	var body interface{}
	payload := ""
	if method == httpkit.MethodPost && params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		payload = string(raw)
		body = raw
	}

	if signed {
		timestamp := time.Now().UTC().Format(okxTimestampForm)
		headers["OK-ACCESS-KEY"] = x.apiKey
		headers["OK-ACCESS-SIGN"] = hmacSHA256Base64(x.apiSecret, timestamp+method+endpoint+payload)
		headers["OK-ACCESS-TIMESTAMP"] = timestamp
		headers["OK-ACCESS-PASSPHRASE"] = x.passphrase
	}

	opts := &httpkit.RequestOptions{
		Method:  method,
		URL:     x.baseURL + endpoint,
		Headers: headers,
		Body:    body,
	}
	if method == httpkit.MethodGet && len(params) > 0 {
		q := make(map[string][]string, len(params))
		for k, v := range params {
			q[k] = []string{v}
		}
		opts.QueryParams = q
	}

	return x.client.SendAndParse(ctx, opts, dest)
}

func (x *OKX) GetBalance(ctx context.Context) (map[string]float64, error) {
	var resp struct {
		Data []struct {
			Details []struct {
				Ccy      string `json:"ccy"`
				AvailBal string `json:"availBal"`
			} `json:"details"`
		} `json:"data"`
	}
	if err := x.request(ctx, httpkit.MethodGet, "/api/v5/account/balance", nil, true, &resp); err != nil {
		return nil, wrapAuth(x.Name(), err)
	}

	balances := make(map[string]float64)
	for _, acct := range resp.Data {
		for _, d := range acct.Details {
			balances[d.Ccy] = util.ParseFloatDefault(d.AvailBal, 0)
		}
	}
	return balances, nil
}

func (x *OKX) GetOrderbook(ctx context.Context, symbol string) *models.Orderbook {
	var resp struct {
		Data []struct {
			Bids [][]interface{} `json:"bids"`
			Asks [][]interface{} `json:"asks"`
		} `json:"data"`
	}
	err := x.request(ctx, httpkit.MethodGet, "/api/v5/market/books",
		map[string]string{"instId": symbol, "sz": "20"}, false, &resp)
	if err != nil || len(resp.Data) == 0 {
		if err != nil {
			x.log.Warn("okx orderbook fetch failed", logger.String("symbol", symbol), logger.Error(err))
		}
		return emptyBook()
	}
	return &models.Orderbook{
		Bids: toLevels(resp.Data[0].Bids),
		Asks: toLevels(resp.Data[0].Asks),
	}
}

func (x *OKX) CreateOrder(ctx context.Context, symbol, side string, amount, price float64) (*OrderResult, error) {
	params := map[string]string{
		"instId":  symbol,
		"tdMode":  "cash",
		"side":    side,
		"ordType": "market",
		"sz":      formatAmount(amount),
	}
	if price > 0 {
		params["ordType"] = "limit"
		params["px"] = formatAmount(price)
	}

	var resp struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			OrdID string `json:"ordId"`
			SMsg  string `json:"sMsg"`
		} `json:"data"`
	}
	if err := x.request(ctx, httpkit.MethodPost, "/api/v5/trade/order", params, true, &resp); err != nil {
		return nil, wrapAuth(x.Name(), err)
	}
	if resp.Code != "0" || len(resp.Data) == 0 {
		detail := resp.Msg
		if len(resp.Data) > 0 {
			detail = resp.Data[0].SMsg
		}
		return nil, fmt.Errorf("okx order rejected: %s %s", resp.Code, detail)
	}

	return &OrderResult{
		OrderID: resp.Data[0].OrdID,
		Symbol:  symbol,
		Side:    side,
		Status:  "accepted",
	}, nil
}

func (x *OKX) GetTicker(ctx context.Context, symbol string) *Ticker {
	var resp struct {
		Data []struct {
			Last string `json:"last"`
		} `json:"data"`
	}
	err := x.request(ctx, httpkit.MethodGet, "/api/v5/market/ticker",
		map[string]string{"instId": symbol}, false, &resp)
	if err != nil || len(resp.Data) == 0 {
		return &Ticker{Symbol: symbol}
	}
	return &Ticker{
		Symbol: symbol,
		Last:   util.ParseFloatDefault(resp.Data[0].Last, 0),
	}
}

func (x *OKX) GetOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	params := map[string]string{}
	if symbol != "" {
		params["instId"] = symbol
	}

	var resp struct {
		Data []struct {
			OrdID  string `json:"ordId"`
			InstID string `json:"instId"`
			Side   string `json:"side"`
			Px     string `json:"px"`
			Sz     string `json:"sz"`
		} `json:"data"`
	}
	if err := x.request(ctx, httpkit.MethodGet, "/api/v5/trade/orders-pending", params, true, &resp); err != nil {
		return nil, wrapAuth(x.Name(), err)
	}

	orders := make([]OpenOrder, 0, len(resp.Data))
	for _, o := range resp.Data {
		orders = append(orders, OpenOrder{
			ID:     o.OrdID,
			Symbol: o.InstID,
			Side:   o.Side,
			Price:  util.ParseFloatDefault(o.Px, 0),
			Amount: util.ParseFloatDefault(o.Sz, 0),
		})
	}
	return orders, nil
}

func (x *OKX) CancelOrder(ctx context.Context, orderID, symbol string) bool {
	var resp struct {
		Code string `json:"code"`
	}
	err := x.request(ctx, httpkit.MethodPost, "/api/v5/trade/cancel-order",
		map[string]string{"instId": symbol, "ordId": orderID}, true, &resp)
	if err != nil {
		x.log.Warn("okx cancel failed", logger.String("order_id", orderID), logger.Error(err))
		return false
	}
	return resp.Code == "0"
}
