// Package alpaca is a thin REST client for Alpaca's trading and crypto
// market-data APIs. It satisfies the same broker interfaces as the
// simulator, so a strategy tested against the simulated environment can be
// pointed at a paper account unchanged.
package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrade/broker"
	"github.com/rustyeddy/papertrade/market"
)

const (
	// PaperURL is the trading URL for Alpaca's paper environment
	PaperURL = "https://paper-api.alpaca.markets"
	// LiveURL is the trading URL for Alpaca's live environment
	LiveURL = "https://api.alpaca.markets"
	// DataURL is the market data URL (shared by paper and live)
	DataURL = "https://data.alpaca.markets"
)

// Client represents an Alpaca API client
type Client struct {
	baseURL    string
	dataURL    string
	key        string
	secret     string
	httpClient *http.Client
}

// NewClient creates a new Alpaca API client
func NewClient(key, secret string, paper bool) *Client {
	baseURL := LiveURL
	if paper {
		baseURL = PaperURL
	}

	return &Client{
		baseURL: baseURL,
		dataURL: DataURL,
		key:     key,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// orderPayload is the body of POST /v2/orders.
type orderPayload struct {
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
	Qty         string `json:"qty,omitempty"`
	Notional    string `json:"notional,omitempty"`
	LimitPrice  string `json:"limit_price,omitempty"`
}

// apiOrder represents an order in the API response. Numeric fields arrive
// as strings; nullable ones as string pointers.
type apiOrder struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Qty            *string `json:"qty"`
	Notional       *string `json:"notional"`
	FilledQty      *string `json:"filled_qty"`
	FilledAvgPrice *string `json:"filled_avg_price"`
	LimitPrice     *string `json:"limit_price"`
	Status         string  `json:"status"`
	Type           string  `json:"type"`
	Side           string  `json:"side"`
}

// apiAccount represents the GET /v2/account response
type apiAccount struct {
	Cash        string `json:"cash"`
	BuyingPower string `json:"buying_power"`
	Currency    string `json:"currency"`
}

// apiPosition represents one entry of the GET /v2/positions response
type apiPosition struct {
	Symbol        string  `json:"symbol"`
	Qty           string  `json:"qty"`
	AvgEntryPrice *string `json:"avg_entry_price"`
	MarketValue   *string `json:"market_value"`
}

// PlaceOrder submits an order and returns its id.
func (c *Client) PlaceOrder(ctx context.Context, req broker.OrderRequest) (string, error) {
	payload := orderPayload{
		Symbol:      req.Pair.String(),
		Side:        string(req.Side),
		Type:        string(broker.TypeMarket),
		TimeInForce: "gtc",
	}
	if req.Amount.IsNotional() {
		payload.Notional = req.Amount.Value().String()
	} else {
		payload.Qty = req.Amount.Value().String()
	}
	if req.LimitPrice != nil {
		payload.Type = string(broker.TypeLimit)
		payload.LimitPrice = req.LimitPrice.String()
	}

	var resp apiOrder
	if err := c.do(ctx, "POST", c.baseURL+"/v2/orders", payload, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// GetOrders lists all orders on the account, open and closed.
func (c *Client) GetOrders(ctx context.Context) ([]broker.Order, error) {
	params := url.Values{}
	params.Set("status", "all")

	var resp []apiOrder
	if err := c.do(ctx, "GET", c.baseURL+"/v2/orders?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	orders := make([]broker.Order, 0, len(resp))
	for _, ao := range resp {
		order, err := toOrder(ao)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// GetOrder fetches a single order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (broker.Order, error) {
	var resp apiOrder
	err := c.do(ctx, "GET", c.baseURL+"/v2/orders/"+orderID, nil, &resp)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusNotFound {
			return broker.Order{}, &broker.OrderNotFoundError{OrderID: orderID}
		}
		return broker.Order{}, err
	}
	return toOrder(resp)
}

// GetAccount fetches account balances and open positions.
func (c *Client) GetAccount(ctx context.Context) (broker.Account, error) {
	var acct apiAccount
	if err := c.do(ctx, "GET", c.baseURL+"/v2/account", nil, &acct); err != nil {
		return broker.Account{}, err
	}

	cash, err := decimal.NewFromString(acct.Cash)
	if err != nil {
		return broker.Account{}, fmt.Errorf("parse cash: %w", err)
	}
	buyingPower, err := decimal.NewFromString(acct.BuyingPower)
	if err != nil {
		return broker.Account{}, fmt.Errorf("parse buying power: %w", err)
	}

	var positions []apiPosition
	if err := c.do(ctx, "GET", c.baseURL+"/v2/positions", nil, &positions); err != nil {
		return broker.Account{}, err
	}

	open := make(map[string]broker.OpenPosition, len(positions))
	for _, p := range positions {
		qty, err := decimal.NewFromString(p.Qty)
		if err != nil {
			return broker.Account{}, fmt.Errorf("parse position qty: %w", err)
		}
		pos := broker.OpenPosition{Asset: p.Symbol, Quantity: qty}
		if pos.AverageEntryPrice, err = parseOptional(p.AvgEntryPrice); err != nil {
			return broker.Account{}, fmt.Errorf("parse entry price: %w", err)
		}
		if pos.MarketValue, err = parseOptional(p.MarketValue); err != nil {
			return broker.Account{}, fmt.Errorf("parse market value: %w", err)
		}
		open[p.Symbol] = pos
	}

	return broker.Account{
		OpenPositions: open,
		Cash:          cash,
		BuyingPower:   buyingPower,
		Currency:      acct.Currency,
	}, nil
}

// barData represents one bar of the latest-bars response
type barData struct {
	O decimal.Decimal `json:"o"`
	H decimal.Decimal `json:"h"`
	L decimal.Decimal `json:"l"`
	C decimal.Decimal `json:"c"`
	T string          `json:"t"`
}

// latestBarsResponse represents the crypto latest-bars API response
type latestBarsResponse struct {
	Bars map[string]barData `json:"bars"`
}

// GetLatestBar fetches the most recent minute bar for a crypto pair.
// barDuration is ignored; the endpoint only serves minute bars.
func (c *Client) GetLatestBar(ctx context.Context, pair market.AssetPair, _ time.Duration) (*market.Bar, error) {
	symbol := pair.String()
	apiURL := fmt.Sprintf("%s/v1beta3/crypto/eu-1/latest/bars?symbols=%s", c.dataURL, url.QueryEscape(symbol))

	var resp latestBarsResponse
	if err := c.do(ctx, "GET", apiURL, nil, &resp); err != nil {
		return nil, err
	}

	bd, ok := resp.Bars[symbol]
	if !ok {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, bd.T)
	if err != nil {
		return nil, fmt.Errorf("parse time %s: %w", bd.T, err)
	}
	return &market.Bar{
		Open:  bd.O,
		High:  bd.H,
		Low:   bd.L,
		Close: bd.C,
		Time:  t,
	}, nil
}

// APIError is a non-2xx response from the Alpaca API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

func (c *Client) do(ctx context.Context, method, apiURL string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("APCA-API-KEY-ID", c.key)
	req.Header.Set("APCA-API-SECRET-KEY", c.secret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func toOrder(ao apiOrder) (broker.Order, error) {
	order := broker.Order{
		ID:     ao.ID,
		Pair:   ao.Symbol,
		Status: broker.OrderStatus(ao.Status),
		Type:   broker.OrderType(ao.Type),
	}

	side, err := broker.ParseSide(ao.Side)
	if err != nil {
		return broker.Order{}, err
	}
	order.Side = side

	switch {
	case ao.Notional != nil:
		notional, err := decimal.NewFromString(*ao.Notional)
		if err != nil {
			return broker.Order{}, fmt.Errorf("parse notional: %w", err)
		}
		order.Amount = market.Notional(notional)
	case ao.Qty != nil:
		qty, err := decimal.NewFromString(*ao.Qty)
		if err != nil {
			return broker.Order{}, fmt.Errorf("parse qty: %w", err)
		}
		order.Amount = market.Quantity(qty)
	default:
		return broker.Order{}, fmt.Errorf("order %s has neither qty nor notional", ao.ID)
	}

	if order.LimitPrice, err = parseOptional(ao.LimitPrice); err != nil {
		return broker.Order{}, fmt.Errorf("parse limit price: %w", err)
	}
	if ao.FilledQty != nil {
		if order.FilledQuantity, err = decimal.NewFromString(*ao.FilledQty); err != nil {
			return broker.Order{}, fmt.Errorf("parse filled qty: %w", err)
		}
	}
	if order.AverageFillPrice, err = parseOptional(ao.FilledAvgPrice); err != nil {
		return broker.Order{}, fmt.Errorf("parse fill price: %w", err)
	}

	// Alpaca has a richer lifecycle; anything not yet filled reports as new.
	if order.Status != broker.StatusFilled {
		order.Status = broker.StatusNew
	}
	return order, nil
}

func parseOptional(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
