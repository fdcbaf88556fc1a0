package sim

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrade/broker"
	"github.com/rustyeddy/papertrade/market"
)

// Client adapts a simulated Broker to the generic broker.Client interface.
type Client struct {
	broker *Broker
}

var _ broker.Client = (*Client)(nil)

func NewClient(b *Broker) *Client {
	return &Client{broker: b}
}

// SetNotionalPerUnit feeds a price into the underlying broker. The
// simulated environment calls this as bar data advances.
func (c *Client) SetNotionalPerUnit(pair market.AssetPair, price decimal.Decimal) error {
	return c.broker.SetNotionalPerUnit(pair, price)
}

func (c *Client) PlaceOrder(_ context.Context, req broker.OrderRequest) (string, error) {
	return c.broker.PlaceOrder(req)
}

func (c *Client) GetOrders(_ context.Context) ([]broker.Order, error) {
	return c.broker.GetOrders(), nil
}

func (c *Client) GetOrder(_ context.Context, orderID string) (broker.Order, error) {
	return c.broker.GetOrder(orderID)
}

// GetAccount aggregates broker state: settled cash and buying power in the
// account currency, plus one open position per purchased asset valued at
// the asset/currency price.
func (c *Client) GetAccount(_ context.Context) (broker.Account, error) {
	currency := c.broker.Currency()

	openPositions := make(map[string]broker.OpenPosition)
	for _, asset := range c.broker.PurchasedAssets() {
		position, err := c.openPosition(asset)
		if err != nil {
			return broker.Account{}, err
		}
		openPositions[asset] = position
	}

	return broker.Account{
		OpenPositions: openPositions,
		Cash:          c.broker.GetBalance(currency),
		BuyingPower:   c.broker.GetBuyingPower(currency),
		Currency:      currency,
	}, nil
}

func (c *Client) openPosition(asset string) (broker.OpenPosition, error) {
	balance := c.broker.GetBalance(asset)
	price, err := c.broker.GetNotionalPerUnit(market.AssetPair{
		Quantity: asset,
		Notional: c.broker.Currency(),
	})
	if err != nil {
		return broker.OpenPosition{}, err
	}
	marketValue := balance.Mul(price)
	return broker.OpenPosition{
		Asset:       asset,
		Quantity:    balance,
		MarketValue: &marketValue,
	}, nil
}
