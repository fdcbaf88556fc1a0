// Package broker defines the generic trading API shared by the live and
// simulated backends: order and account types, the Client and Market
// capabilities, and the error taxonomy trading calls can return.
package broker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrade/market"
)

// OpenPosition is a non-currency holding valued against the account
// currency. MarketValue is nil when no price is known for the asset.
type OpenPosition struct {
	Asset             string
	Quantity          decimal.Decimal
	AverageEntryPrice *decimal.Decimal
	MarketValue       *decimal.Decimal
}

// Account is a snapshot of settled cash, reservation capacity and open
// positions, all in terms of the account currency.
type Account struct {
	OpenPositions map[string]OpenPosition
	Cash          decimal.Decimal
	BuyingPower   decimal.Decimal
	Currency      string
}

// Client places and tracks orders against a venue.
type Client interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (string, error)
	GetOrders(ctx context.Context) ([]Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	GetAccount(ctx context.Context) (Account, error)
}

// Market answers price-history queries. GetLatestBar returns the most
// recent fully closed bar for the pair, or nil if none has closed yet.
type Market interface {
	GetLatestBar(ctx context.Context, pair market.AssetPair, barDuration time.Duration) (*market.Bar, error)
}

// Environment is a complete trading backend: order placement plus market
// data. The simulated environment and the live client both satisfy it, so
// strategies can be written against either.
type Environment interface {
	Client
	Market
}
