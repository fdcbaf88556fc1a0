package broker

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrade/market"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ParseSide converts the wire form ("buy"/"sell") to a Side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Buy, Sell:
		return Side(s), nil
	}
	return "", fmt.Errorf("invalid order side %q", s)
}

// OrderStatus is the lifecycle state of an order. The simulator only moves
// orders from StatusNew to StatusFilled; there is no partial fill,
// cancellation or expiry.
type OrderStatus string

const (
	StatusNew    OrderStatus = "new"
	StatusFilled OrderStatus = "filled"
)

// OrderType distinguishes immediate fills from price-conditional fills.
type OrderType string

const (
	TypeMarket OrderType = "market"
	TypeLimit  OrderType = "limit"
)

// OrderRequest describes an order to be placed.
type OrderRequest struct {
	Pair       market.AssetPair
	Amount     market.Amount
	LimitPrice *decimal.Decimal
	Side       Side
}

// MarketBuy requests an immediate buy of amount at the current price.
func MarketBuy(pair market.AssetPair, amount market.Amount) OrderRequest {
	return OrderRequest{Pair: pair, Amount: amount, Side: Buy}
}

// MarketSell requests an immediate sell of amount at the current price.
func MarketSell(pair market.AssetPair, amount market.Amount) OrderRequest {
	return OrderRequest{Pair: pair, Amount: amount, Side: Sell}
}

// LimitBuy requests a buy that fills once the price is at or below limit.
func LimitBuy(pair market.AssetPair, amount market.Amount, limit decimal.Decimal) OrderRequest {
	return OrderRequest{Pair: pair, Amount: amount, LimitPrice: &limit, Side: Buy}
}

// LimitSell requests a sell that fills once the price is at or above limit.
func LimitSell(pair market.AssetPair, amount market.Amount, limit decimal.Decimal) OrderRequest {
	return OrderRequest{Pair: pair, Amount: amount, LimitPrice: &limit, Side: Sell}
}

// Order is a placed order as reported by a Client. AverageFillPrice is nil
// until the order fills.
type Order struct {
	ID               string
	Pair             string
	Amount           market.Amount
	LimitPrice       *decimal.Decimal
	FilledQuantity   decimal.Decimal
	AverageFillPrice *decimal.Decimal
	Status           OrderStatus
	Type             OrderType
	Side             Side
}
