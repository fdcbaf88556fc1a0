package broker

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrade/market"
)

func TestParseSide(t *testing.T) {
	t.Parallel()

	side, err := ParseSide("buy")
	assert.NoError(t, err)
	assert.Equal(t, Buy, side)

	side, err = ParseSide("sell")
	assert.NoError(t, err)
	assert.Equal(t, Sell, side)

	_, err = ParseSide("short")
	assert.Error(t, err)
}

func TestOrderRequestConstructors(t *testing.T) {
	t.Parallel()

	pair, err := market.ParsePair("GBP/USD")
	require.NoError(t, err)
	ten := market.Quantity(decimal.NewFromInt(10))
	limit := decimal.RequireFromString("1.30")

	req := MarketBuy(pair, ten)
	assert.Equal(t, Buy, req.Side)
	assert.Nil(t, req.LimitPrice)

	req = MarketSell(pair, ten)
	assert.Equal(t, Sell, req.Side)
	assert.Nil(t, req.LimitPrice)

	req = LimitBuy(pair, ten, limit)
	assert.Equal(t, Buy, req.Side)
	require.NotNil(t, req.LimitPrice)
	assert.True(t, req.LimitPrice.Equal(limit))

	req = LimitSell(pair, ten, limit)
	assert.Equal(t, Sell, req.Side)
	require.NotNil(t, req.LimitPrice)
	assert.True(t, req.LimitPrice.Equal(limit))
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{&MissingCurrencyError{Currency: "USD"}, "missing currency notional asset USD"},
		{&InvalidNotionalAssetError{Asset: "USDT"}, "USDT is not a valid notional asset"},
		{&NoNotionalPerUnitError{Pair: "AAPL/USD"}, "AAPL/USD does not have notional per unit"},
		{&InsufficientBuyingPowerError{Asset: "USD"}, "not enough USD buying power"},
		{&OrderNotFoundError{OrderID: "123"}, "order with id 123 doesn't exist"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.err.Error())
	}
}
