package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrade/broker"
	"github.com/rustyeddy/papertrade/market"
)

// barsSource serves the most recent bar at or before the queried time,
// regardless of pair. Bars must be in ascending time order.
type barsSource struct {
	bars []market.Bar
}

func (s *barsSource) GetBar(_ market.AssetPair, at time.Time, _ time.Duration) (*market.Bar, error) {
	for i := len(s.bars) - 1; i >= 0; i-- {
		if !s.bars[i].Time.After(at) {
			bar := s.bars[i]
			return &bar, nil
		}
	}
	return nil, nil
}

type failingSource struct{}

func (failingSource) GetBar(market.AssetPair, time.Time, time.Duration) (*market.Bar, error) {
	return nil, errors.New("bar source unavailable")
}

func newBar(t *testing.T, low, high int64, at time.Time) market.Bar {
	t.Helper()
	return market.Bar{
		Open:  decimal.NewFromInt(low),
		High:  decimal.NewFromInt(high),
		Low:   decimal.NewFromInt(low),
		Close: decimal.NewFromInt(high),
		Time:  at,
	}
}

func newTestEnvironment(t *testing.T, bars market.BarDataSource, clock market.Clock, pairs ...market.AssetPair) *Environment {
	t.Helper()
	b, err := NewBrokerBuilder("GBP").SetBalance(decimal.NewFromInt(100000)).Build()
	require.NoError(t, err)
	return NewEnvironmentBuilder(NewClient(b), clock, bars).
		SetPairsToTrade(pairs...).
		SetBarDuration(time.Minute).
		SetRefreshInterval(30 * time.Second).
		Build()
}

var testTime = time.Date(2025, 12, 17, 18, 30, 0, 0, time.UTC)

func TestEnvironmentInitTwice(t *testing.T) {
	t.Parallel()

	env := newTestEnvironment(t, &barsSource{}, market.NewSimClock(testTime))
	require.NoError(t, env.Init())
	assert.ErrorIs(t, env.Init(), broker.ErrAlreadyInitialized)
}

func TestEnvironmentCallsBeforeInit(t *testing.T) {
	t.Parallel()

	env := newTestEnvironment(t, &barsSource{}, market.NewSimClock(testTime))
	ctx := context.Background()

	assert.ErrorIs(t, env.Update(), broker.ErrNotInitialized)

	_, err := env.PlaceOrder(ctx, broker.MarketBuy(pair(t, "USDT/GBP"), market.Quantity(decimal.NewFromInt(10))))
	assert.ErrorIs(t, err, broker.ErrNotInitialized)

	_, err = env.GetOrders(ctx)
	assert.ErrorIs(t, err, broker.ErrNotInitialized)

	_, err = env.GetOrder(ctx, "123")
	assert.ErrorIs(t, err, broker.ErrNotInitialized)

	_, err = env.GetAccount(ctx)
	assert.ErrorIs(t, err, broker.ErrNotInitialized)
}

func TestEnvironmentPlaceOrderWithoutBars(t *testing.T) {
	t.Parallel()

	bars := &barsSource{bars: []market.Bar{newBar(t, 10, 20, testTime.Add(-3*time.Minute))}}
	clock := market.NewSimClock(testTime.Add(-5 * time.Minute))
	// No tracked pairs, so no price is ever pushed to the broker.
	env := newTestEnvironment(t, bars, clock)
	require.NoError(t, env.Init())

	_, err := env.PlaceOrder(context.Background(), broker.MarketBuy(pair(t, "COIN/GBP"), market.Quantity(decimal.NewFromInt(10))))
	assert.Error(t, err)

	var noPrice *broker.NoNotionalPerUnitError
	assert.True(t, errors.As(err, &noPrice))
}

func TestEnvironmentMarketOrderAfterCatchUp(t *testing.T) {
	t.Parallel()

	coin := pair(t, "COIN/GBP")
	bars := &barsSource{bars: []market.Bar{newBar(t, 10, 20, testTime.Add(-3*time.Minute))}}
	clock := market.NewSimClock(testTime.Add(-5 * time.Minute))
	env := newTestEnvironment(t, bars, clock, coin)
	require.NoError(t, env.Init())

	clock.Advance(5 * time.Minute)
	require.NoError(t, env.Update())

	orderID, err := env.PlaceOrder(context.Background(), broker.MarketBuy(coin, market.Quantity(decimal.NewFromInt(10))))
	require.NoError(t, err)
	assert.NotEmpty(t, orderID)

	order, err := env.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusFilled, order.Status)
	require.NotNil(t, order.AverageFillPrice)
	assertDecimal(t, "15", *order.AverageFillPrice, "fills at the bar midpoint")
}

func TestEnvironmentLimitOrderFillsAsTimeAdvances(t *testing.T) {
	t.Parallel()

	coin := pair(t, "COIN/GBP")
	bars := &barsSource{bars: []market.Bar{
		newBar(t, 10, 20, testTime.Add(-3*time.Minute)),
		newBar(t, 5, 10, testTime.Add(-2*time.Minute)),
	}}
	clock := market.NewSimClock(testTime.Add(-5 * time.Minute))
	env := newTestEnvironment(t, bars, clock, coin)
	require.NoError(t, env.Init())

	// First bar only: price is (10+20)/2 = 15, above the limit.
	clock.Advance(2 * time.Minute)
	require.NoError(t, env.Update())

	orderID, err := env.PlaceOrder(context.Background(), broker.LimitBuy(coin, market.Quantity(decimal.NewFromInt(10)), decimal.NewFromInt(9)))
	require.NoError(t, err)

	order, err := env.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusNew, order.Status)

	// Second bar becomes current: price drops to 7.5 and the buy fills.
	// GetOrder updates the environment itself, no explicit Update needed.
	clock.Advance(2 * time.Minute)
	order, err = env.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusFilled, order.Status)
	require.NotNil(t, order.AverageFillPrice)
	assertDecimal(t, "7.5", *order.AverageFillPrice)
}

func TestEnvironmentUpdatePropagatesBarSourceError(t *testing.T) {
	t.Parallel()

	clock := market.NewSimClock(testTime)
	env := newTestEnvironment(t, failingSource{}, clock, pair(t, "COIN/GBP"))
	err := env.Init()
	assert.EqualError(t, err, "bar source unavailable")
}

func TestGetLatestBarClosedBar(t *testing.T) {
	t.Parallel()

	coin := pair(t, "COIN/GBP")
	bar := newBar(t, 10, 20, testTime.Add(-3*time.Minute))
	env := newTestEnvironment(t, &barsSource{bars: []market.Bar{bar}}, market.NewSimClock(testTime))
	require.NoError(t, env.Init())

	got, err := env.GetLatestBar(context.Background(), coin, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, bar, *got)
}

func TestGetLatestBarNoneBeforeFirstBar(t *testing.T) {
	t.Parallel()

	coin := pair(t, "COIN/GBP")
	bars := &barsSource{bars: []market.Bar{newBar(t, 10, 20, testTime.Add(-3*time.Minute))}}
	clock := market.NewSimClock(testTime.Add(-5 * time.Minute))
	env := newTestEnvironment(t, bars, clock)
	require.NoError(t, env.Init())

	clock.Advance(time.Minute + 59*time.Second)
	got, err := env.GetLatestBar(context.Background(), coin, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetLatestBarHidesFormingBar(t *testing.T) {
	t.Parallel()

	coin := pair(t, "COIN/GBP")
	closed := newBar(t, 10, 20, testTime.Add(-3*time.Minute))
	forming := newBar(t, 100, 200, testTime.Add(-2*time.Minute))
	bars := &barsSource{bars: []market.Bar{closed, forming}}
	clock := market.NewSimClock(testTime.Add(-5 * time.Minute))
	env := newTestEnvironment(t, bars, clock)
	require.NoError(t, env.Init())

	// At -1m01s the second bar's window has not fully elapsed; the query
	// falls back one window and serves the closed bar.
	clock.Advance(3*time.Minute + 59*time.Second)
	got, err := env.GetLatestBar(context.Background(), coin, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, closed, *got)
}

func TestEnvironmentJournalsEquity(t *testing.T) {
	t.Parallel()

	j := &testJournal{}
	b, err := NewBrokerBuilder("GBP").SetBalance(decimal.NewFromInt(100000)).Build()
	require.NoError(t, err)
	clock := market.NewSimClock(testTime)
	env := NewEnvironmentBuilder(NewClient(b), clock, &barsSource{}).
		SetJournal(j).
		Build()
	require.NoError(t, env.Init())

	clock.Advance(time.Minute)
	require.NoError(t, env.Update())

	require.Len(t, j.equity, 2, "one snapshot per update, including the one Init runs")
	assert.Equal(t, testTime, j.equity[0].Time)
	assert.Equal(t, testTime.Add(time.Minute), j.equity[1].Time)
	assertDecimal(t, "100000", j.equity[1].Cash)
	assertDecimal(t, "100000", j.equity[1].BuyingPower)
}
