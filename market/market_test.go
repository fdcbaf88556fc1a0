package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAmountQuantity(t *testing.T) {
	t.Parallel()

	a := Quantity(decimal.NewFromInt(10))
	assert.False(t, a.IsNotional())
	assert.True(t, a.Value().Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "quantity 10", a.String())
}

func TestAmountNotional(t *testing.T) {
	t.Parallel()

	a := Notional(decimal.RequireFromString("14.1"))
	assert.True(t, a.IsNotional())
	assert.True(t, a.Value().Equal(decimal.RequireFromString("14.1")))
	assert.Equal(t, "notional 14.1", a.String())
}

func TestBarMid(t *testing.T) {
	t.Parallel()

	b := Bar{
		Low:  decimal.RequireFromString("1.30"),
		High: decimal.RequireFromString("1.32"),
	}
	assert.True(t, b.Mid().Equal(decimal.RequireFromString("1.31")), "got %s", b.Mid())
}

func TestSimClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 12, 17, 18, 30, 0, 0, time.UTC)
	c := NewSimClock(start)
	assert.Equal(t, start, c.Now())

	got := c.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), got)
	assert.Equal(t, got, c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
