package market

import (
	"time"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// Bar is an OHLC price summary over a window starting at Time.
type Bar struct {
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
	Time  time.Time
}

// Mid returns the midpoint of the bar's range. The simulated environment
// uses it as the effective price while the bar's window is current.
func (b Bar) Mid() decimal.Decimal {
	return b.Low.Add(b.High).Div(two)
}

// BarDataSource supplies historical bars. GetBar returns the bar in effect
// for pair at the given time, or nil when no bar exists at or before it.
// Implementations must be side-effect free queries.
type BarDataSource interface {
	GetBar(pair AssetPair, at time.Time, barDuration time.Duration) (*Bar, error)
}
