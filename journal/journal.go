// Package journal records order fills and account snapshots produced by a
// simulation run, to CSV files or a SQLite database.
package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// FillRecord is one executed order.
type FillRecord struct {
	OrderID  string
	Pair     string
	Side     string
	Type     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// EquitySnapshot is the account currency's settled cash and buying power at
// a point in simulated time.
type EquitySnapshot struct {
	Time        time.Time
	Cash        decimal.Decimal
	BuyingPower decimal.Decimal
}

type Journal interface {
	RecordFill(FillRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Discard is a Journal that drops every record.
type Discard struct{}

func (Discard) RecordFill(FillRecord) error       { return nil }
func (Discard) RecordEquity(EquitySnapshot) error { return nil }
func (Discard) Close() error                      { return nil }
