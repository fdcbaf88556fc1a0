package market

import "github.com/shopspring/decimal"

// Amount is an order size expressed either as a quantity of the base asset
// or as a notional value in the quote asset. Immutable once created.
type Amount struct {
	value    decimal.Decimal
	notional bool
}

// Quantity sizes an order in base units.
func Quantity(q decimal.Decimal) Amount {
	return Amount{value: q}
}

// Notional sizes an order by quote-currency value.
func Notional(n decimal.Decimal) Amount {
	return Amount{value: n, notional: true}
}

// IsNotional reports whether the amount is quote-currency sized.
func (a Amount) IsNotional() bool { return a.notional }

// Value returns the raw size. Its meaning depends on IsNotional.
func (a Amount) Value() decimal.Decimal { return a.value }

func (a Amount) String() string {
	if a.notional {
		return "notional " + a.value.String()
	}
	return "quantity " + a.value.String()
}
