package market

import (
	"fmt"
	"strings"
)

// AssetPair identifies a tradable pair by its quantity (base, traded) asset
// and its notional (quote, settlement) asset. "GBP/USD" trades GBP settled
// in USD.
type AssetPair struct {
	Quantity string
	Notional string
}

// ParsePair parses the canonical "QUANTITY/NOTIONAL" form.
func ParsePair(s string) (AssetPair, error) {
	quantity, notional, ok := strings.Cut(s, "/")
	if !ok || quantity == "" || notional == "" || strings.Contains(notional, "/") {
		return AssetPair{}, fmt.Errorf("invalid asset pair %q", s)
	}
	return AssetPair{Quantity: quantity, Notional: notional}, nil
}

// String round-trips with ParsePair.
func (p AssetPair) String() string {
	return p.Quantity + "/" + p.Notional
}
