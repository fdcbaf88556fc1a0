package sim

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Ledger tracks per-asset settled balances and buying power. Unseen assets
// read as zero; updates are additive and create the entry on first write.
// The Ledger itself does no locking, the Broker serializes access.
//
// Buying power is a commitment ledger distinct from the settled balance:
// it is reduced when an order reserves capacity and only reconciled with
// the balance when the order fills. The two diverge while unfilled limit
// orders exist.
type Ledger struct {
	balances    map[string]decimal.Decimal
	buyingPower map[string]decimal.Decimal
}

// NewLedger seeds both balances and buying power from starting.
func NewLedger(starting map[string]decimal.Decimal) *Ledger {
	balances := make(map[string]decimal.Decimal, len(starting))
	buyingPower := make(map[string]decimal.Decimal, len(starting))
	for asset, balance := range starting {
		balances[asset] = balance
		buyingPower[asset] = balance
	}
	return &Ledger{balances: balances, buyingPower: buyingPower}
}

func (l *Ledger) Balance(asset string) decimal.Decimal {
	return l.balances[asset]
}

func (l *Ledger) BuyingPower(asset string) decimal.Decimal {
	return l.buyingPower[asset]
}

func (l *Ledger) UpdateBalance(asset string, delta decimal.Decimal) {
	l.balances[asset] = l.balances[asset].Add(delta)
}

func (l *Ledger) UpdateBuyingPower(asset string, delta decimal.Decimal) {
	l.buyingPower[asset] = l.buyingPower[asset].Add(delta)
}

// Assets returns the assets with a non-zero settled balance, sorted.
func (l *Ledger) Assets() []string {
	var assets []string
	for asset, balance := range l.balances {
		if !balance.IsZero() {
			assets = append(assets, asset)
		}
	}
	sort.Strings(assets)
	return assets
}
