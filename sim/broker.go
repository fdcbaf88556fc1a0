// Package sim is an in-process trading venue: a balance ledger, a
// market/limit order matching engine and a time-driven environment that
// feeds it synthetic prices from historical bar data. It reproduces the
// settlement and buying-power semantics of a real venue deterministically,
// with no external dependency, so strategies can be tested offline.
package sim

import (
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/papertrade/broker"
	"github.com/rustyeddy/papertrade/internal/id"
	"github.com/rustyeddy/papertrade/journal"
	"github.com/rustyeddy/papertrade/market"
)

var hundred = decimal.NewFromInt(100)

// Broker is the simulated matching engine. Orders move only from New to
// Filled: there is no partial fill, cancellation or expiry. All state is
// in memory and guarded by one mutex, so a single Broker may be shared by
// an environment and direct callers.
type Broker struct {
	mu              sync.Mutex
	currency        string
	notionalAssets  map[string]struct{}
	ledger          *Ledger
	orders          map[string]broker.Order
	notionalPerUnit map[market.AssetPair]decimal.Decimal
	feeRate         decimal.Decimal
	journal         journal.Journal
	log             logrus.FieldLogger
}

// BrokerBuilder assembles a Broker. The zero configuration is a broker
// holding nothing but its settlement currency at balance zero.
type BrokerBuilder struct {
	currency       string
	notionalAssets map[string]struct{}
	balances       map[string]decimal.Decimal
	feePercent     decimal.Decimal
	journal        journal.Journal
	log            logrus.FieldLogger
}

// NewBrokerBuilder starts a builder for a broker settling in currency. The
// currency is always a permitted notional asset.
func NewBrokerBuilder(currency string) *BrokerBuilder {
	return &BrokerBuilder{
		currency:       currency,
		notionalAssets: map[string]struct{}{currency: {}},
		balances:       map[string]decimal.Decimal{currency: decimal.Zero},
	}
}

// SetBalance sets the starting balance of the settlement currency.
func (b *BrokerBuilder) SetBalance(balance decimal.Decimal) *BrokerBuilder {
	b.balances[b.currency] = balance
	return b
}

// AddNotionalAsset permits asset as the notional leg of traded pairs,
// optionally with a starting balance.
func (b *BrokerBuilder) AddNotionalAsset(asset string, balance *decimal.Decimal) *BrokerBuilder {
	b.notionalAssets[asset] = struct{}{}
	if balance != nil {
		b.balances[asset] = *balance
	}
	return b
}

// SetFeePercent charges a percentage fee on every fill, deducted from the
// credited leg. Build rejects values outside [0, 100].
func (b *BrokerBuilder) SetFeePercent(percent decimal.Decimal) *BrokerBuilder {
	b.feePercent = percent
	return b
}

// SetJournal records every fill to j. Journal failures are logged, never
// surfaced to trading calls.
func (b *BrokerBuilder) SetJournal(j journal.Journal) *BrokerBuilder {
	b.journal = j
	return b
}

func (b *BrokerBuilder) SetLogger(log logrus.FieldLogger) *BrokerBuilder {
	b.log = log
	return b
}

func (b *BrokerBuilder) Build() (*Broker, error) {
	return newBroker(b)
}

func newBroker(b *BrokerBuilder) (*Broker, error) {
	if _, ok := b.notionalAssets[b.currency]; !ok {
		return nil, &broker.MissingCurrencyError{Currency: b.currency}
	}
	if b.feePercent.IsNegative() || b.feePercent.GreaterThan(hundred) {
		return nil, &broker.InvalidFeeError{Percent: b.feePercent.String()}
	}
	log := b.log
	if log == nil {
		log = logrus.StandardLogger()
	}
	notionalAssets := make(map[string]struct{}, len(b.notionalAssets))
	for asset := range b.notionalAssets {
		notionalAssets[asset] = struct{}{}
	}
	return &Broker{
		currency:        b.currency,
		notionalAssets:  notionalAssets,
		ledger:          NewLedger(b.balances),
		orders:          make(map[string]broker.Order),
		notionalPerUnit: make(map[market.AssetPair]decimal.Decimal),
		feeRate:         b.feePercent.Div(hundred),
		journal:         b.journal,
		log:             log,
	}, nil
}

// Currency returns the settlement currency.
func (b *Broker) Currency() string { return b.currency }

// GetBalance returns the settled balance for asset, zero if unseen.
func (b *Broker) GetBalance(asset string) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.Balance(asset)
}

// GetBuyingPower returns the reservation capacity for asset, zero if
// unseen.
func (b *Broker) GetBuyingPower(asset string) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.BuyingPower(asset)
}

// UpdateBalance adds delta to the settled balance of asset. Meant for
// funding a simulated account before a run.
func (b *Broker) UpdateBalance(asset string, delta decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledger.UpdateBalance(asset, delta)
}

// UpdateBuyingPower adds delta to the buying power of asset.
func (b *Broker) UpdateBuyingPower(asset string, delta decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledger.UpdateBuyingPower(asset, delta)
}

// PurchasedAssets lists non-currency assets with a non-zero balance.
func (b *Broker) PurchasedAssets() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var assets []string
	for _, asset := range b.ledger.Assets() {
		if asset != b.currency {
			assets = append(assets, asset)
		}
	}
	return assets
}

// GetNotionalPerUnit returns the last price set for pair.
func (b *Broker) GetNotionalPerUnit(pair market.AssetPair) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notionalPerUnitLocked(pair)
}

func (b *Broker) notionalPerUnitLocked(pair market.AssetPair) (decimal.Decimal, error) {
	if _, ok := b.notionalAssets[pair.Notional]; !ok {
		return decimal.Zero, &broker.InvalidNotionalAssetError{Asset: pair.Notional}
	}
	price, ok := b.notionalPerUnit[pair]
	if !ok {
		return decimal.Zero, &broker.NoNotionalPerUnitError{Pair: pair.String()}
	}
	return price, nil
}

// SetNotionalPerUnit stores the market price for pair and re-evaluates
// every pending limit order against it. Pairs are priced independently; no
// inverse pair is derived. On error the price table is unchanged.
func (b *Broker) SetNotionalPerUnit(pair market.AssetPair, price decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.notionalAssets[pair.Notional]; !ok {
		return &broker.InvalidNotionalAssetError{Asset: pair.Notional}
	}
	b.notionalPerUnit[pair] = price

	for orderID, order := range b.orders {
		if order.Status != broker.StatusNew || order.Type != broker.TypeLimit {
			continue
		}
		if err := b.checkFillLocked(orderID); err != nil {
			return err
		}
	}
	return nil
}

// PlaceOrder reserves buying power and inserts the order, filling it at
// once if it is a market order or an already-satisfied limit order. A
// rejected order leaves the ledger untouched.
func (b *Broker) PlaceOrder(req broker.OrderRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	orderType := broker.TypeMarket
	if req.LimitPrice != nil {
		orderType = broker.TypeLimit
	}

	order := broker.Order{
		ID:             id.New(),
		Pair:           req.Pair.String(),
		Amount:         req.Amount,
		FilledQuantity: decimal.Zero,
		Status:         broker.StatusNew,
		Type:           orderType,
		Side:           req.Side,
	}
	if req.LimitPrice != nil {
		limit := *req.LimitPrice
		order.LimitPrice = &limit
	}

	if err := b.queueLocked(req.Pair, order); err != nil {
		return "", err
	}

	var err error
	if orderType == broker.TypeLimit {
		err = b.checkFillLocked(order.ID)
	} else {
		err = b.fillLocked(order.ID)
	}
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

// queueLocked reserves buying power for the order and inserts it in New
// status. The reservation check and deduction happen under the same lock
// so concurrent placements cannot over-commit an asset.
func (b *Broker) queueLocked(pair market.AssetPair, order broker.Order) error {
	quantity, notional, err := b.resolveLocked(pair, order.Amount)
	if err != nil {
		return err
	}

	var asset string
	var needed decimal.Decimal
	if order.Side == broker.Buy {
		asset = pair.Notional
		if order.LimitPrice != nil {
			// Worst case cost: the limit is the most a buy can pay.
			needed = order.LimitPrice.Mul(quantity)
		} else {
			needed = notional
		}
	} else {
		asset = pair.Quantity
		needed = quantity
	}

	if b.ledger.BuyingPower(asset).LessThan(needed) {
		return &broker.InsufficientBuyingPowerError{Asset: asset}
	}
	b.ledger.UpdateBuyingPower(asset, needed.Neg())
	b.orders[order.ID] = order
	return nil
}

// checkFillLocked fills a pending limit order if the current price
// satisfies its limit: at the limit, below it for buys, above it for
// sells. Filled orders are skipped, so repeated price updates are
// idempotent.
func (b *Broker) checkFillLocked(orderID string) error {
	order := b.orders[orderID]
	if order.Status != broker.StatusNew || order.LimitPrice == nil {
		return nil
	}
	pair, err := market.ParsePair(order.Pair)
	if err != nil {
		return err
	}
	current, err := b.notionalPerUnitLocked(pair)
	if err != nil {
		return err
	}

	cmp := current.Cmp(*order.LimitPrice)
	if cmp == 0 || (order.Side == broker.Buy && cmp < 0) || (order.Side == broker.Sell && cmp > 0) {
		return b.fillLocked(orderID)
	}
	return nil
}

// fillLocked settles the order at the current price, which for limit
// orders may differ from the price in effect when buying power was
// reserved.
func (b *Broker) fillLocked(orderID string) error {
	order := b.orders[orderID]
	pair, err := market.ParsePair(order.Pair)
	if err != nil {
		return err
	}
	quantity, notional, err := b.resolveLocked(pair, order.Amount)
	if err != nil {
		return err
	}

	creditedQuantity := quantity
	creditedNotional := notional
	if b.feeRate.IsPositive() {
		keep := decimal.NewFromInt(1).Sub(b.feeRate)
		if order.Side == broker.Buy {
			creditedQuantity = quantity.Mul(keep)
		} else {
			creditedNotional = notional.Mul(keep)
		}
	}

	if order.Side == broker.Buy {
		b.ledger.UpdateBalance(pair.Notional, notional.Neg())
		b.ledger.UpdateBalance(pair.Quantity, creditedQuantity)
		b.ledger.UpdateBuyingPower(pair.Quantity, creditedQuantity)
		if order.LimitPrice != nil {
			// Refund the difference between the worst-case reserved cost
			// and the actual cost.
			b.ledger.UpdateBuyingPower(pair.Notional, order.LimitPrice.Mul(quantity).Sub(notional))
		}
	} else {
		b.ledger.UpdateBalance(pair.Notional, creditedNotional)
		b.ledger.UpdateBuyingPower(pair.Notional, creditedNotional)
		b.ledger.UpdateBalance(pair.Quantity, quantity.Neg())
	}

	averageFillPrice := notional.Div(quantity)
	order.FilledQuantity = quantity
	order.AverageFillPrice = &averageFillPrice
	order.Status = broker.StatusFilled
	b.orders[orderID] = order

	if b.journal != nil {
		err := b.journal.RecordFill(journal.FillRecord{
			OrderID:  order.ID,
			Pair:     order.Pair,
			Side:     string(order.Side),
			Type:     string(order.Type),
			Quantity: quantity,
			Price:    averageFillPrice,
		})
		if err != nil {
			b.log.WithError(err).WithField("order_id", order.ID).Warn("fill not journaled")
		}
	}
	return nil
}

// resolveLocked converts the order amount to a (quantity, notional) pair
// at the current price for pair.
func (b *Broker) resolveLocked(pair market.AssetPair, amount market.Amount) (quantity, notional decimal.Decimal, err error) {
	price, err := b.notionalPerUnitLocked(pair)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if amount.IsNotional() {
		notional = amount.Value()
		quantity = notional.Div(price)
	} else {
		quantity = amount.Value()
		notional = quantity.Mul(price)
	}
	return quantity, notional, nil
}

// GetOrder returns the order with the given id.
func (b *Broker) GetOrder(orderID string) (broker.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	order, ok := b.orders[orderID]
	if !ok {
		return broker.Order{}, &broker.OrderNotFoundError{OrderID: orderID}
	}
	return order, nil
}

// GetOrders returns an unordered snapshot of all orders.
func (b *Broker) GetOrders() []broker.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	orders := make([]broker.Order, 0, len(b.orders))
	for _, order := range b.orders {
		orders = append(orders, order)
	}
	return orders
}
