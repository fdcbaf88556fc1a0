package sim

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/papertrade/broker"
	"github.com/rustyeddy/papertrade/journal"
	"github.com/rustyeddy/papertrade/market"
)

// Environment drives a simulated Client forward in time. On every update
// it replays refresh ticks from the last processed time up to the clock's
// now, pushing the midpoint of each tracked pair's bar into the broker,
// which in turn re-evaluates pending limit orders. Every trading call
// updates first, so callers always observe prices current to the clock.
//
// The clock and bar source are injected, never read from globals, so a
// replay over historical data and a test with hand-built bars drive the
// environment the same way.
type Environment struct {
	client          *Client
	clock           market.Clock
	bars            market.BarDataSource
	pairs           []market.AssetPair
	barDuration     time.Duration
	refreshInterval time.Duration
	lastProcessed   time.Time
	initialized     bool
	journal         journal.Journal
	log             logrus.FieldLogger
}

var _ broker.Environment = (*Environment)(nil)

// EnvironmentBuilder assembles an Environment. Defaults: one-minute bars,
// thirty-second refresh, no tracked pairs, no journal.
type EnvironmentBuilder struct {
	client          *Client
	clock           market.Clock
	bars            market.BarDataSource
	pairs           []market.AssetPair
	barDuration     time.Duration
	refreshInterval time.Duration
	journal         journal.Journal
	log             logrus.FieldLogger
}

func NewEnvironmentBuilder(client *Client, clock market.Clock, bars market.BarDataSource) *EnvironmentBuilder {
	return &EnvironmentBuilder{
		client:          client,
		clock:           clock,
		bars:            bars,
		barDuration:     time.Minute,
		refreshInterval: 30 * time.Second,
	}
}

// SetPairsToTrade sets the pairs whose prices the environment advances.
func (b *EnvironmentBuilder) SetPairsToTrade(pairs ...market.AssetPair) *EnvironmentBuilder {
	b.pairs = pairs
	return b
}

func (b *EnvironmentBuilder) SetBarDuration(d time.Duration) *EnvironmentBuilder {
	b.barDuration = d
	return b
}

func (b *EnvironmentBuilder) SetRefreshInterval(d time.Duration) *EnvironmentBuilder {
	b.refreshInterval = d
	return b
}

// SetJournal records an equity snapshot on every update.
func (b *EnvironmentBuilder) SetJournal(j journal.Journal) *EnvironmentBuilder {
	b.journal = j
	return b
}

func (b *EnvironmentBuilder) SetLogger(log logrus.FieldLogger) *EnvironmentBuilder {
	b.log = log
	return b
}

func (b *EnvironmentBuilder) Build() *Environment {
	log := b.log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Environment{
		client:          b.client,
		clock:           b.clock,
		bars:            b.bars,
		pairs:           b.pairs,
		barDuration:     b.barDuration,
		refreshInterval: b.refreshInterval,
		journal:         b.journal,
		log:             log,
	}
}

// Init must be called once, after construction and before any trading
// call. It anchors the replay at the clock's current time and performs the
// first update.
func (e *Environment) Init() error {
	if e.initialized {
		return broker.ErrAlreadyInitialized
	}
	e.initialized = true
	e.lastProcessed = e.clock.Now()
	return e.Update()
}

// Update catches the broker up with the clock: it steps from the last
// processed time toward now by the refresh interval, setting each tracked
// pair's price from its bar, with a final pass at now itself. Many missed
// ticks are replayed in one call; the loop is driven entirely by the
// clock, never by real-time scheduling.
func (e *Environment) Update() error {
	if !e.initialized {
		return broker.ErrNotInitialized
	}
	now := e.clock.Now()

	for t := e.lastProcessed; !t.After(now); {
		for _, pair := range e.pairs {
			bar, err := e.bars.GetBar(pair, now, e.barDuration)
			if err != nil {
				return err
			}
			if bar == nil {
				continue
			}
			price := bar.Mid()
			if err := e.client.SetNotionalPerUnit(pair, price); err != nil {
				return err
			}
			e.log.WithFields(logrus.Fields{
				"pair":  pair.String(),
				"price": price.String(),
				"time":  now,
			}).Debug("notional per unit updated")
		}
		if t.Equal(now) {
			break
		}
		if next := t.Add(e.refreshInterval); next.Before(now) {
			t = next
		} else {
			t = now
		}
	}
	e.lastProcessed = now

	if e.journal != nil {
		currency := e.client.broker.Currency()
		err := e.journal.RecordEquity(journal.EquitySnapshot{
			Time:        now,
			Cash:        e.client.broker.GetBalance(currency),
			BuyingPower: e.client.broker.GetBuyingPower(currency),
		})
		if err != nil {
			e.log.WithError(err).Warn("equity snapshot not journaled")
		}
	}
	return nil
}

func (e *Environment) PlaceOrder(ctx context.Context, req broker.OrderRequest) (string, error) {
	if err := e.Update(); err != nil {
		return "", err
	}
	return e.client.PlaceOrder(ctx, req)
}

func (e *Environment) GetOrders(ctx context.Context) ([]broker.Order, error) {
	if err := e.Update(); err != nil {
		return nil, err
	}
	return e.client.GetOrders(ctx)
}

func (e *Environment) GetOrder(ctx context.Context, orderID string) (broker.Order, error) {
	if err := e.Update(); err != nil {
		return broker.Order{}, err
	}
	return e.client.GetOrder(ctx, orderID)
}

func (e *Environment) GetAccount(ctx context.Context) (broker.Account, error) {
	if err := e.Update(); err != nil {
		return broker.Account{}, err
	}
	return e.client.GetAccount(ctx)
}

// GetLatestBar returns the most recent bar whose window has fully elapsed.
// A bar whose window still overlaps now is withheld, the way a real feed
// only publishes closed bars; in that case the query retries one window
// earlier.
func (e *Environment) GetLatestBar(_ context.Context, pair market.AssetPair, barDuration time.Duration) (*market.Bar, error) {
	now := e.clock.Now()
	bar, err := e.bars.GetBar(pair, now, barDuration)
	if err != nil || bar == nil {
		return nil, err
	}
	if bar.Time.Add(barDuration).After(now) {
		return e.bars.GetBar(pair, now.Add(-barDuration), barDuration)
	}
	return bar, nil
}
