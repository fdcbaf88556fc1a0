// Package feed provides bar data sources for the simulated environment:
// an in-memory store, a CSV file loader and a SQLite-backed store. Each
// serves single-resolution bar history, answering queries with the most
// recent bar at or before the requested time.
package feed

import (
	"sort"
	"time"

	"github.com/rustyeddy/papertrade/market"
)

// Bars is an in-memory bar store.
type Bars struct {
	bars map[string][]market.Bar
}

var _ market.BarDataSource = (*Bars)(nil)

func NewBars() *Bars {
	return &Bars{bars: make(map[string][]market.Bar)}
}

// Add inserts a bar for pair, keeping the pair's history time-sorted.
func (b *Bars) Add(pair market.AssetPair, bar market.Bar) {
	key := pair.String()
	bars := append(b.bars[key], bar)
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	b.bars[key] = bars
}

// GetBar returns the most recent bar at or before the requested time. The
// store holds a single bar resolution, so barDuration is not consulted.
func (b *Bars) GetBar(pair market.AssetPair, at time.Time, _ time.Duration) (*market.Bar, error) {
	bars := b.bars[pair.String()]
	// First bar strictly after at; the one before it is the answer.
	i := sort.Search(len(bars), func(i int) bool { return bars[i].Time.After(at) })
	if i == 0 {
		return nil, nil
	}
	bar := bars[i-1]
	return &bar, nil
}
