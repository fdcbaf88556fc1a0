package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrade/market"
)

// LoadCSV reads canonical bar CSV rows into an in-memory store:
//
//	time,pair,open,high,low,close
//
// where time is RFC3339 or RFC3339Nano and pair is "QUANTITY/NOTIONAL".
// A header row ("time,...") is allowed; empty and short rows are skipped.
func LoadCSV(path string) (*Bars, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	bars := NewBars()
	sawFirst := false
	for {
		row, err := r.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		pair, bar, ok, err := parseBarRow(row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		bars.Add(pair, bar)
	}
}

func parseBarRow(row []string) (market.AssetPair, market.Bar, bool, error) {
	// Need at least: time,pair,open,high,low,close
	if len(row) < 6 {
		return market.AssetPair{}, market.Bar{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return market.AssetPair{}, market.Bar{}, false, nil
	}
	// Accept RFC3339 or RFC3339Nano.
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, ts)
		if err2 != nil {
			return market.AssetPair{}, market.Bar{}, false, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = t2
	}

	pair, err := market.ParsePair(strings.TrimSpace(row[1]))
	if err != nil {
		return market.AssetPair{}, market.Bar{}, false, err
	}

	var prices [4]decimal.Decimal
	for i, name := range []string{"open", "high", "low", "close"} {
		prices[i], err = decimal.NewFromString(strings.TrimSpace(row[2+i]))
		if err != nil {
			return market.AssetPair{}, market.Bar{}, false, fmt.Errorf("bad %s %q: %w", name, row[2+i], err)
		}
	}

	bar := market.Bar{
		Open:  prices[0],
		High:  prices[1],
		Low:   prices[2],
		Close: prices[3],
		Time:  t,
	}
	return pair, bar, true, nil
}
