package journal

import (
	"encoding/csv"
	"os"
	"time"
)

type CSVJournal struct {
	fills  *csv.Writer
	equity *csv.Writer
	ff, ef *os.File
}

func NewCSV(fillsPath, equityPath string) (*CSVJournal, error) {
	ff, err := os.Create(fillsPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		ff.Close()
		return nil, err
	}

	fw := csv.NewWriter(ff)
	ew := csv.NewWriter(ef)

	if err := fw.Write([]string{"order_id", "pair", "side", "type", "quantity", "price"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"time", "cash", "buying_power"}); err != nil {
		return nil, err
	}

	fw.Flush()
	if err := fw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{fw, ew, ff, ef}, nil
}

func (j *CSVJournal) RecordFill(f FillRecord) error {
	j.fills.Write([]string{
		f.OrderID,
		f.Pair,
		f.Side,
		f.Type,
		f.Quantity.String(),
		f.Price.String(),
	})
	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		e.Cash.String(),
		e.BuyingPower.String(),
	})
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.fills.Flush()
	j.equity.Flush()
	if err := j.ff.Close(); err != nil {
		j.ef.Close()
		return err
	}
	return j.ef.Close()
}
