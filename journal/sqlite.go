package journal

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordFill(f FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(order_id, pair, side, type, quantity, price)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.OrderID, f.Pair, f.Side, f.Type,
		f.Quantity.String(), f.Price.String(),
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, cash, buying_power)
		VALUES (?, ?, ?)`,
		e.Time, e.Cash.String(), e.BuyingPower.String(),
	)
	return err
}

// ListFills returns all recorded fills in order id order, which for ULID
// order ids is placement order.
func (j *SQLiteJournal) ListFills() ([]FillRecord, error) {
	rows, err := j.db.Query(`
		SELECT order_id, pair, side, type, quantity, price
		FROM fills ORDER BY order_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fills []FillRecord
	for rows.Next() {
		var f FillRecord
		var quantity, price string
		if err := rows.Scan(&f.OrderID, &f.Pair, &f.Side, &f.Type, &quantity, &price); err != nil {
			return nil, err
		}
		if f.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, err
		}
		if f.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

// ListEquity returns the recorded equity curve in time order.
func (j *SQLiteJournal) ListEquity() ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, cash, buying_power
		FROM equity ORDER BY time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		var ts time.Time
		var cash, bp string
		if err := rows.Scan(&ts, &cash, &bp); err != nil {
			return nil, err
		}
		e.Time = ts
		if e.Cash, err = decimal.NewFromString(cash); err != nil {
			return nil, err
		}
		if e.BuyingPower, err = decimal.NewFromString(bp); err != nil {
			return nil, err
		}
		snaps = append(snaps, e)
	}
	return snaps, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
