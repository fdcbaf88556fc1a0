package feed

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/papertrade/market"
)

// Price columns are TEXT so bar prices round-trip without float drift.
const barSchema = `
CREATE TABLE IF NOT EXISTS bars (
	pair TEXT NOT NULL,
	time DATETIME NOT NULL,
	open TEXT NOT NULL,
	high TEXT NOT NULL,
	low TEXT NOT NULL,
	close TEXT NOT NULL,
	PRIMARY KEY (pair, time)
);
`

// SQLiteBars is a bar store backed by a SQLite database, usable both for
// collecting history and as a BarDataSource for replays.
type SQLiteBars struct {
	db *sql.DB
}

var _ market.BarDataSource = (*SQLiteBars)(nil)

func NewSQLiteBars(path string) (*SQLiteBars, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(barSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteBars{db: db}, nil
}

// SaveBar upserts one bar for pair.
func (s *SQLiteBars) SaveBar(pair market.AssetPair, bar market.Bar) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO bars
		(pair, time, open, high, low, close)
		VALUES (?, ?, ?, ?, ?, ?)`,
		pair.String(), bar.Time,
		bar.Open.String(), bar.High.String(), bar.Low.String(), bar.Close.String(),
	)
	return err
}

// GetBar returns the most recent bar at or before the requested time. The
// store holds a single bar resolution, so barDuration is not consulted.
func (s *SQLiteBars) GetBar(pair market.AssetPair, at time.Time, _ time.Duration) (*market.Bar, error) {
	row := s.db.QueryRow(`
		SELECT time, open, high, low, close
		FROM bars WHERE pair = ? AND time <= ?
		ORDER BY time DESC LIMIT 1`,
		pair.String(), at,
	)

	var bar market.Bar
	var open, high, low, cls string
	err := row.Scan(&bar.Time, &open, &high, &low, &cls)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if bar.Open, err = decimal.NewFromString(open); err != nil {
		return nil, err
	}
	if bar.High, err = decimal.NewFromString(high); err != nil {
		return nil, err
	}
	if bar.Low, err = decimal.NewFromString(low); err != nil {
		return nil, err
	}
	if bar.Close, err = decimal.NewFromString(cls); err != nil {
		return nil, err
	}
	return &bar, nil
}

func (s *SQLiteBars) Close() error {
	return s.db.Close()
}
