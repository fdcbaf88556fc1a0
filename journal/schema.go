package journal

// Decimal columns are stored as TEXT so settlement amounts round-trip
// without float drift.
const Schema = `
CREATE TABLE IF NOT EXISTS fills (
	order_id TEXT PRIMARY KEY,
	pair TEXT NOT NULL,
	side TEXT NOT NULL,
	type TEXT NOT NULL,
	quantity TEXT NOT NULL,
	price TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	cash TEXT NOT NULL,
	buying_power TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
