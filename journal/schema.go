// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	dataset TEXT NOT NULL,
	initial_base REAL NOT NULL,
	step REAL NOT NULL,
	ratio REAL NOT NULL,
	max_leverage REAL NOT NULL,
	fee_rate REAL NOT NULL,
	levels INTEGER NOT NULL,
	ticks INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	rejected INTEGER NOT NULL,
	round_trips INTEGER NOT NULL,
	final_price REAL NOT NULL,
	final_wallet REAL NOT NULL,
	final_borrowed REAL NOT NULL,
	return_pct REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	peak_leverage REAL NOT NULL,
	failed INTEGER NOT NULL,
	error TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ticks (
	run_id TEXT NOT NULL,
	tick INTEGER NOT NULL,
	price REAL NOT NULL,
	wallet REAL NOT NULL,
	borrowed REAL NOT NULL,
	PRIMARY KEY (run_id, tick)
);

CREATE TABLE IF NOT EXISTS fills (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	tick INTEGER NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	qty REAL NOT NULL,
	amount REAL NOT NULL,
	fee REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_wallet ON runs(final_wallet);
`
