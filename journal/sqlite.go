package journal

import (
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	mu sync.Mutex
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY
	// when sweep workers share the journal.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordRun(r RunRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, created, dataset, initial_base, step, ratio, max_leverage, fee_rate, levels,
		 ticks, trades, rejected, round_trips, final_price, final_wallet, final_borrowed,
		 return_pct, max_dd_pct, peak_leverage, failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Dataset, r.InitialBase, r.Step, r.OrderPairSizeRatio,
		r.MaxLeverage, r.FeeRate, r.Levels,
		r.Ticks, r.Trades, r.Rejected, r.RoundTrips, r.FinalPrice, r.FinalWallet, r.FinalBorrowed,
		r.ReturnPct, r.MaxDDPct, r.PeakLeverage, r.Failed, r.Error,
	)
	return err
}

func (j *SQLiteJournal) RecordTick(t TickRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT INTO ticks (run_id, tick, price, wallet, borrowed)
		VALUES (?, ?, ?, ?, ?)`,
		t.RunID, t.Tick, t.Price, t.Wallet, t.Borrowed,
	)
	return err
}

func (j *SQLiteJournal) RecordFill(f FillRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT INTO fills (run_id, seq, tick, side, price, qty, amount, fee)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.RunID, f.Seq, f.Tick, f.Side, f.Price, f.Qty, f.Amount, f.Fee,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
