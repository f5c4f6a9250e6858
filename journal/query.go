package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const runColumns = `run_id, created, dataset, initial_base, step, ratio, max_leverage, fee_rate, levels,
	ticks, trades, rejected, round_trips, final_price, final_wallet, final_borrowed,
	return_pct, max_dd_pct, peak_leverage, failed, error`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var r RunRecord
	err := s.Scan(
		&r.RunID, &r.Created, &r.Dataset, &r.InitialBase, &r.Step, &r.OrderPairSizeRatio,
		&r.MaxLeverage, &r.FeeRate, &r.Levels,
		&r.Ticks, &r.Trades, &r.Rejected, &r.RoundTrips, &r.FinalPrice, &r.FinalWallet, &r.FinalBorrowed,
		&r.ReturnPct, &r.MaxDDPct, &r.PeakLeverage, &r.Failed, &r.Error,
	)
	return r, err
}

// GetRun returns a single run by ID.
func (j *SQLiteJournal) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return r, nil
}

// ListRuns returns every run, best final wallet first.
func (j *SQLiteJournal) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY final_wallet DESC, run_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTicks returns the timelines of a run in tick order.
func (j *SQLiteJournal) ListTicks(ctx context.Context, runID string) ([]TickRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, tick, price, wallet, borrowed
		FROM ticks
		WHERE run_id = ?
		ORDER BY tick ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TickRecord
	for rows.Next() {
		var t TickRecord
		if err := rows.Scan(&t.RunID, &t.Tick, &t.Price, &t.Wallet, &t.Borrowed); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFills returns the accepted orders of a run in trade order.
func (j *SQLiteJournal) ListFills(ctx context.Context, runID string) ([]FillRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, tick, side, price, qty, amount, fee
		FROM fills
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var f FillRecord
		if err := rows.Scan(&f.RunID, &f.Seq, &f.Tick, &f.Side, &f.Price, &f.Qty, &f.Amount, &f.Fee); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
