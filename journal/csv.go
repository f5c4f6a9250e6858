package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

var (
	runsHeader  = []string{"run_id", "created", "dataset", "initial_base", "step", "ratio", "max_leverage", "fee_rate", "levels", "ticks", "trades", "rejected", "round_trips", "final_price", "final_wallet", "final_borrowed", "return_pct", "max_dd_pct", "peak_leverage", "failed", "error"}
	ticksHeader = []string{"run_id", "tick", "price", "wallet", "borrowed"}
	fillsHeader = []string{"run_id", "seq", "tick", "side", "price", "qty", "amount", "fee"}
)

// CSVJournal writes runs.csv, ticks.csv and fills.csv into a directory.
type CSVJournal struct {
	mu sync.Mutex

	runs, ticks, fills *csv.Writer
	files              []*os.File
}

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	j := &CSVJournal{}
	open := func(name string, header []string) (*csv.Writer, error) {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, f)

		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()
		return w, w.Error()
	}

	var err error
	if j.runs, err = open("runs.csv", runsHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	if j.ticks, err = open("ticks.csv", ticksHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	if j.fills, err = open("fills.csv", fillsHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) RecordRun(r RunRecord) error {
	return j.write(j.runs, []string{
		r.RunID,
		r.Created.Format(time.RFC3339),
		r.Dataset,
		f(r.InitialBase),
		f(r.Step),
		f(r.OrderPairSizeRatio),
		f(r.MaxLeverage),
		f(r.FeeRate),
		strconv.Itoa(r.Levels),
		strconv.Itoa(r.Ticks),
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Rejected),
		strconv.Itoa(r.RoundTrips),
		f(r.FinalPrice),
		f(r.FinalWallet),
		f(r.FinalBorrowed),
		f(r.ReturnPct),
		f(r.MaxDDPct),
		f(r.PeakLeverage),
		strconv.FormatBool(r.Failed),
		r.Error,
	})
}

func (j *CSVJournal) RecordTick(t TickRecord) error {
	return j.write(j.ticks, []string{
		t.RunID,
		strconv.Itoa(t.Tick),
		f(t.Price),
		f(t.Wallet),
		f(t.Borrowed),
	})
}

func (j *CSVJournal) RecordFill(r FillRecord) error {
	return j.write(j.fills, []string{
		r.RunID,
		strconv.Itoa(r.Seq),
		strconv.Itoa(r.Tick),
		r.Side,
		f(r.Price),
		f(r.Qty),
		f(r.Amount),
		f(r.Fee),
	})
}

func (j *CSVJournal) write(w *csv.Writer, row []string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, w := range []*csv.Writer{j.runs, j.ticks, j.fills} {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}
	return j.closeFiles()
}

func (j *CSVJournal) closeFiles() error {
	var first error
	for _, fh := range j.files {
		if err := fh.Close(); err != nil && first == nil {
			first = err
		}
	}
	j.files = nil
	return first
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
