package sweep

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/gridsim/backtest"
	"github.com/rustyeddy/gridsim/journal"
	"github.com/rustyeddy/gridsim/metrics"
)

// Outcome is the result of one candidate. Result is nil when the run could
// not be constructed; it is partial when the run failed midway.
type Outcome struct {
	Index     int
	Candidate Candidate
	Result    *backtest.Result
	Err       error
}

func (o Outcome) OK() bool { return o.Err == nil && o.Result != nil }

// Report lists outcomes in candidate order. Best is the index of the
// successful run with the highest final wallet, or -1.
type Report struct {
	Outcomes []Outcome
	Best     int
}

func (r *Report) BestOutcome() (Outcome, bool) {
	if r.Best < 0 {
		return Outcome{}, false
	}
	return r.Outcomes[r.Best], true
}

func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Records returns one journal record per outcome, in candidate order.
func (r *Report) Records() []journal.RunRecord {
	out := make([]journal.RunRecord, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Result != nil {
			out = append(out, o.Result.Record())
			continue
		}
		rec := journal.RunRecord{Step: o.Candidate.Step, OrderPairSizeRatio: o.Candidate.Ratio, Failed: true}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		}
		out = append(out, rec)
	}
	return out
}

// Sweep runs candidates over a shared price series. Every candidate gets its
// own ledger and trader; only the read-only prices are shared.
type Sweep struct {
	Base    backtest.Params // Step and OrderPairSizeRatio are overridden per candidate
	Dataset string
	Workers int // 0 means GOMAXPROCS

	Logger      *zap.Logger
	Journal     journal.Journal
	Metrics     *metrics.Metrics
	RecordTicks bool

	// KeepTimelines keeps per-tick series for every outcome instead of the
	// best one only.
	KeepTimelines bool
}

type job struct {
	i int
	c Candidate
}

// Run evaluates every candidate. Failing candidates are recorded in the
// report and do not stop the sweep. The returned error is non-nil only when
// prices are empty or ctx ends before all candidates ran.
func (s *Sweep) Run(ctx context.Context, prices []float64, cands []Candidate) (*Report, error) {
	if len(prices) == 0 {
		return nil, backtest.ErrNoPrices
	}
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(cands) {
		workers = len(cands)
	}

	rep := &Report{Outcomes: make([]Outcome, len(cands)), Best: -1}
	start := time.Now()

	jobCh := make(chan job)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				o := s.runOne(ctx, log, prices, j)

				mu.Lock()
				rep.Outcomes[j.i] = o
				s.track(rep, j.i)
				mu.Unlock()
			}
		}()
	}

	for i, c := range cands {
		jobCh <- job{i: i, c: c}
	}
	close(jobCh)
	wg.Wait()

	fields := []zap.Field{
		zap.Int("candidates", len(cands)),
		zap.Int("failed", rep.Failed()),
		zap.Duration("took", time.Since(start)),
	}
	if best, ok := rep.BestOutcome(); ok {
		fields = append(fields,
			zap.Float64("best_step", best.Candidate.Step),
			zap.Float64("best_ratio", best.Candidate.Ratio),
			zap.Float64("best_wallet", best.Result.FinalWallet))
	}
	log.Info("sweep finished", fields...)

	return rep, ctx.Err()
}

func (s *Sweep) runOne(ctx context.Context, log *zap.Logger, prices []float64, j job) Outcome {
	p := s.Base
	p.Step = j.c.Step
	p.OrderPairSizeRatio = j.c.Ratio

	r := &backtest.Runner{
		Params:      p,
		Dataset:     s.Dataset,
		Logger:      log.With(zap.Int("candidate", j.i)),
		Journal:     s.Journal,
		Metrics:     s.Metrics,
		RecordTicks: s.RecordTicks,
	}
	res, err := r.Run(ctx, backtest.NewSliceFeed(prices))
	if err != nil {
		log.Debug("candidate failed",
			zap.Int("candidate", j.i),
			zap.Float64("step", j.c.Step),
			zap.Float64("ratio", j.c.Ratio),
			zap.Error(err))
	}
	return Outcome{Index: j.i, Candidate: j.c, Result: res, Err: err}
}

// track updates Best after outcome i landed and drops the timelines of
// whichever run lost. Callers hold the report lock.
func (s *Sweep) track(rep *Report, i int) {
	o := rep.Outcomes[i]
	if !o.OK() {
		if o.Result != nil && !s.KeepTimelines {
			o.Result.DropTimelines()
		}
		return
	}
	if rep.Best < 0 || beats(o, rep.Outcomes[rep.Best]) {
		if rep.Best >= 0 && !s.KeepTimelines {
			rep.Outcomes[rep.Best].Result.DropTimelines()
		}
		rep.Best = i
		return
	}
	if !s.KeepTimelines {
		o.Result.DropTimelines()
	}
}

// beats orders by final wallet, then by lower index.
func beats(a, b Outcome) bool {
	if a.Result.FinalWallet != b.Result.FinalWallet {
		return a.Result.FinalWallet > b.Result.FinalWallet
	}
	return a.Index < b.Index
}
