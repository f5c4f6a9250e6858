package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/gridsim/backtest"
	"github.com/rustyeddy/gridsim/grid"
	"github.com/rustyeddy/gridsim/simerr"
	"github.com/rustyeddy/gridsim/sweep"
)

// getGrid handles GET /api/v1/grid?price=&step=&levels=
func (s *Server) getGrid(c *gin.Context) {
	price, err := strconv.ParseFloat(c.Query("price"), 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Errorf("price: %w", err))
		return
	}
	step, err := strconv.ParseFloat(c.DefaultQuery("step", "0.02"), 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Errorf("step: %w", err))
		return
	}
	levels, err := strconv.Atoi(c.DefaultQuery("levels", "10"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Errorf("levels: %w", err))
		return
	}

	g, err := grid.Build(price, step, levels)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}
	c.JSON(http.StatusOK, GridResponse{
		Anchor:      g.Anchor(),
		AnchorIndex: g.AnchorIndex(),
		Step:        g.Step(),
		Levels:      g.Levels(),
	})
}

// simulate handles POST /api/v1/simulate
func (s *Server) simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	if err := s.checkPrices(req.Prices); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	params, err := s.params(req.Params)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}
	r := &backtest.Runner{
		Params:  params,
		Dataset: req.Dataset,
		Logger:  s.log(),
		Journal: s.Journal,
		Metrics: s.Metrics,
	}
	res, err := r.Run(c.Request.Context(), backtest.NewSliceFeed(req.Prices))
	if res == nil {
		status, code := http.StatusInternalServerError, "SIMULATION_ERROR"
		if errors.Is(err, simerr.ErrConfig) {
			status, code = http.StatusBadRequest, "INVALID_CONFIG"
		}
		fail(c, status, code, err)
		return
	}

	// a failed run still carries its partial timelines
	resp := SimulateResponse{Summary: summarize(res)}
	if req.IncludeTimelines {
		resp.Timelines = &Timelines{
			Price:    res.Prices,
			Wallet:   res.Wallet,
			Borrowed: res.Borrowed,
			Grid:     res.Grid,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// sweep handles POST /api/v1/sweep
func (s *Server) sweep(c *gin.Context) {
	var req SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	if err := s.checkPrices(req.Prices); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	maxSweep := s.MaxSweep
	if maxSweep <= 0 {
		maxSweep = 500
	}
	if req.N < 1 || req.N > maxSweep {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Errorf("n must be in [1, %d], got %d", maxSweep, req.N))
		return
	}

	bounds := sweep.DefaultBounds()
	if req.Bounds != nil {
		bounds = *req.Bounds
	}
	cands, err := sweep.Population(sweep.NewRand(req.Seed), req.N, bounds)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}
	base, err := s.params(req.Params)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}

	sw := &sweep.Sweep{
		Base:    base,
		Dataset: req.Dataset,
		Workers: req.Workers,
		Logger:  s.log(),
		Journal: s.Journal,
		Metrics: s.Metrics,
	}
	rep, err := sw.Run(c.Request.Context(), req.Prices, cands)
	if rep == nil {
		fail(c, http.StatusInternalServerError, "SWEEP_ERROR", err)
		return
	}

	resp := SweepResponse{Best: rep.Best, Failed: rep.Failed(), Outcomes: make([]RunSummary, len(rep.Outcomes))}
	for i, o := range rep.Outcomes {
		resp.Outcomes[i] = summarizeOutcome(o)
	}
	c.JSON(http.StatusOK, resp)
}

// listRuns handles GET /api/v1/runs
func (s *Server) listRuns(c *gin.Context) {
	runs, err := s.Runs.ListRuns(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "JOURNAL_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// getRun handles GET /api/v1/runs/:id
func (s *Server) getRun(c *gin.Context) {
	run, err := s.Runs.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// params picks the request's parameters, else the server's, else the
// defaults. The level count is bounded before any grid is allocated.
func (s *Server) params(p *backtest.Params) (backtest.Params, error) {
	out := s.Params
	switch {
	case p != nil:
		out = *p
	case out == (backtest.Params{}):
		out = backtest.DefaultParams()
	}
	if out.Levels < 0 || out.Levels > grid.MaxLevels {
		return out, simerr.Configf("levels", "must be in [0, %d], got %d", grid.MaxLevels, out.Levels)
	}
	return out, nil
}

func (s *Server) checkPrices(prices []float64) error {
	if len(prices) == 0 {
		return backtest.ErrNoPrices
	}
	limit := s.MaxPrices
	if limit <= 0 {
		limit = DefaultMaxPrices
	}
	if len(prices) > limit {
		return fmt.Errorf("at most %d prices per request, got %d", limit, len(prices))
	}
	return nil
}
