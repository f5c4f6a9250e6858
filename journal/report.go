package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"
)

func PrintRun(w io.Writer, r RunRecord) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Grid Simulation Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	if r.Dataset != "" {
		fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Parameters")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Initial Base:  %.2f\n", r.InitialBase)
	fmt.Fprintf(w, "Step:          %.4f%%\n", r.Step*100)
	fmt.Fprintf(w, "Order Ratio:   %.4f%%\n", r.OrderPairSizeRatio*100)
	fmt.Fprintf(w, "Max Leverage:  %.2f\n", r.MaxLeverage)
	if r.FeeRate > 0 {
		fmt.Fprintf(w, "Fee Rate:      %.4f%%\n", r.FeeRate*100)
	}
	fmt.Fprintf(w, "Grid Levels:   %d each side\n", r.Levels)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Results")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Ticks:         %d\n", r.Ticks)
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Rejected:      %d\n", r.Rejected)
	fmt.Fprintf(w, "Round Trips:   %d\n", r.RoundTrips)
	fmt.Fprintf(w, "Final Price:   %.6f\n", r.FinalPrice)
	fmt.Fprintf(w, "Final Wallet:  %.2f\n", r.FinalWallet)
	fmt.Fprintf(w, "Final Borrow:  %.2f\n", r.FinalBorrowed)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.ReturnPct)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDDPct)
	fmt.Fprintf(w, "Peak Leverage: %.4f\n", r.PeakLeverage)

	if r.Failed {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "FAILED:        %s\n", r.Error)
	}
	fmt.Fprintln(w)
}

// PrintSweep prints one line per run in the order given.
func PrintSweep(w io.Writer, runs []RunRecord) {
	fmt.Fprintf(w, "%-4s %-10s %-10s %12s %12s %8s %8s  %s\n",
		"#", "step", "ratio", "wallet", "borrow", "trades", "reject", "status")
	for i, r := range runs {
		status := "ok"
		if r.Failed {
			status = "FAILED: " + r.Error
		}
		fmt.Fprintf(w, "%-4d %-10.5f %-10.5f %12.2f %12.2f %8d %8d  %s\n",
			i, r.Step, r.OrderPairSizeRatio, r.FinalWallet, r.FinalBorrowed, r.Trades, r.Rejected, status)
	}
}

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrgTemplate = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// FormatRunOrg renders a run as an Org-mode block.
func FormatRunOrg(r RunRecord) (string, error) {
	buf := new(bytes.Buffer)
	if err := runOrgTemplate.Execute(buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func WriteRunOrg(path string, r RunRecord) error {
	s, err := FormatRunOrg(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const RunOrgTemplate = `* GRID RUN: step {{printf "%.4f" .Step}} ratio {{printf "%.4f" .OrderPairSizeRatio}}
:PROPERTIES:
:RUN_ID:        {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:DATASET:       {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:INITIAL_BASE:  {{printf "%.2f" .InitialBase}}
:MAX_LEVERAGE:  {{printf "%.2f" .MaxLeverage}}
:LEVELS:        {{.Levels}}
:TICKS:         {{.Ticks}}
:TRADES:        {{.Trades}}
:REJECTED:      {{.Rejected}}
:ROUND_TRIPS:   {{.RoundTrips}}
:FINAL_WALLET:  {{printf "%.2f" .FinalWallet}}
:FINAL_BORROW:  {{printf "%.2f" .FinalBorrowed}}
:RETURN_PCT:    {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:    {{printf "%.2f" .MaxDDPct}}
:PEAK_LEVERAGE: {{printf "%.4f" .PeakLeverage}}
:CREATED:       [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Parameters
| Parameter      | Value |
|----------------+-------|
| Step %         | {{printf "%.4f" (mul100 .Step)}} |
| Order ratio %  | {{printf "%.4f" (mul100 .OrderPairSizeRatio)}} |
| Fee rate %     | {{printf "%.4f" (mul100 .FeeRate)}} |
{{- if .Failed }}

** Failure
- {{.Error}}
{{- end }}
`
