package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/hazz-dev/sitepulse/internal/checker"
	"github.com/hazz-dev/sitepulse/internal/config"
)

// runChecks probes every target once, one after another, and prints a table.
// Down targets are reported in the table, not through the exit status.
func runChecks(ctx context.Context, out io.Writer, cfg *config.Config) {
	if ctx == nil {
		ctx = context.Background()
	}
	c := checker.New(cfg.ProbeTimeout)

	results := make([]checker.CheckResult, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		results = append(results, c.Check(ctx, target))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tSCHEME\tSTATUS\tCODE\tRESPONSE\tERROR")
	up := 0
	for i, r := range results {
		code := "-"
		if r.StatusCode != 0 {
			code = fmt.Sprint(r.StatusCode)
		}
		resp := "-"
		if r.ResponseTime > 0 {
			resp = r.ResponseTime.Round(time.Millisecond).String()
		}
		msg := r.Error
		if msg == "" && r.Reachable && !r.ContainsExpected {
			msg = "expected text not found"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			cfg.Targets[i].Name,
			r.Scheme,
			r.Status(),
			code,
			resp,
			msg,
		)
		if r.Healthy() {
			up++
		}
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d/%d targets up\n", up, len(results))
}
