package main

import (
	"fmt"
	"io"
	"time"

	"strata/internal/driver"
)

// printTimingSummary sums per-file phases (cache, index, store) across the
// run and prints them next to the wall clock time.
func printTimingSummary(out io.Writer, results []driver.Result, wall time.Duration) {
	if out == nil {
		return
	}
	var order []string
	totals := make(map[string]float64)
	for i := range results {
		for _, ph := range results[i].Timing.Phases {
			if _, seen := totals[ph.Name]; !seen {
				order = append(order, ph.Name)
			}
			totals[ph.Name] += ph.DurationMS
		}
	}
	for _, name := range order {
		fmt.Fprintf(out, "%-6s %.1f ms\n", name, totals[name])
	}
	fmt.Fprintf(out, "%-6s %.1f ms\n", "wall", toMillis(wall))
}
