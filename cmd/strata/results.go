package main

import (
	"fmt"
	"io"

	"strata/internal/diag"
	"strata/internal/driver"
	"strata/internal/source"
)

// driverRun is the outcome of indexing one CLI target.
type driverRun struct {
	fs      *source.FileSet
	results []driver.Result
}

func newFileSet(base string) *source.FileSet {
	return source.NewFileSetWithBase(base)
}

// mergedBag collects the diagnostics of every file, sorted by position.
func (r *driverRun) mergedBag(maxDiagnostics int, noWarnings bool) *diag.Bag {
	bag := diag.NewBag(maxDiagnostics)
	for i := range r.results {
		if noWarnings {
			filtered := diag.NewBag(r.results[i].Bag.Len())
			for _, d := range r.results[i].Bag.Items() {
				if d.Severity != diag.SevWarning {
					filtered.Add(d)
				}
			}
			bag.Merge(filtered)
			continue
		}
		bag.Merge(r.results[i].Bag)
	}
	bag.Sort()
	return bag
}

func (r *driverRun) failed() bool {
	for i := range r.results {
		if r.results[i].Failed() {
			return true
		}
	}
	return false
}

func printSummary(w io.Writer, s driver.Summary) {
	fmt.Fprintf(w, "indexed %d files (%d failed, %d cached): %d scopes, %d functions, %d variables\n",
		s.Files, s.Failed, s.Cached, s.Scopes, s.Functions, s.Variables)
}
