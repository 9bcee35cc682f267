package fuzztests

import (
	"context"
	"errors"
	"testing"

	"strata/internal/diag"
	"strata/internal/indexer"
	"strata/internal/source"
	"strata/internal/testkit"
)

func FuzzIndex(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		table, file, err := indexer.IndexSource(context.Background(), source.NewFileSet(), "fuzz.rb", input, indexer.Options{})
		if err != nil {
			var derr *diag.Error
			if !errors.As(err, &derr) {
				t.Fatalf("non-diagnostic index error: %v", err)
			}
			if derr.Diagnostic.Severity != diag.SevError {
				t.Fatalf("fatal diagnostic with severity %v", derr.Diagnostic.Severity)
			}
			return
		}
		if err := table.Validate(); err != nil {
			t.Fatalf("validate: %v", err)
		}
		if err := testkit.CheckTableInvariants(table, file); err != nil {
			t.Fatalf("invariants: %v", err)
		}
	})
}
