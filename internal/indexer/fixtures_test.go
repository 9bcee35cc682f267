package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"strata/internal/diag"
	"strata/internal/source"
	"strata/internal/testkit"
)

// failingFixtures lists testdata files that must stop with the given code.
var failingFixtures = map[string]diag.Code{
	"unmatched.rb": diag.IdxUnmatchedClose,
}

func TestIndexTestdataFixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "testdata", "ruby", "*.rb"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no fixtures found")
	}
	for _, path := range paths {
		name := filepath.Base(path)
		t.Run(name, func(t *testing.T) {
			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			table, file, err := IndexSource(context.Background(), source.NewFileSet(), name, content, Options{})
			if code, ok := failingFixtures[name]; ok {
				if !errors.Is(err, code) {
					t.Fatalf("expected %s, got %v", code.ID(), err)
				}
				return
			}
			if err != nil {
				t.Fatalf("index %s: %v", name, err)
			}
			if err := table.Validate(); err != nil {
				t.Fatalf("validate: %v", err)
			}
			if err := testkit.CheckTableInvariants(table, file); err != nil {
				t.Fatalf("invariants: %v", err)
			}
		})
	}
}

func TestHeredocFixtureShape(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("..", "..", "testdata", "ruby", "heredoc.rb"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	table := mustIndex(t, string(content))
	report := mustResolve(t, table, "Report")
	if _, ok := report.Var("QUERY"); !ok {
		t.Error("QUERY not recorded")
	}
	if _, ok := report.Function("render"); !ok {
		t.Error("render not registered")
	}
	if _, ok := table.Resolve(table.Root, "Report::Hidden"); ok {
		t.Error("class inside =begin/=end must be skipped")
	}
	if st := table.Stats(); st.Scopes != 2 {
		t.Errorf("expected Report and render body, got %+v", st)
	}
}
