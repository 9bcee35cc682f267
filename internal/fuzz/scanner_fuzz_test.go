package fuzztests

import (
	"errors"
	"testing"

	"strata/internal/diag"
	"strata/internal/lexer"
	"strata/internal/source"
)

const maxFuzzInput = 1 << 16 // 64 KiB

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}

func FuzzScanner(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.rb", input))
		bag := diag.NewBag(64)
		sc := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})

		// каждое выражение съедает хотя бы один байт
		for range len(input) + 2 {
			expr, err := sc.NextExpression()
			if err != nil {
				var derr *diag.Error
				if !errors.As(err, &derr) {
					t.Fatalf("non-diagnostic scanner error: %v", err)
				}
				return
			}
			if !file.Whole().Contains(expr.Span) {
				t.Fatalf("%s span %d..%d out of bounds (len %d)", expr.Kind, expr.Span.Start, expr.Span.End, len(input))
			}
			if expr.Kind == lexer.ExprEOF {
				return
			}
		}
		t.Fatalf("scanner made no progress on %d bytes", len(input))
	})
}
