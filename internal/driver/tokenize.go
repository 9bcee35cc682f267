package driver

import (
	"context"

	"strata/internal/diag"
	"strata/internal/infer"
	"strata/internal/lexer"
	"strata/internal/source"
	"strata/internal/types"
)

// ScanItem is one expression of the stream. Assignments also carry the
// inferred type of their literal.
type ScanItem struct {
	Expr lexer.Expression
	Type types.TypeID
}

// ScanResult is the raw expression stream of one file.
type ScanResult struct {
	FileID source.FileID
	Items  []ScanItem
	Types  *types.Interner
	Bag    *diag.Bag
}

// Scan loads path and collects its expressions up to EOF or the first
// structural error, which is stored in Bag and also returned.
func Scan(ctx context.Context, fs *source.FileSet, path string, maxDiagnostics int) (*ScanResult, error) {
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	bag := diag.NewBag(maxDiagnostics)
	in := types.NewInterner()
	res := &ScanResult{FileID: fileID, Types: in, Bag: bag}

	sc := lexer.New(fs.Get(fileID), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		expr, err := sc.NextExpression()
		if err != nil {
			bag.AddError(err, diag.UnknownCode)
			return res, err
		}
		item := ScanItem{Expr: expr}
		if expr.Kind == lexer.ExprAssignment {
			// литерал съедаем так же, как это делает индексатор
			if item.Type, err = infer.Infer(sc.Cursor(), in); err != nil {
				bag.AddError(err, diag.UnknownCode)
				return res, err
			}
		}
		res.Items = append(res.Items, item)
		if expr.Kind == lexer.ExprEOF {
			return res, nil
		}
	}
}
