package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"strata/internal/lexer"
	"strata/internal/source"
)

// ExpressionItem pairs a scanned expression with the inferred type of its
// literal (assignments only).
type ExpressionItem struct {
	Expr lexer.Expression
	Type string
}

// ExpressionOutput is the JSON form of one expression.
type ExpressionOutput struct {
	Kind    string      `json:"kind"`
	Keyword string      `json:"keyword,omitempty"`
	Name    string      `json:"name,omitempty"`
	Super   string      `json:"super,omitempty"`
	Params  string      `json:"params,omitempty"`
	Endless bool        `json:"endless,omitempty"`
	Closes  string      `json:"closes,omitempty"`
	Type    string      `json:"type,omitempty"`
	Span    source.Span `json:"span"`
}

// FormatExpressionsPretty выводит выражения в человекочитаемом формате
func FormatExpressionsPretty(w io.Writer, items []ExpressionItem, fs *source.FileSet) error {
	for i, it := range items {
		e := it.Expr
		startPos, endPos := fs.Resolve(e.Span)

		if _, err := fmt.Fprintf(w, "%3d: %-11s", i+1, e.Kind.String()); err != nil {
			return err
		}
		if e.Name != "" {
			fmt.Fprintf(w, " %q", e.Name)
		}
		if e.Params != "" {
			fmt.Fprintf(w, " %s", e.Params)
		}
		if e.Super != "" {
			fmt.Fprintf(w, " < %s", e.Super)
		}
		if e.Endless {
			fmt.Fprint(w, " (endless)")
		}
		if e.Kind == lexer.ExprClose {
			fmt.Fprintf(w, " (%s)", e.Marker.Keyword)
		}
		if it.Type != "" {
			fmt.Fprintf(w, " : %s", it.Type)
		}
		fmt.Fprintf(w, " at %d:%d-%d:%d\n",
			startPos.Line, startPos.Col,
			endPos.Line, endPos.Col)

		if e.Kind == lexer.ExprEOF {
			break
		}
	}
	return nil
}

// FormatExpressionsJSON выводит выражения в JSON формате
func FormatExpressionsJSON(w io.Writer, items []ExpressionItem) error {
	output := make([]ExpressionOutput, 0, len(items))
	for _, it := range items {
		e := it.Expr
		out := ExpressionOutput{
			Kind:    e.Kind.String(),
			Name:    e.Name,
			Super:   e.Super,
			Params:  e.Params,
			Endless: e.Endless,
			Type:    it.Type,
			Span:    e.Span,
		}
		switch e.Kind {
		case lexer.ExprClassOpen, lexer.ExprFnDef, lexer.ExprBlockOpen:
			out.Keyword = e.Keyword.String()
		case lexer.ExprClose:
			out.Keyword = e.Keyword.String()
			out.Closes = e.Marker.Keyword.String()
		}
		output = append(output, out)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
