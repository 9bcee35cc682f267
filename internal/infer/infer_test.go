package infer

import (
	"errors"
	"testing"

	"strata/internal/diag"
	"strata/internal/lexer"
	"strata/internal/source"
	"strata/internal/types"
)

func cursorFor(content string) *lexer.Cursor {
	fs := source.NewFileSet()
	c := lexer.NewCursor(fs.Get(fs.AddVirtual("lit.rb", []byte(content))))
	return &c
}

func TestInferLiteralClassification(t *testing.T) {
	tests := []struct {
		input string
		want  string
		rest  string
	}{
		{`"hello", b`, "String", ", b"},
		{`'it''s'`, "String", "'s'"},
		{`"a\"b" x`, "String", " x"},
		{`"#{"nested"}"`, "String", ""},
		{"[1, [2, 3], \"]\"])", "Array<Unknown>", ")"},
		{"{a: 1, b: {c: 2}} tail", "HashMap<Unknown, Unknown>", " tail"},
		{"42)", "Integer", ")"},
		{"1_000_000", "Integer", ""},
		{"-7, x", "Integer", ", x"},
		{"0x1F rest", "Integer", " rest"},
		{"3.14", "Float", ""},
		{"1e10", "Float", ""},
		{"2.5E-3,", "Float", ","},
		{"1..5", "Integer", "..5"},
		{"7.times", "Integer", ".times"},
		{"1e", "Integer", "e"},
		{"nil)", "Nil", ")"},
		{"true, y", "Bool", ", y"},
		{"false", "Bool", ""},
		{"  \tnil", "Nil", ""},
		{"Foo.new", "Unknown", "Foo.new"},
		{"some_call(1)", "Unknown", "some_call(1)"},
		{"-x", "Unknown", "-x"},
		{"  if ready", "Unknown", "if ready"},
		{"%w[class module end]", "Unknown", "%w[class module end]"},
		{"<<~SQL", "Unknown", "<<~SQL"},
		{"nil_or_value", "Unknown", "nil_or_value"},
		{":sym, b", "Unknown", ":sym, b"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			in := types.NewInterner()
			c := cursorFor(tt.input)
			id, err := Infer(c, in)
			if err != nil {
				t.Fatalf("Infer(%q): unexpected error %v", tt.input, err)
			}
			if got := in.String(id); got != tt.want {
				t.Errorf("Infer(%q) = %s, want %s", tt.input, got, tt.want)
			}
			if rest := string(c.File.Content[c.Off:]); rest != tt.rest {
				t.Errorf("rest after %q = %q, want %q", tt.input, rest, tt.rest)
			}
		})
	}
}

func TestInferUnterminatedLiterals(t *testing.T) {
	for _, input := range []string{`"abc`, `'abc\'`, "[1, 2", "{a: 1", `["]"`} {
		t.Run(input, func(t *testing.T) {
			in := types.NewInterner()
			id, err := Infer(cursorFor(input), in)
			if !errors.Is(err, diag.IdxUnexpectedEndOfInput) {
				t.Fatalf("expected IdxUnexpectedEndOfInput, got %v", err)
			}
			if id != in.Builtins().Unknown {
				t.Errorf("expected Unknown, got %s", in.String(id))
			}
		})
	}
}

func TestInferAtEndOfInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\nnext_line"} {
		in := types.NewInterner()
		c := cursorFor(input)
		id, err := Infer(c, in)
		if err != nil {
			t.Fatalf("Infer(%q): %v", input, err)
		}
		if id != in.Builtins().Unknown {
			t.Errorf("Infer(%q) = %s, want Unknown", input, in.String(id))
		}
	}
}

// A `.` makes a Float only when a digit follows it; an exponent alone does too.
func TestInferNumberDotAndExponent(t *testing.T) {
	tests := map[string]string{
		"3.14":    "Float",
		"1e5":     "Float",
		"1.0e3":   "Float",
		"1..5":    "Integer",
		"1...5":   "Integer",
		"7.times": "Integer",
		"10":      "Integer",
	}
	for input, want := range tests {
		in := types.NewInterner()
		id, err := Infer(cursorFor(input), in)
		if err != nil {
			t.Fatalf("Infer(%q): %v", input, err)
		}
		if got := in.String(id); got != want {
			t.Errorf("Infer(%q) = %s, want %s", input, got, want)
		}
	}
}
