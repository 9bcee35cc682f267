package indexer

import (
	"strata/internal/diag"
	"strata/internal/infer"
	"strata/internal/lexer"
	"strata/internal/symbols"
	"strata/internal/types"
)

const paramDelims = ":,)="

// parseParams reads `(a, b = 1, *rest, k:, v: "x", **opts, &blk)` into fn.
// Positional parameters (plain and *rest) after the first keyword parameter
// are rejected with IdxParameterOrderViolation.
func parseParams(c *lexer.Cursor, in *types.Interner, fn *symbols.Function) error {
	unknown := in.Builtins().Unknown
	c.Eat('(')
	sawKeyword := false
	for {
		c.SkipBlank()
		if c.EOF() || c.Eat(')') {
			return nil
		}
		if c.Eat(',') {
			continue
		}

		start := c.Mark()
		switch b0, b1, _ := c.Peek2(); {
		case b0 == '*' && b1 == '*':
			c.Bump()
			c.Bump()
			fn.KeywordRest = orAnonymous(c.ReadUntil(paramDelims), "**")
			sawKeyword = true
		case b0 == '*':
			c.Bump()
			name := orAnonymous(c.ReadUntil(paramDelims), "*")
			if sawKeyword {
				return orderViolation(c, start, name)
			}
			fn.Rest = name
		case b0 == '&':
			c.Bump()
			fn.Block = orAnonymous(c.ReadUntil(paramDelims), "&")
		default:
			name := c.ReadUntil(paramDelims)
			if name == "" {
				// мусор вроде `(;)` — пропускаем байт, чтобы не зациклиться
				c.Bump()
				continue
			}
			p := symbols.Param{Name: name, Type: unknown}
			if c.Eat(':') {
				if err := readDefault(c, in, &p, ""); err != nil {
					return err
				}
				p.Span = c.SpanFrom(start)
				if _, dup := fn.Keyword[name]; !dup {
					fn.KeywordOrder = append(fn.KeywordOrder, name)
				}
				fn.Keyword[name] = p
				sawKeyword = true
				break
			}
			if sawKeyword {
				return orderViolation(c, start, name)
			}
			if err := readDefault(c, in, &p, "="); err != nil {
				return err
			}
			p.Span = c.SpanFrom(start)
			fn.Positional = append(fn.Positional, p)
		}
		skipParamTail(c)
	}
}

// readDefault infers the default value of p into p.Default when one follows;
// p.Type is left Unknown. For positional
// parameters intro is "=", keyword parameters have already consumed ':'.
func readDefault(c *lexer.Cursor, in *types.Interner, p *symbols.Param, intro string) error {
	c.SkipSpaces()
	if intro != "" && !c.Eat(intro[0]) {
		return nil
	}
	c.SkipSpaces()
	switch c.Peek() {
	case ',', ')', 0:
		return nil
	}
	typ, err := infer.Infer(c, in)
	if err != nil {
		return err
	}
	p.Default = &typ
	return nil
}

// skipParamTail skips whatever remains of the current parameter (a default
// like `compute(1, 2)` that inference did not consume) up to the next
// top-level `,` or `)`.
func skipParamTail(c *lexer.Cursor) {
	for !c.EOF() {
		switch c.Peek() {
		case ',', ')':
			return
		case '"', '\'':
			c.SkipString()
		case '(':
			c.SkipBalanced('(', ')')
		case '[':
			c.SkipBalanced('[', ']')
		case '{':
			c.SkipBalanced('{', '}')
		default:
			c.Bump()
		}
	}
}

func orderViolation(c *lexer.Cursor, start lexer.Mark, name string) error {
	return diag.Errorf(diag.IdxParameterOrderViolation, c.SpanFrom(start),
		"positional parameter %q follows keyword parameters", name)
}

func orAnonymous(name, marker string) string {
	if name == "" {
		return marker
	}
	return name
}
