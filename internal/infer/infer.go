// Package infer classifies literal syntax into types.
//
// Вывод поверхностный: смотрим на первый символ литерала, съедаем ровно его
// синтаксис и возвращаем тип. Ничего не резолвим и ничего не проверяем.
package infer

import (
	"strata/internal/diag"
	"strata/internal/lexer"
	"strata/internal/token"
	"strata/internal/types"
)

// wordDelims terminate a bare word literal inside parameter lists. A call
// stops at its `(` so the caller can skip the arguments as a balanced group.
const wordDelims = ":,)("

// Infer classifies the literal starting at the first non-space byte under c
// (spaces and tabs are skipped, newlines are not). On success the cursor
// stands right after the literal; anything else classifies as Unknown and
// leaves the cursor on the first byte of the value. Unterminated strings,
// arrays and hashes yield Unknown together with an IdxUnexpectedEndOfInput
// error; end of input yields Unknown without error.
func Infer(c *lexer.Cursor, in *types.Interner) (types.TypeID, error) {
	b := in.Builtins()
	c.SkipSpaces()
	if c.EOF() || c.Peek() == '\n' {
		return b.Unknown, nil
	}

	start := c.Mark()
	switch ch := c.Peek(); {
	case ch == '"' || ch == '\'':
		if !c.SkipString() {
			return b.Unknown, diag.Errorf(diag.IdxUnexpectedEndOfInput, c.SpanFrom(start), "unterminated string literal")
		}
		return b.String, nil
	case ch == '[':
		if !c.SkipBalanced('[', ']') {
			return b.Unknown, diag.Errorf(diag.IdxUnexpectedEndOfInput, c.SpanFrom(start), "unterminated array literal")
		}
		return in.Intern(types.MakeArray(b.Unknown)), nil
	case ch == '{':
		if !c.SkipBalanced('{', '}') {
			return b.Unknown, diag.Errorf(diag.IdxUnexpectedEndOfInput, c.SpanFrom(start), "unterminated hash literal")
		}
		return in.Intern(types.MakeHashMap(b.Unknown, b.Unknown)), nil
	case isDigit(ch) || ch == '-' && startsNumber(c):
		if scanNumber(c) {
			return b.Float, nil
		}
		return b.Integer, nil
	}

	// %w[...], <<~ID, if/case/begin: структуру разбирает сканер, здесь не трогаем
	word := c.ReadUntil(wordDelims)
	if kw, ok := token.LookupKeyword(word); ok && kw.IsLiteral() {
		if kw == token.KwNil {
			return b.Nil, nil
		}
		return b.Bool, nil
	}
	c.Reset(start)
	return b.Unknown, nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func startsNumber(c *lexer.Cursor) bool {
	_, next, ok := c.Peek2()
	return ok && isDigit(next)
}
