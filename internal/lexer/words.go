package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"
)

// SkipBlank пропускает пробелы, табы и переводы строк.
func (c *Cursor) SkipBlank() {
	for !c.EOF() && isBlank(c.Peek()) {
		c.Bump()
	}
}

// SkipSpaces пропускает только пробелы и табы, не переходя на следующую строку.
func (c *Cursor) SkipSpaces() {
	for !c.EOF() && isSpace(c.Peek()) {
		c.Bump()
	}
}

// NextWord skips blanks and returns the next whitespace-delimited word.
// At end of input it returns "".
func (c *Cursor) NextWord() string {
	c.SkipBlank()
	start := c.Mark()
	for !c.EOF() && !isBlank(c.Peek()) {
		c.Bump()
	}
	return c.TextFrom(start)
}

// NextIdent skips blanks and returns the next run of identifier characters
// ([A-Za-z0-9_] plus non-ASCII letters and digits).
func (c *Cursor) NextIdent() string {
	c.SkipBlank()
	start := c.Mark()
	c.bumpIdent()
	return c.TextFrom(start)
}

func (c *Cursor) bumpIdent() {
	for !c.EOF() {
		b := c.Peek()
		if b < utf8.RuneSelf {
			if !isIdentByte(b) {
				return
			}
			c.Bump()
			continue
		}
		r, size := utf8.DecodeRune(c.File.Content[c.Off:c.limit()])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return
		}
		usz, err := safecast.Conv[uint32](size)
		if err != nil {
			panic(fmt.Errorf("bumpIdent overflow: %w", err))
		}
		c.Off += usz
	}
}

// ReadUntil reads from the current position up to (not including) any byte
// in delims or a blank. The stopping byte is left unread.
func (c *Cursor) ReadUntil(delims string) string {
	start := c.Mark()
	for !c.EOF() {
		b := c.Peek()
		if isBlank(b) || strings.IndexByte(delims, b) >= 0 {
			break
		}
		c.Bump()
	}
	return c.TextFrom(start)
}

// ReadUntilAny is ReadUntil without the whitespace stop.
func (c *Cursor) ReadUntilAny(delims string) string {
	start := c.Mark()
	for !c.EOF() && strings.IndexByte(delims, c.Peek()) < 0 {
		c.Bump()
	}
	return c.TextFrom(start)
}

// ReadThrough reads up to delim and consumes it. The returned text excludes
// delim; ok is false when input ended before delim was found.
func (c *Cursor) ReadThrough(delim byte) (text string, ok bool) {
	start := c.Mark()
	for !c.EOF() {
		if c.Peek() == delim {
			text = c.TextFrom(start)
			c.Bump()
			return text, true
		}
		c.Bump()
	}
	return c.TextFrom(start), false
}

// SkipLine пропускает остаток строки вместе с \n.
func (c *Cursor) SkipLine() {
	for !c.EOF() {
		if c.Bump() == '\n' {
			return
		}
	}
}

// SkipString consumes a quoted literal starting at the opening quote. A
// backslash suppresses recognition of the next byte. Double-quoted strings
// may carry #{...} interpolations, which can hold nested strings. Reports
// false when input ends first.
func (c *Cursor) SkipString() bool {
	quote := c.Bump()
	for !c.EOF() {
		b := c.Bump()
		switch {
		case b == '\\':
			c.Bump()
		case b == quote:
			return true
		case quote == '"' && b == '#' && c.Peek() == '{':
			c.Bump()
			if !c.skipInterpolation() {
				return false
			}
		}
	}
	return false
}

func (c *Cursor) skipInterpolation() bool {
	depth := 1
	for !c.EOF() {
		b := c.Peek()
		switch {
		case isQuote(b):
			if !c.SkipString() {
				return false
			}
			continue
		case b == '{':
			depth++
		case b == '}':
			depth--
			if depth == 0 {
				c.Bump()
				return true
			}
		}
		c.Bump()
	}
	return false
}

// SkipBalanced consumes from an opening bracket through its matching closer,
// honoring nesting of the same bracket pair and quoted strings. Reports false
// when input ends first.
func (c *Cursor) SkipBalanced(open, closer byte) bool {
	depth := 0
	for !c.EOF() {
		b := c.Peek()
		switch {
		case isQuote(b):
			if !c.SkipString() {
				return false
			}
			continue
		case b == open:
			depth++
		case b == closer:
			depth--
			if depth == 0 {
				c.Bump()
				return true
			}
		}
		c.Bump()
	}
	return false
}
