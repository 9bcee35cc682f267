package infer

import "strata/internal/lexer"

// scanNumber consumes a numeric literal and reports whether it is a float.
// Underscores are digit separators; `.` makes a float only when a digit
// follows (so `1..5` stays an integer range), an exponent always does.
// 0x/0b/0o prefixes read an integer in that base.
func scanNumber(c *lexer.Cursor) bool {
	c.Eat('-')

	if b0, b1, ok := c.Peek2(); ok && b0 == '0' {
		if digits := radixDigits(b1); digits != "" {
			c.Bump()
			c.Bump()
			for !c.EOF() && (c.Peek() == '_' || containsFold(digits, c.Peek())) {
				c.Bump()
			}
			return false
		}
	}

	eatDigits(c)
	isFloat := false
	if b0, b1, ok := c.Peek2(); ok && b0 == '.' && isDigit(b1) {
		c.Bump()
		eatDigits(c)
		isFloat = true
	}
	if ch := c.Peek(); ch == 'e' || ch == 'E' {
		mark := c.Mark()
		c.Bump()
		if ch := c.Peek(); ch == '+' || ch == '-' {
			c.Bump()
		}
		if isDigit(c.Peek()) {
			eatDigits(c)
			isFloat = true
		} else {
			c.Reset(mark)
		}
	}
	return isFloat
}

func eatDigits(c *lexer.Cursor) {
	for !c.EOF() && (isDigit(c.Peek()) || c.Peek() == '_') {
		c.Bump()
	}
}

func radixDigits(prefix byte) string {
	switch prefix {
	case 'x', 'X':
		return "0123456789abcdef"
	case 'b', 'B':
		return "01"
	case 'o', 'O':
		return "01234567"
	default:
		return ""
	}
}

func containsFold(digits string, ch byte) bool {
	if ch >= 'A' && ch <= 'F' {
		ch += 'a' - 'A'
	}
	for i := range len(digits) {
		if digits[i] == ch {
			return true
		}
	}
	return false
}
