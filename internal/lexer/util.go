package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// isBlank — пробел, таб, перевод строки. Больше ничего: \r уже сложен в \n при загрузке.
func isBlank(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isIdentByte(b byte) bool {
	return b == '_' || isDec(b) || (b|0x20) >= 'a' && (b|0x20) <= 'z'
}

func isQuote(b byte) bool { return b == '"' || b == '\'' }

// IsConstantName reports whether name is a qualified constant: segments joined
// by "::", each starting with an uppercase letter and continuing with
// identifier characters.
func IsConstantName(name string) bool {
	if name == "" {
		return false
	}
	for seg := range strings.SplitSeq(name, "::") {
		if !isConstantSegment(seg) {
			return false
		}
	}
	return true
}

func isConstantSegment(seg string) bool {
	if seg == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(seg)
	if !unicode.IsUpper(first) {
		return false
	}
	return isIdentString(seg)
}

func isIdentString(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// IsVariableName accepts local, instance (@x), class (@@x) and global ($x)
// variable names as well as constants.
func IsVariableName(name string) bool {
	switch {
	case strings.HasPrefix(name, "@@"):
		name = name[2:]
	case strings.HasPrefix(name, "@"), strings.HasPrefix(name, "$"):
		name = name[1:]
	}
	if name == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(name)
	if unicode.IsDigit(first) {
		return false
	}
	return isIdentString(name)
}
