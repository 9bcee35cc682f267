package token

// Kind classifies a keyword.
type Kind uint8

const (
	Invalid Kind = iota

	// структурные
	KwClass
	KwModule
	KwDef
	KwEnd

	// открывают блок, закрываемый 'end'
	KwIf
	KwUnless
	KwWhile
	KwUntil
	KwFor
	KwCase
	KwBegin
	KwDo

	// литеральные
	KwNil
	KwTrue
	KwFalse
)

func (k Kind) String() string {
	switch k {
	case KwClass:
		return "class"
	case KwModule:
		return "module"
	case KwDef:
		return "def"
	case KwEnd:
		return "end"
	case KwIf:
		return "if"
	case KwUnless:
		return "unless"
	case KwWhile:
		return "while"
	case KwUntil:
		return "until"
	case KwFor:
		return "for"
	case KwCase:
		return "case"
	case KwBegin:
		return "begin"
	case KwDo:
		return "do"
	case KwNil:
		return "nil"
	case KwTrue:
		return "true"
	case KwFalse:
		return "false"
	default:
		return "invalid"
	}
}

// IsNamespace reports whether k opens a class or module.
func (k Kind) IsNamespace() bool {
	return k == KwClass || k == KwModule
}

// IsBlockOpener reports whether k opens a block closed by 'end'.
func (k Kind) IsBlockOpener() bool {
	switch k {
	case KwIf, KwUnless, KwWhile, KwUntil, KwFor, KwCase, KwBegin, KwDo:
		return true
	default:
		return false
	}
}

// IsModifier reports whether k also works as a trailing statement modifier
// (`x += 1 if cond`). Such keywords open a block only at the start of a line.
func (k Kind) IsModifier() bool {
	switch k {
	case KwIf, KwUnless, KwWhile, KwUntil:
		return true
	default:
		return false
	}
}

// IsLiteral reports whether k spells a literal value.
func (k Kind) IsLiteral() bool {
	return k == KwNil || k == KwTrue || k == KwFalse
}
