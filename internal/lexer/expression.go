package lexer

import (
	"strata/internal/source"
	"strata/internal/token"
)

// ExprKind classifies what NextExpression recognized.
type ExprKind uint8

const (
	// ExprEOF — поток исчерпан.
	ExprEOF ExprKind = iota
	// ExprClassOpen — class/module с квалифицированным именем.
	ExprClassOpen
	// ExprFnDef — def с именем и сырым текстом параметров.
	ExprFnDef
	// ExprClose — end, снявший маркер со стека вложенности.
	ExprClose
	// ExprAssignment — name = <literal>; курсор стоит на литерале.
	ExprAssignment
	// ExprBlockOpen — if/while/do/... или class << self.
	ExprBlockOpen
	// ExprUnknown — любое другое слово.
	ExprUnknown
)

func (k ExprKind) String() string {
	switch k {
	case ExprEOF:
		return "EOF"
	case ExprClassOpen:
		return "ClassOpen"
	case ExprFnDef:
		return "FnDef"
	case ExprClose:
		return "Close"
	case ExprAssignment:
		return "Assignment"
	case ExprBlockOpen:
		return "BlockOpen"
	case ExprUnknown:
		return "Unknown"
	default:
		return "ExprKind(?)"
	}
}

// Expression is one structural unit produced by the scanner.
type Expression struct {
	Kind ExprKind
	// Keyword is the introducing keyword for ClassOpen, FnDef, Close and BlockOpen.
	Keyword token.Kind
	// Name holds the qualified name (ClassOpen), function name (FnDef),
	// variable name (Assignment), the singleton target (class << self)
	// or the raw word (Unknown).
	Name string
	// Super is the superclass text of `class A < B`.
	Super string
	// Params is the raw parameter text including both parentheses, or "".
	Params     string
	ParamsSpan source.Span
	// Endless marks `def name(args) = expr`, which opens no body.
	Endless bool
	// Marker is the nesting marker a Close popped.
	Marker Marker
	Span   source.Span
}
