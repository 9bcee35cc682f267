package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Лексические
	LexInfo               Code = 1000
	LexUnterminatedString Code = 1001
	LexUnterminatedBlock  Code = 1002

	// Индексатор: фатальные структурные ошибки
	IdxInfo                      Code = 2000
	IdxMalformedConstantName     Code = 2001
	IdxUndefinedNamespaceSegment Code = 2002
	IdxUnmatchedClose            Code = 2003
	IdxMissingFunctionName       Code = 2004
	IdxParameterOrderViolation   Code = 2005
	IdxUnexpectedEndOfInput      Code = 2006

	// I/O
	IOLoadFileError Code = 4001

	// Проект
	ProjInfo          Code = 5000
	ProjInvalidConfig Code = 5001

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                  "Unknown error",
		LexInfo:                      "Lexical information",
		LexUnterminatedString:        "Unterminated string literal",
		LexUnterminatedBlock:         "Unterminated block comment",
		IdxInfo:                      "Index information",
		IdxMalformedConstantName:     "Constant name must start with an uppercase letter",
		IdxUndefinedNamespaceSegment: "Undefined constant in qualified name",
		IdxUnmatchedClose:            "Unmatched 'end'",
		IdxMissingFunctionName:       "Missing function name after 'def'",
		IdxParameterOrderViolation:   "Positional parameters must come first",
		IdxUnexpectedEndOfInput:      "Unexpected end of input",
		IOLoadFileError:              "I/O load file error",
		ProjInfo:                     "Project information",
		ProjInvalidConfig:            "Invalid project configuration",
		ObsInfo:                      "Observability information",
		ObsTimings:                   "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("IDX%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Error lets a Code act as an errors.Is target for *Error values.
func (c Code) Error() string {
	return c.String()
}
