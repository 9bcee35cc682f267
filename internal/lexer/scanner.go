package lexer

import (
	"bytes"
	"strings"

	"strata/internal/diag"
	"strata/internal/source"
	"strata/internal/token"
)

// Scanner превращает байты файла в поток структурных выражений и ведёт стек
// вложенности. Ошибки фатальны: после первого *diag.Error сканер не
// восстанавливается.
type Scanner struct {
	file    *source.File
	cursor  Cursor
	opts    Options
	nesting []Marker

	// строка, на которой открыт while/until/for: `do` на ней же — часть заголовка цикла
	loopLine    uint32
	loopPending bool

	// терминаторы heredoc, тела которых начинаются со следующей строки
	heredocs []string
}

// New creates a scanner positioned at the start of file.
func New(file *source.File, opts Options) *Scanner {
	return &Scanner{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Cursor exposes the underlying cursor. The builder reads parameter defaults
// and assigned literals from it directly.
func (s *Scanner) Cursor() *Cursor {
	return &s.cursor
}

// File returns the scanned file.
func (s *Scanner) File() *source.File {
	return s.file
}

// NextExpression skips blanks, comments and string literals and returns the
// next structural expression.
func (s *Scanner) NextExpression() (Expression, error) {
	for {
		s.skipTrivia()
		if s.cursor.EOF() {
			return Expression{Kind: ExprEOF, Span: s.cursor.Here()}, nil
		}

		start := s.cursor.Mark()
		switch b := s.cursor.Peek(); {
		case b == '#':
			s.cursor.SkipLine()
			continue
		case isQuote(b):
			if !s.cursor.SkipString() {
				return Expression{}, diag.Errorf(diag.IdxUnexpectedEndOfInput, s.cursor.SpanFrom(start), "unterminated string literal")
			}
			continue
		}

		word, err := s.readWord()
		if err != nil {
			return Expression{}, err
		}
		return s.dispatch(start, word)
	}
}

func (s *Scanner) dispatch(start Mark, word string) (Expression, error) {
	kw, ok := keywordOf(word)
	if !ok {
		return s.wordExpression(start, word)
	}
	switch {
	case kw.IsNamespace():
		return s.namespaceOpen(start, kw)
	case kw == token.KwDef:
		return s.fnDef(start)
	case kw == token.KwEnd:
		return s.close(start)
	case kw.IsBlockOpener():
		return s.blockOpen(start, kw), nil
	}
	return s.unknown(start, word), nil
}

// keywordOf recognizes a keyword at the head of word. class/module/def must
// stand alone; `end` and block openers may be glued to closing punctuation
// (`end)`, `end.map`, `do|x|`).
func keywordOf(word string) (token.Kind, bool) {
	i := 0
	for i < len(word) && isIdentByte(word[i]) {
		i++
	}
	head, rest := word[:i], word[i:]
	kw, ok := token.LookupKeyword(head)
	if !ok {
		return token.Invalid, false
	}
	if rest == "" {
		return kw, true
	}
	if kw.IsNamespace() || kw == token.KwDef {
		return token.Invalid, false
	}
	if strings.IndexByte("().,;|]}", rest[0]) >= 0 {
		return kw, true
	}
	return token.Invalid, false
}

func (s *Scanner) namespaceOpen(start Mark, kw token.Kind) (Expression, error) {
	s.cursor.SkipSpaces()

	if kw == token.KwClass {
		if b0, b1, ok := s.cursor.Peek2(); ok && b0 == '<' && b1 == '<' {
			s.cursor.Bump()
			s.cursor.Bump()
			s.cursor.SkipSpaces()
			target := s.cursor.ReadUntil(";")
			sp := s.cursor.SpanFrom(start)
			s.push(Marker{Kind: MarkBlock, Keyword: kw, Span: sp})
			return Expression{Kind: ExprBlockOpen, Keyword: kw, Name: target, Span: sp}, nil
		}
	}

	nameStart := s.cursor.Mark()
	name := s.cursor.ReadUntil(";<")
	if !IsConstantName(name) {
		sp := s.cursor.SpanFrom(nameStart)
		if name == "" {
			sp = s.cursor.SpanFrom(start)
		}
		return Expression{}, diag.Errorf(diag.IdxMalformedConstantName, sp, "malformed constant name %q after %s", name, kw)
	}

	expr := Expression{Kind: ExprClassOpen, Keyword: kw, Name: name}
	if kw == token.KwClass {
		save := s.cursor.Mark()
		s.cursor.SkipSpaces()
		if b0, b1, _ := s.cursor.Peek2(); b0 == '<' && b1 != '<' {
			s.cursor.Bump()
			s.cursor.SkipSpaces()
			expr.Super = s.cursor.ReadUntil(";")
		} else {
			s.cursor.Reset(save)
		}
	}
	expr.Span = s.cursor.SpanFrom(start)
	s.push(Marker{Kind: MarkNamespace, Keyword: kw, Span: expr.Span})
	return expr, nil
}

func (s *Scanner) fnDef(start Mark) (Expression, error) {
	s.cursor.SkipSpaces()
	name := s.cursor.ReadUntil("(;")
	if name == "" {
		return Expression{}, diag.Errorf(diag.IdxMissingFunctionName, s.cursor.SpanFrom(start), "def without a function name")
	}

	expr := Expression{Kind: ExprFnDef, Keyword: token.KwDef, Name: name}
	if s.cursor.Peek() == '(' {
		pstart := s.cursor.Mark()
		if !s.cursor.SkipBalanced('(', ')') {
			return Expression{}, diag.Errorf(diag.IdxUnexpectedEndOfInput, s.cursor.SpanFrom(pstart), "unterminated parameter list of %q", name)
		}
		expr.ParamsSpan = s.cursor.SpanFrom(pstart)
		expr.Params = s.cursor.TextFrom(pstart)
	}
	expr.Span = s.cursor.SpanFrom(start)

	save := s.cursor.Mark()
	s.cursor.SkipSpaces()
	if s.assignAhead() {
		s.cursor.Bump()
		expr.Endless = true
		return expr, nil
	}
	s.cursor.Reset(save)

	s.push(Marker{Kind: MarkFunction, Keyword: token.KwDef, Span: expr.Span})
	return expr, nil
}

func (s *Scanner) close(start Mark) (Expression, error) {
	sp := s.cursor.SpanFrom(start)
	m, ok := s.pop()
	if !ok {
		return Expression{}, diag.Errorf(diag.IdxUnmatchedClose, sp, "end without a matching opener")
	}
	return Expression{Kind: ExprClose, Keyword: token.KwEnd, Marker: m, Span: sp}, nil
}

func (s *Scanner) blockOpen(start Mark, kw token.Kind) Expression {
	off := uint32(start)
	line := s.lineStart(off)
	switch {
	case kw.IsModifier() && !s.opensStatement(off):
		return s.unknown(start, s.cursor.TextFrom(start))
	case kw == token.KwDo && s.loopPending && s.loopLine == line:
		s.loopPending = false
		return s.unknown(start, s.cursor.TextFrom(start))
	}
	if kw == token.KwWhile || kw == token.KwUntil || kw == token.KwFor {
		s.loopLine, s.loopPending = line, true
	}
	sp := s.cursor.SpanFrom(start)
	s.push(Marker{Kind: MarkBlock, Keyword: kw, Span: sp})
	return Expression{Kind: ExprBlockOpen, Keyword: kw, Span: sp}
}

func (s *Scanner) wordExpression(start Mark, word string) (Expression, error) {
	name := word
	if i := strings.IndexByte(word, '='); i > 0 {
		name = word[:i]
	}
	if !IsVariableName(name) {
		return s.unknown(start, word), nil
	}

	if len(name) < len(word) {
		// x=1 — имя и знак склеены в одно слово
		if rest := word[len(name):]; len(rest) > 1 && strings.IndexByte("=~>", rest[1]) >= 0 {
			return s.unknown(start, word), nil
		}
		s.cursor.Reset(start)
		for range len(name) + 1 {
			s.cursor.Bump()
		}
	} else {
		save := s.cursor.Mark()
		s.cursor.SkipSpaces()
		if !s.assignAhead() {
			s.cursor.Reset(save)
			return s.unknown(start, word), nil
		}
		s.cursor.Bump()
	}
	sp := s.cursor.SpanFrom(start)
	s.cursor.SkipSpaces()
	return Expression{Kind: ExprAssignment, Name: name, Span: sp}, nil
}

func (s *Scanner) unknown(start Mark, word string) Expression {
	return Expression{Kind: ExprUnknown, Name: word, Span: s.cursor.SpanFrom(start)}
}

// assignAhead reports whether the cursor sits on a lone `=` (not ==, =~, =>).
func (s *Scanner) assignAhead() bool {
	if s.cursor.Peek() != '=' {
		return false
	}
	_, next, ok := s.cursor.Peek2()
	return !ok || strings.IndexByte("=~>", next) < 0
}

// readWord reads a word delimited by blanks or `;`. Quoted strings and
// %-literals inside the word are consumed whole, so `puts("a end")` stays one
// word.
func (s *Scanner) readWord() (string, error) {
	start := s.cursor.Mark()
	for !s.cursor.EOF() {
		b := s.cursor.Peek()
		if isBlank(b) || b == ';' {
			break
		}
		switch {
		case isQuote(b):
			qstart := s.cursor.Mark()
			if !s.cursor.SkipString() {
				return "", diag.Errorf(diag.IdxUnexpectedEndOfInput, s.cursor.SpanFrom(qstart), "unterminated string literal")
			}
			continue
		case b == '%':
			ok, err := s.skipPercentLiteral()
			if err != nil {
				return "", err
			}
			if ok {
				continue
			}
		}
		s.cursor.Bump()
	}
	word := s.cursor.TextFrom(start)
	if id, ok := heredocID(word); ok {
		s.heredocs = append(s.heredocs, id)
	}
	return word, nil
}

// skipPercentLiteral consumes %w[...], %i(...), %q{...} and friends.
func (s *Scanner) skipPercentLiteral() (bool, error) {
	_, letter, ok := s.cursor.Peek2()
	if !ok || strings.IndexByte("qQwWiIrsx", letter) < 0 {
		return false, nil
	}
	off := s.cursor.Off + 2
	if off >= s.cursor.limit() {
		return false, nil
	}
	open := s.file.Content[off]
	closer, ok := percentCloser(open)
	if !ok {
		return false, nil
	}
	start := s.cursor.Mark()
	s.cursor.Bump()
	s.cursor.Bump()
	if open == closer {
		s.cursor.Bump()
		if _, ok := s.cursor.ReadThrough(closer); ok {
			return true, nil
		}
	} else if s.cursor.SkipBalanced(open, closer) {
		return true, nil
	}
	return false, diag.Errorf(diag.IdxUnexpectedEndOfInput, s.cursor.SpanFrom(start), "unterminated %%-literal")
}

func percentCloser(open byte) (byte, bool) {
	switch open {
	case '(':
		return ')', true
	case '[':
		return ']', true
	case '{':
		return '}', true
	case '<':
		return '>', true
	case '|', '!', '/':
		return open, true
	}
	return 0, false
}

// heredocID extracts the terminator of `<<ID`, `<<~ID`, `<<-ID` or a quoted
// `<<~'ID'`. Unquoted identifiers must start uppercase, otherwise `a <<b`
// would be mistaken for a heredoc.
func heredocID(word string) (string, bool) {
	i := strings.Index(word, "<<")
	if i < 0 {
		return "", false
	}
	rest := word[i+2:]
	rest = strings.TrimPrefix(rest, "~")
	rest = strings.TrimPrefix(rest, "-")
	if rest == "" {
		return "", false
	}
	if q := rest[0]; isQuote(q) {
		if end := strings.IndexByte(rest[1:], q); end > 0 {
			return rest[1 : end+1], true
		}
		return "", false
	}
	if rest[0] < 'A' || rest[0] > 'Z' {
		return "", false
	}
	j := 0
	for j < len(rest) && isIdentByte(rest[j]) {
		j++
	}
	return rest[:j], true
}

// skipTrivia пропускает пробелы, разделители `;`, тела heredoc и блочные
// комментарии =begin/=end.
func (s *Scanner) skipTrivia() {
	for !s.cursor.EOF() {
		b := s.cursor.Peek()
		switch {
		case b == ';':
			s.cursor.Bump()
		case b == '\n':
			s.cursor.Bump()
			if len(s.heredocs) > 0 {
				s.skipHeredocBodies()
			}
		case isSpace(b):
			s.cursor.Bump()
		case b == '=' && s.atLineStart() && s.lineHasDirective("=begin"):
			s.skipBlockComment()
		default:
			return
		}
	}
}

func (s *Scanner) skipBlockComment() {
	start := s.cursor.Mark()
	s.cursor.SkipLine()
	for !s.cursor.EOF() {
		if s.lineHasDirective("=end") {
			s.cursor.SkipLine()
			return
		}
		s.cursor.SkipLine()
	}
	s.warn(diag.LexUnterminatedBlock, s.cursor.SpanFrom(start), "=begin without =end; rest of file treated as comment")
}

func (s *Scanner) skipHeredocBodies() {
	for _, id := range s.heredocs {
		start := s.cursor.Mark()
		for {
			if s.cursor.EOF() {
				s.warn(diag.LexUnterminatedBlock, s.cursor.SpanFrom(start), "heredoc "+id+" is never terminated")
				s.heredocs = s.heredocs[:0]
				return
			}
			line := s.cursor.ReadUntilAny("\n")
			s.cursor.Eat('\n')
			if strings.TrimSpace(line) == id {
				break
			}
		}
	}
	s.heredocs = s.heredocs[:0]
}

func (s *Scanner) atLineStart() bool {
	return s.cursor.Off == 0 || s.file.Content[s.cursor.Off-1] == '\n'
}

// lineHasDirective checks that the cursor is at directive followed by a blank or EOF.
func (s *Scanner) lineHasDirective(directive string) bool {
	rest := s.file.Content[s.cursor.Off:s.cursor.limit()]
	if !bytes.HasPrefix(rest, []byte(directive)) {
		return false
	}
	return len(rest) == len(directive) || isBlank(rest[len(directive)])
}

// lineStart returns the offset of the first byte on off's line.
func (s *Scanner) lineStart(off uint32) uint32 {
	for off > 0 && s.file.Content[off-1] != '\n' {
		off--
	}
	return off
}

// opensStatement reports whether a modifier keyword at off begins a statement
// (first word on the line, or right after one of `=(,;|&[{`). A trailing
// `x = 1 if y` is a modifier and pushes nothing.
func (s *Scanner) opensStatement(off uint32) bool {
	for off > 0 && isSpace(s.file.Content[off-1]) {
		off--
	}
	if off == 0 {
		return true
	}
	return strings.IndexByte("\n=(,;|&[{", s.file.Content[off-1]) >= 0
}
