package lexer

import (
	"strata/internal/diag"
	"strata/internal/source"
)

// Options настраивает сканер.
type Options struct {
	// Reporter получает нефатальные замечания (незакрытый =begin, heredoc).
	// Может быть nil — тогда они молча теряются, сканирование продолжается.
	Reporter diag.Reporter
}

func (s *Scanner) warn(code diag.Code, sp source.Span, msg string) {
	diag.Warn(s.opts.Reporter, code, sp, msg)
}
