package diag

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"strata/internal/source"
)

// ShortOpts настраивает однострочный вывод диагностик.
type ShortOpts struct {
	Notes bool
	// SkipVendor отбрасывает записи из vendor/ (и вложенных vendor/).
	SkipVendor bool
	// PathMode is passed to source.File.FormatPath; "" means "relative".
	PathMode string
}

type shortLine struct {
	sev  string
	code string
	path string
	line uint32
	col  uint32
	msg  string
}

// WriteShort renders one `severity CODE path:line:col message` line per
// diagnostic (and per note when requested), sorted by position. Diagnostics
// whose span cannot be resolved against fs are dropped.
func WriteShort(w io.Writer, diags []Diagnostic, fs *source.FileSet, opts ShortOpts) error {
	_, err := io.WriteString(w, FormatShort(diags, fs, opts))
	return err
}

// FormatShort is WriteShort into a string; the last line has no newline.
func FormatShort(diags []Diagnostic, fs *source.FileSet, opts ShortOpts) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}
	if opts.PathMode == "" {
		opts.PathMode = "relative"
	}

	lines := make([]shortLine, 0, len(diags))
	add := func(sev string, code Code, sp source.Span, msg string) {
		path, start, ok := resolveShort(fs, sp, opts.PathMode)
		if !ok || (opts.SkipVendor && isVendored(path)) {
			return
		}
		lines = append(lines, shortLine{
			sev:  sev,
			code: code.ID(),
			path: path,
			line: start.Line,
			col:  start.Col,
			msg:  flattenMessage(msg),
		})
	}
	for _, d := range diags {
		add(severityWord(d.Severity), d.Code, d.Primary, d.Message)
		if opts.Notes {
			for _, n := range d.Notes {
				add("note", d.Code, n.Span, n.Msg)
			}
		}
	}

	slices.SortStableFunc(lines, func(a, b shortLine) int {
		return cmp.Or(
			cmp.Compare(a.path, b.path),
			cmp.Compare(a.line, b.line),
			cmp.Compare(a.col, b.col),
			cmp.Compare(a.sev, b.sev),
			cmp.Compare(a.code, b.code),
			cmp.Compare(a.msg, b.msg),
		)
	})

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", l.sev, l.code, l.path, l.line, l.col, l.msg)
	}
	return b.String()
}

func resolveShort(fs *source.FileSet, sp source.Span, mode string) (string, source.LineCol, bool) {
	file := fs.Get(sp.File)
	if file == nil || int(sp.End) > len(file.Content) || sp.Start > sp.End {
		return "", source.LineCol{}, false
	}
	start, _ := fs.Resolve(sp)
	path := strings.TrimPrefix(file.FormatPath(mode, fs.BaseDir()), "./")
	return path, start, true
}

func isVendored(path string) bool {
	p := strings.TrimLeft(path, "/")
	return strings.HasPrefix(p, "vendor/") || strings.Contains(p, "/vendor/")
}

func severityWord(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

// flattenMessage сводит многострочное сообщение в одну строку.
func flattenMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	return strings.TrimSpace(strings.ReplaceAll(msg, "\n", " "))
}
