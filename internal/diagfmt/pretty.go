package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"strata/internal/diag"
	"strata/internal/source"
)

type palette struct {
	err, warn, info, code, path, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan),
		code:   mk(color.Bold),
		path:   mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgRed, color.Bold),
		note:   mk(color.FgCyan, color.Bold),
	}
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		writeDiagnostic(w, p, d, fs, opts)
	}
}

func writeDiagnostic(w io.Writer, p palette, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	file := locate(fs, d.Code, d.Primary)
	sev := p.severity(d.Severity).Sprint(d.Severity.String())
	code := p.code.Sprint(d.Code.ID())
	if file == nil {
		fmt.Fprintf(w, "%s %s: %s\n", sev, code, d.Message)
	} else {
		start, _ := fs.Resolve(d.Primary)
		loc := fmt.Sprintf("%s:%d:%d", formatPath(file, fs, opts.PathMode), start.Line, start.Col)
		fmt.Fprintf(w, "%s: %s %s: %s\n", p.path.Sprint(loc), sev, code, d.Message)
		writeContext(w, p, file, fs, d.Primary, opts.Context)
	}

	if !opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		nf := locate(fs, d.Code, n.Span)
		if nf == nil {
			fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("note:"), n.Msg)
			continue
		}
		start, _ := fs.Resolve(n.Span)
		fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", p.note.Sprint("note:"), formatPath(nf, fs, opts.PathMode), start.Line, start.Col, n.Msg)
	}
}

// locate returns the file a span points into, or nil for diagnostics that
// are not about source text (I/O, project, timings).
func locate(fs *source.FileSet, code diag.Code, sp source.Span) *source.File {
	if fs == nil || code >= diag.IOLoadFileError {
		return nil
	}
	return fs.Get(sp.File)
}

func writeContext(w io.Writer, p palette, file *source.File, fs *source.FileSet, sp source.Span, context int8) {
	start, end := fs.Resolve(sp)
	first := start.Line
	if context > 0 && uint32(context) < first {
		first -= uint32(context)
	} else if context > 0 {
		first = 1
	}
	width := len(fmt.Sprint(start.Line))
	for line := first; line <= start.Line; line++ {
		fmt.Fprintf(w, " %s %s\n", p.gutter.Sprintf("%*d |", width, line), file.GetLine(line))
	}

	text := file.GetLine(start.Line)
	col := int(start.Col) - 1
	if col > len(text) {
		col = len(text)
	}
	stop := len(text)
	if end.Line == start.Line {
		stop = min(int(end.Col)-1, len(text))
	}
	// табы сохраняем, остальное заменяем пробелами нужной ширины
	var pad strings.Builder
	for _, r := range text[:col] {
		if r == '\t' {
			pad.WriteByte('\t')
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	marks := 1
	if stop > col {
		marks = max(runewidth.StringWidth(text[col:stop]), 1)
	}
	underline := "^" + strings.Repeat("~", marks-1)
	fmt.Fprintf(w, " %s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), pad.String(), p.caret.Sprint(underline))
}
