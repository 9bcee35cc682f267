package diag

import "strata/internal/source"

// Reporter получает нефатальные диагностики от фаз; фатальные возвращаются
// как *Error.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// BagReporter пишет в *Bag; переполнение Bag молча отбрасывает лишнее.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

// Warn reports a warning through r; a nil r drops it.
func Warn(r Reporter, code Code, primary source.Span, msg string, notes ...Note) {
	if r == nil {
		return
	}
	d := New(SevWarning, code, primary, msg)
	d.Notes = notes
	r.Report(d)
}
