package driver

import (
	"context"
	"errors"
	"time"

	"strata/internal/diag"
	"strata/internal/indexer"
	"strata/internal/observ"
	"strata/internal/project"
	"strata/internal/source"
	"strata/internal/symbols"
	"strata/internal/trace"
)

// Options configures IndexFile and IndexDir.
type Options struct {
	MaxDiagnostics int
	Jobs           int // <= 0 means GOMAXPROCS
	Cache          *DiskCache
	Progress       ProgressSink
	Filter         *project.Filter // nil selects every *.rb file
	Timings        bool            // attach an ObsTimings diagnostic per file
	Hints          symbols.Hints
}

// Result is the outcome of indexing one file. Table is nil when the run
// stopped on a structural error; the error is then the first entry of Bag.
type Result struct {
	Path   string
	FileID source.FileID
	Table  *symbols.Table
	Bag    *diag.Bag
	Cached bool
	Timing observ.Report
}

// Failed reports whether the file hit a fatal error (including I/O).
func (r *Result) Failed() bool {
	return r.Table == nil
}

// Err returns the fatal diagnostic as an error, or nil.
func (r *Result) Err() error {
	if !r.Failed() || r.Bag == nil {
		return nil
	}
	for _, d := range r.Bag.Items() {
		if d.Severity == diag.SevError {
			return &diag.Error{Diagnostic: d}
		}
	}
	return nil
}

// IndexFile loads path into fs and indexes it. Only context cancellation and
// cache corruption are returned as errors; everything else lands in the
// result's Bag.
func IndexFile(ctx context.Context, fs *source.FileSet, path string, opts Options) (*Result, error) {
	bag := diag.NewBag(opts.MaxDiagnostics)
	fileID, err := fs.Load(path)
	if err != nil {
		bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+err.Error()))
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: err})
		return &Result{Path: path, Bag: bag}, nil
	}
	res, err := indexLoaded(ctx, fs.Get(fileID), bag, opts)
	if err != nil {
		return nil, err
	}
	res.Path = path
	return &res, nil
}

// indexLoaded is the per-file worker shared by IndexFile and IndexDir.
func indexLoaded(ctx context.Context, file *source.File, bag *diag.Bag, opts Options) (Result, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFile, "file:"+file.Path, trace.CurrentSpan(ctx).SpanID)
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})

	res := Result{Path: file.Path, FileID: file.ID, Bag: bag}
	timer := observ.NewTimer()
	started := time.Now()

	if opts.Cache != nil {
		emit(opts.Progress, Event{File: file.Path, Stage: StageCache, Status: StatusWorking})
		var payload Payload
		var hit bool
		err := timer.Measure("cache", func() error {
			var err error
			hit, err = opts.Cache.Get(cacheKey(file), &payload)
			return err
		})
		if err == nil && hit {
			table, diags, restoreErr := payloadToTable(&payload, file.ID)
			if restoreErr == nil {
				for _, d := range diags {
					bag.Add(d)
				}
				res.Table, res.Cached = table, true
				res.Timing = timer.Report()
				if opts.Timings {
					appendTimingDiagnostic(bag, "cache", file.Path, res.Timing)
				}
				emit(opts.Progress, Event{File: file.Path, Stage: StageCache, Status: StatusCached, Elapsed: time.Since(started)})
				span.WithExtra("cached", "true").End("")
				return res, nil
			}
		}
		// битая запись не фатальна: просто переиндексируем
	}

	emit(opts.Progress, Event{File: file.Path, Stage: StageIndex, Status: StatusWorking})
	var table *symbols.Table
	indexErr := timer.Measure("index", func() error {
		var err error
		table, err = indexer.Index(ctx, file, indexer.Options{
			Reporter: diag.BagReporter{Bag: bag},
			Hints:    opts.Hints,
		})
		return err
	})
	if errors.Is(indexErr, context.Canceled) || errors.Is(indexErr, context.DeadlineExceeded) {
		span.End("canceled")
		return Result{}, indexErr
	}

	var fatal *diag.Diagnostic
	if indexErr != nil {
		bag.AddError(indexErr, diag.UnknownCode)
		if de, ok := diag.AsError(indexErr); ok {
			fatal = &de.Diagnostic
		}
	}
	res.Table = table

	if opts.Cache != nil && (table != nil || fatal != nil) {
		// кэш — оптимизация, ошибка записи не должна ронять индексацию
		_ = timer.Measure("store", func() error {
			return opts.Cache.Put(cacheKey(file), tableToPayload(file.Path, table, fatal))
		})
	}

	res.Timing = timer.Report()
	if opts.Timings {
		appendTimingDiagnostic(bag, "index", file.Path, res.Timing)
	}
	status := StatusDone
	if indexErr != nil {
		status = StatusError
	}
	emit(opts.Progress, Event{File: file.Path, Stage: StageIndex, Status: status, Err: indexErr, Elapsed: time.Since(started)})
	span.End(string(status))
	return res, nil
}
