package driver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"strata/internal/diag"
	"strata/internal/project"
	"strata/internal/source"
	"strata/internal/trace"
)

// IndexDir индексирует все выбранные фильтром файлы под root параллельно.
// Each file gets its own Table and Bag; results come back in path order.
func IndexDir(ctx context.Context, root string, opts Options) (*source.FileSet, []Result, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "index_dir", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})

	filter := opts.Filter
	if filter == nil {
		var err error
		if filter, err = project.NewFilter(nil, nil); err != nil {
			return nil, nil, err
		}
	}
	files, err := filter.Collect(root)
	if err != nil {
		return nil, nil, fmt.Errorf("collect files under %s: %w", root, err)
	}
	span.WithExtra("files", fmt.Sprint(len(files)))

	fileSet := source.NewFileSetWithBase(root)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	// грузим последовательно: FileID идут в порядке обхода, воркеры только читают
	loadSpan := trace.Begin(tracer, trace.ScopePass, "load", span.ID())
	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
		fileID, err := fileSet.Load(path)
		if err != nil {
			// Сохраняем ошибку загрузки для последующей обработки
			loadErrors[path] = err
			continue
		}
		fileIDs[path] = fileID
	}
	loadSpan.End("")

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]Result, len(files))

	indexSpan := trace.Begin(tracer, trace.ScopePass, "index", span.ID())
	ictx := trace.WithSpanContext(ctx, trace.SpanContext{SpanID: indexSpan.ID()})
	g, gctx := errgroup.WithContext(ictx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			bag := diag.NewBag(opts.MaxDiagnostics)
			if loadErr, hadError := loadErrors[path]; hadError {
				bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+loadErr.Error()))
				results[i] = Result{Path: path, Bag: bag}
				emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: loadErr})
				return nil
			}

			res, err := indexLoaded(gctx, fileSet.Get(fileIDs[path]), bag, opts)
			if err != nil {
				return err
			}
			res.Path = path
			results[i] = res
			return nil
		})
	}

	err = g.Wait()
	indexSpan.End("")
	if err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

// Summary aggregates per-file results.
type Summary struct {
	Files     int
	Failed    int
	Cached    int
	Scopes    int
	Functions int
	Variables int
}

// Summarize counts results and table contents.
func Summarize(results []Result) Summary {
	var s Summary
	for i := range results {
		r := &results[i]
		s.Files++
		if r.Cached {
			s.Cached++
		}
		if r.Failed() {
			s.Failed++
			continue
		}
		st := r.Table.Stats()
		s.Scopes += st.Scopes
		s.Functions += st.Functions
		s.Variables += st.Variables
	}
	return s
}
