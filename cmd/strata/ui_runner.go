package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"strata/internal/driver"
	"strata/internal/source"
	"strata/internal/ui"
)

type indexOutcome struct {
	fs      *source.FileSet
	results []driver.Result
	err     error
}

// runIndexDirWithUI indexes root in the background while a Bubble Tea
// program renders per-file progress on stderr.
func runIndexDirWithUI(ctx context.Context, title, root string, opts driver.Options) (*source.FileSet, []driver.Result, error) {
	var files []string
	if opts.Filter != nil {
		// список нужен заранее только для красоты; ошибку покажет IndexDir
		files, _ = opts.Filter.Collect(root)
	}

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan indexOutcome, 1)
	go func() {
		o := opts
		o.Progress = driver.ChannelSink{Ch: events}
		fs, results, err := driver.IndexDir(ctx, root, o)
		outcomeCh <- indexOutcome{fs: fs, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithInput(nil))
	_, uiErr := program.Run()
	if uiErr != nil {
		// UI упал: дочитываем события, чтобы воркеры не встали
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.fs, outcome.results, uiErr
	}
	return outcome.fs, outcome.results, outcome.err
}
