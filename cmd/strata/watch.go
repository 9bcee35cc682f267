package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"strata/internal/diagfmt"
	"strata/internal/driver"
	"strata/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <directory>",
	Short: "Re-index files as they change",
	Long: `Watch indexes a directory once, then re-indexes every changed file and
prints a unified diff of its scope tree`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Int("jobs", 0, "max parallel workers for the initial run (0=auto)")
	watchCmd.Flags().Bool("no-cache", false, "bypass the disk cache")
	watchCmd.Flags().Duration("debounce", 0, "override watch.debounce from strata.toml")
}

func runWatch(cmd *cobra.Command, args []string) error {
	rc, err := loadRunConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if !rc.isDir {
		return fmt.Errorf("%s: %w", args[0], watch.ErrNotDirectory)
	}
	debounce := rc.manifest.Config.Watch.Debounce.Duration
	if f := cmd.Flags().Lookup("debounce"); f != nil && f.Changed {
		if debounce, err = cmd.Flags().GetDuration("debounce"); err != nil {
			return fmt.Errorf("failed to get debounce flag: %w", err)
		}
	}

	errOut := cmd.ErrOrStderr()
	w, err := watch.New(watch.Options{
		Root:     rc.target,
		Filter:   rc.opts.Filter,
		Debounce: debounce,
		Index:    rc.opts,
		OnError: func(err error) {
			fmt.Fprintf(errOut, "watch: %v\n", err)
		},
	})
	if err != nil {
		return err
	}
	defer w.Close()

	ctx := cmd.Context()
	fs, results, err := driver.IndexDir(ctx, rc.target, rc.opts)
	if err != nil {
		return err
	}
	w.Prime(fs, results)
	if !quiet(cmd) {
		printSummary(errOut, driver.Summarize(results))
		fmt.Fprintf(errOut, "watching %s (ctrl-c to stop)\n", rc.target)
	}

	changes := make(chan watch.Change, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, changes)
		close(changes)
	}()

	colored := useColor(cmd, os.Stdout)
	for change := range changes {
		printChange(cmd, cmd.OutOrStdout(), change, colored)
	}
	return <-done
}

func printChange(cmd *cobra.Command, out io.Writer, change watch.Change, colored bool) {
	header := color.New(color.Bold)
	if colored {
		header.EnableColor()
	} else {
		header.DisableColor()
	}

	switch {
	case change.Removed:
		fmt.Fprintln(out, header.Sprintf("removed %s", change.Path))
	case change.Result != nil && change.Result.Failed():
		fmt.Fprintln(out, header.Sprintf("failed %s", change.Path))
		diagfmt.Pretty(out, change.Result.Bag, change.FileSet, diagfmt.PrettyOpts{
			Color:    colored,
			Context:  2,
			PathMode: diagfmt.PathModeRelative,
		})
		return
	case change.Diff == "":
		if !quiet(cmd) {
			fmt.Fprintln(out, header.Sprintf("unchanged %s", change.Path))
		}
		return
	default:
		fmt.Fprintln(out, header.Sprintf("changed %s", change.Path))
	}
	writeDiff(out, change.Diff, colored)
}

func writeDiff(out io.Writer, diff string, colored bool) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	hunk := color.New(color.FgCyan)
	for _, c := range []*color.Color{added, removed, hunk} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprint(out, line)
		case strings.HasPrefix(line, "+"):
			fmt.Fprint(out, added.Sprint(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprint(out, removed.Sprint(line))
		case strings.HasPrefix(line, "@@"):
			fmt.Fprint(out, hunk.Sprint(line))
		default:
			fmt.Fprint(out, line)
		}
	}
}
