package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"strata/internal/diagfmt"
	"strata/internal/driver"
)

var indexCmd = &cobra.Command{
	Use:   "index [flags] <file.rb|directory>",
	Short: "Build and print scope trees",
	Long: `Index builds the scope tree of a Ruby file or of every matching file in a
directory and prints it as a tree, JSON or YAML`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("format", "pretty", "output format (pretty|json|yaml)")
	indexCmd.Flags().Int("jobs", 0, "max parallel workers for directories (0=auto)")
	indexCmd.Flags().Bool("no-cache", false, "bypass the disk cache")
	indexUI := uiModeAuto
	indexCmd.Flags().Var(&indexUI, "ui", "progress UI for directories")
	indexCmd.Flags().Bool("positions", false, "print line:col of every declaration")
	indexCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

func runIndex(cmd *cobra.Command, args []string) error {
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := diagfmt.ParseTreeFormat(formatStr)
	if err != nil {
		return err
	}
	mode, err := readUIMode(cmd.Flags().Lookup("ui").Value.String())
	if err != nil {
		return err
	}
	positions, err := cmd.Flags().GetBool("positions")
	if err != nil {
		return fmt.Errorf("failed to get positions flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	rc, err := loadRunConfig(cmd, args[0])
	if err != nil {
		return err
	}
	started := time.Now()
	run, err := rc.run(cmd, "indexing", mode)
	if err != nil {
		return err
	}
	wall := time.Since(started)

	treeOpts := diagfmt.TreeOpts{
		Color:     format == diagfmt.TreePretty && useColor(cmd, os.Stdout),
		PathMode:  diagfmt.PathModeRelative,
		Positions: positions,
	}
	if fullPath {
		treeOpts.PathMode = diagfmt.PathModeAbsolute
	}
	trees := make([]diagfmt.TreeOutput, 0, len(run.results))
	for i := range run.results {
		r := &run.results[i]
		if r.Failed() {
			continue
		}
		trees = append(trees, diagfmt.BuildTree(r.Table, run.fs.Get(r.FileID), run.fs, treeOpts))
	}
	if err := diagfmt.WriteTrees(cmd.OutOrStdout(), trees, format, treeOpts); err != nil {
		return err
	}

	bag := run.mergedBag(rc.opts.MaxDiagnostics*max(len(run.results), 1), false)
	if bag.Len() > 0 {
		diagfmt.Pretty(os.Stderr, bag, run.fs, diagfmt.PrettyOpts{
			Color:    useColor(cmd, os.Stderr),
			Context:  2,
			PathMode: treeOpts.PathMode,
		})
	}
	if !quiet(cmd) && rc.isDir {
		printSummary(os.Stderr, driver.Summarize(run.results))
	}
	if rc.opts.Timings {
		printTimingSummary(os.Stderr, run.results, wall)
	}
	if run.failed() {
		return exitCode(1)
	}
	return nil
}
