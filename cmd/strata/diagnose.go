package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strata/internal/diag"
	"strata/internal/diagfmt"
	"strata/internal/version"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] <file.rb|directory>",
	Short: "Report indexing diagnostics",
	Long: `Diag indexes a Ruby file or directory and prints only the diagnostics.
The exit status is 1 when any file has an error`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	diagCmd.Flags().Int("jobs", 0, "max parallel workers for directories (0=auto)")
	diagCmd.Flags().Bool("no-cache", false, "bypass the disk cache")
	diagCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	diagCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

// runDiagnose prints every diagnostic of the target in the chosen format
// and exits with status 1 when any of them is an error.
func runDiagnose(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "short", "json", "sarif":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	rc, err := loadRunConfig(cmd, args[0])
	if err != nil {
		return err
	}
	run, err := rc.run(cmd, "diagnosing", uiModeOff)
	if err != nil {
		return err
	}

	pathMode := diagfmt.PathModeRelative
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	bag := run.mergedBag(rc.opts.MaxDiagnostics, noWarnings)

	switch format {
	case "json":
		err = diagfmt.JSON(cmd.OutOrStdout(), bag, run.fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
		})
		if err != nil {
			return err
		}
	case "short":
		mode := "relative"
		if fullPath {
			mode = "absolute"
		}
		bag.Sort()
		if err := diag.WriteShort(cmd.OutOrStdout(), bag.Items(), run.fs, diag.ShortOpts{Notes: withNotes, PathMode: mode}); err != nil {
			return err
		}
		if bag.Len() > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
	case "sarif":
		err = diagfmt.Sarif(cmd.OutOrStdout(), bag, run.fs, diagfmt.SarifRunMeta{
			ToolName:    "strata",
			ToolVersion: version.Version,
			PathMode:    pathMode,
		})
		if err != nil {
			return err
		}
	default:
		diagfmt.Pretty(cmd.OutOrStdout(), bag, run.fs, diagfmt.PrettyOpts{
			Color:     useColor(cmd, os.Stdout),
			Context:   2,
			PathMode:  pathMode,
			ShowNotes: withNotes,
		})
		if !quiet(cmd) && bag.Len() == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no diagnostics")
		}
	}

	if bag.HasErrors() {
		return exitCode(1)
	}
	return nil
}
