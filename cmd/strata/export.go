package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"strata/internal/driver"
	"strata/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export [flags] <directory>",
	Short: "Index a directory into a SQLite database",
	Long: `Export indexes every matching file under a directory and writes scopes,
functions, parameters and variables into a SQLite database as a new run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("db", "strata.db", "SQLite database path")
	exportCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	exportCmd.Flags().Bool("no-cache", false, "bypass the disk cache")
	exportCmd.Flags().Bool("list", false, "list previous runs in the database and exit")
}

func runExport(cmd *cobra.Command, args []string) error {
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return fmt.Errorf("failed to get db flag: %w", err)
	}
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return fmt.Errorf("failed to get list flag: %w", err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if list {
		runs, err := db.Runs(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %s  %d files (%d failed)  %s\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Files, r.Failed, r.Root)
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("export requires a directory (or --list)")
	}
	rc, err := loadRunConfig(cmd, args[0])
	if err != nil {
		return err
	}
	run, err := rc.run(cmd, "exporting", uiModeOff)
	if err != nil {
		return err
	}

	records := make([]store.FileRecord, 0, len(run.results))
	for i := range run.results {
		records = append(records, recordOf(&run.results[i]))
	}
	runID, err := db.Export(cmd.Context(), rc.target, run.fs, records)
	if err != nil {
		return fmt.Errorf("export to %s: %w", dbPath, err)
	}
	counts, err := db.Counts(cmd.Context(), runID)
	if err != nil {
		return err
	}

	if !quiet(cmd) {
		abs, _ := filepath.Abs(dbPath)
		fmt.Fprintf(out, "run %s -> %s\n", runID, abs)
		fmt.Fprintf(out, "  files %d, scopes %d, functions %d, params %d, variables %d\n",
			counts.Files, counts.Scopes, counts.Functions, counts.Params, counts.Variables)
	}
	if run.failed() {
		return exitCode(1)
	}
	return nil
}

func recordOf(r *driver.Result) store.FileRecord {
	rec := store.FileRecord{Path: r.Path, FileID: r.FileID, Table: r.Table}
	if r.Bag != nil {
		rec.Diagnostics = r.Bag.Items()
	}
	return rec
}
