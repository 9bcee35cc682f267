package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"strata/internal/diagfmt"
	"strata/internal/driver"
	"strata/internal/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan [flags] file.rb",
	Short: "Print the expression stream of a Ruby file",
	Long:  `Scan breaks a Ruby source file into the structural expressions the indexer consumes`,
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runScan(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	// Получаем флаги
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	fs := newFileSet(filepath.Dir(filePath))
	result, scanErr := driver.Scan(cmd.Context(), fs, filePath, maxDiagnostics)
	if result == nil {
		return fmt.Errorf("scan failed: %w", scanErr)
	}

	// Выводим диагностику в stderr, если есть
	if result.Bag.Len() > 0 {
		diagfmt.Pretty(os.Stderr, result.Bag, fs, diagfmt.PrettyOpts{
			Color:   useColor(cmd, os.Stderr),
			Context: 2,
		})
	}

	items := make([]diagfmt.ExpressionItem, 0, len(result.Items))
	for _, it := range result.Items {
		item := diagfmt.ExpressionItem{Expr: it.Expr}
		if it.Type != types.NoTypeID {
			item.Type = result.Types.String(it.Type)
		}
		items = append(items, item)
	}

	switch format {
	case "json":
		err = diagfmt.FormatExpressionsJSON(cmd.OutOrStdout(), items)
	default:
		err = diagfmt.FormatExpressionsPretty(cmd.OutOrStdout(), items, fs)
	}
	if err != nil {
		return err
	}
	if scanErr != nil {
		if cmd.Context().Err() != nil {
			return scanErr
		}
		return exitCode(1)
	}
	return nil
}
