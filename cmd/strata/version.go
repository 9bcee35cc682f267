package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/version"
)

const versionTagline = "every scope in its layer"

// versionPayload is the JSON shape of `strata version --format json`.
type versionPayload struct {
	Tool    string `json:"tool"`
	Tagline string `json:"tagline"`
	version.Info
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show strata build fingerprints",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("full", false, "show commit, build date and toolchain")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}

	info := version.Current()
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(versionPayload{Tool: "strata", Tagline: versionTagline, Info: info})
	case "pretty":
		renderVersionPretty(cmd.OutOrStdout(), info, full)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

func renderVersionPretty(out io.Writer, info version.Info, full bool) {
	v := info.Version
	if v != "dev" {
		v = version.Colored()
	}
	fmt.Fprintf(out, "strata %s: %s\n", v, versionTagline)
	if !full {
		return
	}
	commit := valueOrUnknown(info.Commit)
	if info.Modified {
		commit += " (modified)"
	}
	fmt.Fprintf(out, "commit:  %s\n", commit)
	if info.Message != "" {
		fmt.Fprintf(out, "message: %s\n", info.Message)
	}
	fmt.Fprintf(out, "built:   %s\n", valueOrUnknown(info.BuildDate))
	fmt.Fprintf(out, "go:      %s %s\n", info.GoVersion, info.Platform)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
