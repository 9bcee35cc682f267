package diagfmt

import (
	"fmt"
	"strings"

	"strata/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prints paths as they were given.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   int8 // строк контекста до строки с ошибкой
	PathMode  PathMode
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // добавить line/col
	PathMode         PathMode
	Max              int // обрезка вывода, не Bag
	IncludeNotes     bool
}

// TreeFormat selects the scope tree rendering.
type TreeFormat string

const (
	TreePretty TreeFormat = "pretty"
	TreeJSON   TreeFormat = "json"
	TreeYAML   TreeFormat = "yaml"
)

// ParseTreeFormat validates a --format value.
func ParseTreeFormat(s string) (TreeFormat, error) {
	switch f := TreeFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case TreePretty, TreeJSON, TreeYAML:
		return f, nil
	case "":
		return TreePretty, nil
	}
	return "", fmt.Errorf("unknown format %q (want pretty, json or yaml)", s)
}

// TreeOpts configures scope tree output.
type TreeOpts struct {
	Color     bool
	PathMode  PathMode
	Positions bool // line:col for every declaration
}

func formatPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.Path
	}
}
