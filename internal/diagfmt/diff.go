package diagfmt

import (
	"bytes"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffTrees returns a unified diff between two renderings of the same file.
// An empty string means nothing changed.
func DiffTrees(before, after []byte, fromName, toName string) (string, error) {
	if bytes.Equal(before, after) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  2,
	})
}
