// Package token defines the closed keyword set recognized by the scanner.
// Invariants:
//   - Keywords are case-sensitive; only the lowercase spelling is recognized.
//   - Anything outside the table is not a keyword; callers fall through to Unknown.
package token
