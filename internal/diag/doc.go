// Package diag defines the diagnostic model shared by the scanner, the
// scope-tree builder and the drivers.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//
// # Fail-fast errors
//
// Indexing stops at the first structural problem. Phases return *Error, which
// wraps a Diagnostic and matches its Code through errors.Is:
//
//	if errors.Is(err, diag.IdxUnmatchedClose) { ... }
//
// Drivers convert the error back into a Diagnostic with Bag.AddError so that
// rendering stays uniform.
//
// # Consumers
//
//   - internal/diagfmt: renders diagnostics for the terminal.
//   - internal/driver: collects one Bag per file and hands it to the CLI.
package diag
