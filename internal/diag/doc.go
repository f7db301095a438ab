// Package diag defines the diagnostic model shared by the loader, the
// instantiation engine and the overload checker.
//
// Diagnostic is the central record: Severity, a numeric Code with a stable
// string form (SYN/SEM/IO/PRJ/OBS/ICE ranges, see codes.go), a short Message,
// the Primary span and optional Notes pointing at related declarations.
//
// Producers emit through a Reporter so that storage stays decoupled from
// emission. ReportBuilder offers a fluent form (ReportError(...).WithNote(...).Emit()).
// BagReporter collects into a Bag, which supports sorting and deduplication;
// DedupReporter and LockedReporter wrap another Reporter for repeated and
// concurrent emission.
//
// Codes in the ICE range describe internal consistency failures. They never
// count against the Bag limit and cause the CLI to exit with a distinct status.
//
// Rendering lives in internal/diagfmt.
package diag
