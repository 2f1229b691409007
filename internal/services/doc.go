// Package services defines the shared error taxonomy and context annotation
// helpers used by the reconciliation components.
//
// Errors are tagged with sentinel markers (auth, rate limit, catalog, sheet
// write) so the engine can decide policy with errors.Is instead of string
// matching: whether a failure retries the row, fails the row, or aborts the
// run. Context helpers carry the run ID, sheet ID, and row index so log lines
// from any component can be correlated back to the row that produced them.
package services
