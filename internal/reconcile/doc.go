// Package reconcile runs the title reconciliation pipeline: read the title
// column, resolve each row against the game catalog, write metadata or a
// follow-up flag back to the sheet, and persist per-row progress so an
// interrupted run resumes where it left off. Writes land on the sheet before
// the row is marked processed, so an interrupt can at worst re-query one row.
package reconcile
