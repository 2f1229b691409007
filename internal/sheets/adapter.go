package sheets

import "context"

// Adapter is the spreadsheet surface the reconciliation engine writes
// through. Row numbers are absolute 1-based sheet rows; columns are letter
// references ("A", "B", ...).
type Adapter interface {
	// ReadColumn returns the column's cell values from the top of the sheet,
	// with empty strings for blank cells between populated ones.
	ReadColumn(ctx context.Context, sheetID, column string) ([]string, error)
	// WriteCells sets the given column values on one row in a single call.
	WriteCells(ctx context.Context, sheetID string, row int64, values map[string]string) error
	// Preflight verifies the sheet exists and the credentials can reach it
	// before a run starts mutating anything.
	Preflight(ctx context.Context, sheetID string) error
}
