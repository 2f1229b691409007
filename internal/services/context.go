package services

import "context"

type contextKey string

const (
	rowIndexKey contextKey = "row_index"
	sheetIDKey  contextKey = "sheet_id"
	runIDKey    contextKey = "run_id"
)

// WithRowIndex annotates context with the spreadsheet row being processed.
func WithRowIndex(ctx context.Context, row int64) context.Context {
	return context.WithValue(ctx, rowIndexKey, row)
}

// RowIndexFromContext extracts the spreadsheet row index if present.
func RowIndexFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(rowIndexKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithSheetID annotates context with the target spreadsheet identifier.
func WithSheetID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sheetIDKey, id)
}

// SheetIDFromContext returns the spreadsheet identifier if present.
func SheetIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sheetIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with a run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
