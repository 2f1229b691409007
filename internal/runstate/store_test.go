package runstate_test

import (
	"context"
	"path/filepath"
	"testing"

	"gamesheet/internal/config"
	"gamesheet/internal/runstate"
)

func newStore(t *testing.T) *runstate.Store {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	store, err := runstate.Open(&cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSnapshotSeedsPendingRows(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Snapshot(ctx, "sheet-1", []string{"Chrono Trigger", "Zelda"}); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	pending, err := store.Pending(ctx, "sheet-1")
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending rows, got %d", len(pending))
	}
	if pending[0].RowIndex != 0 || pending[0].Title != "Chrono Trigger" {
		t.Fatalf("unexpected first row: %+v", pending[0])
	}
	if pending[0].Status != runstate.StatusPending {
		t.Fatalf("expected pending status, got %s", pending[0].Status)
	}
}

func TestMarkProcessedRemovesFromPending(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Snapshot(ctx, "sheet-1", []string{"Chrono Trigger", "Zelda"}); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if err := store.MarkQuerying(ctx, "sheet-1", 0); err != nil {
		t.Fatalf("MarkQuerying returned error: %v", err)
	}
	if err := store.MarkProcessed(ctx, "sheet-1", 0, runstate.StatusMatched, "Chrono Trigger"); err != nil {
		t.Fatalf("MarkProcessed returned error: %v", err)
	}

	pending, err := store.Pending(ctx, "sheet-1")
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].RowIndex != 1 {
		t.Fatalf("expected only row 1 pending, got %+v", pending)
	}
}

func TestMarkProcessedRejectsNonTerminalStatus(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Snapshot(ctx, "sheet-1", []string{"Chrono Trigger"}); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if err := store.MarkProcessed(ctx, "sheet-1", 0, runstate.StatusQuerying, ""); err == nil {
		t.Fatal("expected error for non-terminal status")
	}
}

func TestSnapshotPreservesProcessedRows(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	titles := []string{"Chrono Trigger", "Zelda"}

	if err := store.Snapshot(ctx, "sheet-1", titles); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if err := store.MarkProcessed(ctx, "sheet-1", 0, runstate.StatusMatched, "Chrono Trigger"); err != nil {
		t.Fatalf("MarkProcessed returned error: %v", err)
	}

	// Second run over the unchanged column must not reopen the processed row.
	if err := store.Snapshot(ctx, "sheet-1", titles); err != nil {
		t.Fatalf("second Snapshot returned error: %v", err)
	}
	pending, err := store.Pending(ctx, "sheet-1")
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].RowIndex != 1 {
		t.Fatalf("expected only row 1 pending after resnapshot, got %+v", pending)
	}
}

func TestSnapshotResetsChangedTitle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Snapshot(ctx, "sheet-1", []string{"Chrono Trigger"}); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if err := store.MarkProcessed(ctx, "sheet-1", 0, runstate.StatusMatched, "Chrono Trigger"); err != nil {
		t.Fatalf("MarkProcessed returned error: %v", err)
	}

	if err := store.Snapshot(ctx, "sheet-1", []string{"Chrono Cross"}); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	pending, err := store.Pending(ctx, "sheet-1")
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].Title != "Chrono Cross" {
		t.Fatalf("expected changed row reset to pending, got %+v", pending)
	}
}

func TestSnapshotTrimsRemovedRows(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Snapshot(ctx, "sheet-1", []string{"Chrono Trigger", "Zelda", "Mother 3"}); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if err := store.Snapshot(ctx, "sheet-1", []string{"Chrono Trigger"}); err != nil {
		t.Fatalf("second Snapshot returned error: %v", err)
	}

	rows, err := store.Rows(ctx, "sheet-1")
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected trailing rows trimmed, got %d rows", len(rows))
	}
}

func TestResetStuckReturnsQueryingRows(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Snapshot(ctx, "sheet-1", []string{"Chrono Trigger", "Zelda"}); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if err := store.MarkQuerying(ctx, "sheet-1", 0); err != nil {
		t.Fatalf("MarkQuerying returned error: %v", err)
	}

	reset, err := store.ResetStuck(ctx, "sheet-1")
	if err != nil {
		t.Fatalf("ResetStuck returned error: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 reset row, got %d", reset)
	}
	pending, err := store.Pending(ctx, "sheet-1")
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	if len(pending) != 2 || pending[0].Status != runstate.StatusPending {
		t.Fatalf("expected both rows pending after reset, got %+v", pending)
	}
}

func TestSummaryCountsByStatus(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Snapshot(ctx, "sheet-1", []string{"A", "B", "C"}); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if err := store.MarkProcessed(ctx, "sheet-1", 0, runstate.StatusMatched, "A"); err != nil {
		t.Fatalf("MarkProcessed returned error: %v", err)
	}
	if err := store.MarkProcessed(ctx, "sheet-1", 1, runstate.StatusNotFound, ""); err != nil {
		t.Fatalf("MarkProcessed returned error: %v", err)
	}

	summary, err := store.Summary(ctx, "sheet-1")
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary[runstate.StatusMatched] != 1 || summary[runstate.StatusNotFound] != 1 || summary[runstate.StatusPending] != 1 {
		t.Fatalf("unexpected summary: %v", summary)
	}
}

func TestSheetsAreIsolated(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Snapshot(ctx, "sheet-1", []string{"Chrono Trigger"}); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if err := store.Snapshot(ctx, "sheet-2", []string{"Zelda", "Mother 3"}); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if err := store.Clear(ctx, "sheet-1"); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}

	rows, err := store.Rows(ctx, "sheet-2")
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected sheet-2 untouched, got %d rows", len(rows))
	}
}
