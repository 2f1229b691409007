package sheets

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Adapter for tests. Columns are seeded as contiguous
// values from row 1; writes land in a per-sheet cell map keyed by A1
// reference.
type Fake struct {
	mu      sync.Mutex
	columns map[string][]string
	cells   map[string]map[string]string
	writes  int

	// WriteErr, when set, is returned by every WriteCells call.
	WriteErr error
	// PreflightErr, when set, is returned by Preflight.
	PreflightErr error
}

var _ Adapter = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{
		columns: make(map[string][]string),
		cells:   make(map[string]map[string]string),
	}
}

// SeedColumn sets the values ReadColumn returns for a sheet column.
func (f *Fake) SeedColumn(sheetID, column string, values []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.columns[sheetID+"/"+column] = append([]string(nil), values...)
}

func (f *Fake) ReadColumn(_ context.Context, sheetID, column string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.columns[sheetID+"/"+column]...), nil
}

func (f *Fake) WriteCells(_ context.Context, sheetID string, row int64, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return f.WriteErr
	}
	cells, ok := f.cells[sheetID]
	if !ok {
		cells = make(map[string]string)
		f.cells[sheetID] = cells
	}
	for column, value := range values {
		cells[fmt.Sprintf("%s%d", column, row)] = value
	}
	f.writes++
	return nil
}

func (f *Fake) Preflight(context.Context, string) error {
	return f.PreflightErr
}

// Cell returns the value written at an A1 reference, such as "B2".
func (f *Fake) Cell(sheetID, ref string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cells[sheetID][ref]
}

// Writes reports the number of WriteCells calls that landed.
func (f *Fake) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}
