package sheets_test

import (
	"testing"

	"gamesheet/internal/sheets"
)

func TestColumnRoundTrip(t *testing.T) {
	cases := []struct {
		ref   string
		index int
	}{
		{"A", 1},
		{"B", 2},
		{"Z", 26},
		{"AA", 27},
		{"AZ", 52},
		{"BA", 53},
	}
	for _, tc := range cases {
		index, err := sheets.ColumnIndex(tc.ref)
		if err != nil {
			t.Fatalf("ColumnIndex(%q) returned error: %v", tc.ref, err)
		}
		if index != tc.index {
			t.Errorf("ColumnIndex(%q) = %d, want %d", tc.ref, index, tc.index)
		}
		if ref := sheets.ColumnRef(tc.index); ref != tc.ref {
			t.Errorf("ColumnRef(%d) = %q, want %q", tc.index, ref, tc.ref)
		}
	}
}

func TestColumnIndexRejectsGarbage(t *testing.T) {
	for _, ref := range []string{"", "1", "A1", "!"} {
		if _, err := sheets.ColumnIndex(ref); err == nil {
			t.Errorf("expected error for %q", ref)
		}
	}
}
