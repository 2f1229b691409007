package sheets

import (
	"fmt"
	"strings"
)

// ColumnIndex converts a letter reference ("A", "AB") to a 1-based column
// number.
func ColumnIndex(ref string) (int, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" {
		return 0, fmt.Errorf("column reference is empty")
	}
	index := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column reference %q", ref)
		}
		index = index*26 + int(r-'A') + 1
	}
	return index, nil
}

// ColumnRef converts a 1-based column number back to its letter reference.
func ColumnRef(index int) string {
	if index < 1 {
		return ""
	}
	var b []byte
	for index > 0 {
		index--
		b = append([]byte{byte('A' + index%26)}, b...)
		index /= 26
	}
	return string(b)
}
