package runstate

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a sheet row within a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusQuerying  Status = "querying"
	StatusMatched   Status = "matched"
	StatusAmbiguous Status = "ambiguous"
	StatusNotFound  Status = "notfound"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusQuerying,
	StatusMatched,
	StatusAmbiguous,
	StatusNotFound,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// terminalStatuses are the outcomes a processed row can carry. Rows in any
// other status are picked up again on resume.
var terminalStatuses = map[Status]struct{}{
	StatusMatched:   {},
	StatusAmbiguous: {},
	StatusNotFound:  {},
	StatusFailed:    {},
}

// Terminal reports whether the status marks a row as processed.
func (s Status) Terminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// ParseStatus converts a stored string into a Status.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[status]; !ok {
		return "", fmt.Errorf("unknown row status %q", value)
	}
	return status, nil
}

// Row is the persisted state of one spreadsheet row.
type Row struct {
	SheetID   string
	RowIndex  int64
	Title     string
	Status    Status
	Detail    string
	UpdatedAt time.Time
}
