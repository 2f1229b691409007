// Package runstate persists per-row progress for reconciliation runs in a
// SQLite database. Each spreadsheet row moves through a small status machine
// (pending, querying, then a terminal outcome); the store seeds rows from the
// sheet's title column at run start and lets an interrupted run resume from
// the first unprocessed row.
package runstate
