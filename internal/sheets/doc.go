// Package sheets reads title columns from and writes reconciliation outcomes
// to a spreadsheet backend. The production implementation talks to the Google
// Sheets v4 values API with a static bearer token; Fake backs tests with an
// in-memory cell map.
package sheets
