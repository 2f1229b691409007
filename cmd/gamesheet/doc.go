// Command gamesheet reconciles spreadsheet game titles against the IGDB
// catalog. The run command executes or resumes a reconciliation pass; status
// inspects persisted run state; resolve checks a single title; config manages
// the TOML configuration file.
package main
