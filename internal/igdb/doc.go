// Package igdb implements the IGDB catalog client. Queries are expressed in
// the APICalypse body format and posted with the Client-ID and Bearer token
// headers IGDB requires. The client paginates searches up to a configured
// candidate ceiling, throttles all calls through a shared rate limiter, and
// retries transient failures with exponential backoff. Genre and keyword
// names are resolved lazily and cached for the lifetime of the client.
package igdb
