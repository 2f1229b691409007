// Package twitchauth obtains and caches the Twitch OAuth bearer token that
// authorizes IGDB catalog calls.
//
// The Manager performs the client-credentials exchange lazily on first use,
// keeps exactly one live token in memory, and refreshes ahead of expiry.
// Transient exchange failures retry with bounded exponential backoff; 4xx
// responses fail immediately as auth errors since retrying bad credentials
// cannot succeed.
package twitchauth
