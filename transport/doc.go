// Package transport provides the default I/O collaborators of a slashAuth
// client: an HTTP JSON poster and a URL resolver for relay indirection.
//
// Both satisfy small interfaces declared by the root package, so callers can
// replace either one (for tests, custom relays, or non-HTTP carriers).
//
// # Relay resolution
//
// A URL such as
//
//	https://example.com/auth?token=ab12&relay=https://relay.example.net
//
// is posted to https://relay.example.net/auth. Without a relay parameter the
// URL is posted to as given.
package transport
