// Package server is a reference slashauth server. It verifies signed client
// requests, guards against nonce replay, keeps single-use tokens and session
// records in Redis, and signs every result it returns.
//
// The server is the counterpart of the root client package and is what the
// integration tests and cmd/slashauth-server run against.
package server
