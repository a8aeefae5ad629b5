// Package slashAuth is a client for a signature-based challenge-response
// authentication protocol. A peer proves control of an Ed25519 key by signing
// a fresh nonce bound to a server-issued token (or to its own public key), and
// accepts the server's answer only when it is signed by a known server key and
// echoes that nonce.
//
// The package is designed for concurrent use: [Client] methods are safe to call
// from multiple goroutines after initialization through [Builder.Build]. Each
// call owns its nonce and parameters; nothing is shared between calls besides
// the immutable key material and the metrics and audit pipelines.
//
// # Architecture boundaries
//
// slashAuth is the protocol engine and response validator. Crypto primitives
// live in signer, envelopes and signed-byte rules in internal/wire, and the
// default HTTP and relay collaborators in transport. A reference responder
// lives in server.
//
// # What this package must NOT do
//
//   - Retry, back off, or rate limit requests. Transport failures surface to
//     the caller, and a retry is a new call with a new nonce.
//   - Persist nonces, parameters, or results beyond a single call.
//   - Return a server payload that has not passed every validation step.
package slashAuth
