// Package signer provides the cryptographic primitives behind the slashAuth
// challenge-response exchange: Ed25519 key pairs, detached signatures encoded
// as hex, and random tokens used as per-call nonces.
//
// # Encoding boundary
//
// Keys and data flow through this package as raw bytes. Only signatures and
// tokens, which travel over the wire, are returned as lowercase hex strings.
//
// # What this package must NOT do
//
//   - Persist, cache, or rotate keys.
//   - Import the root slashAuth package (the root package depends on signer).
package signer
