// Package wire defines the JSON envelopes exchanged by slashAuth clients and
// servers and the exact bytes each side signs.
//
// # Signed bytes
//
//   - Requests: SignedString(nonce, datum) = "{nonce}:{datum}".
//   - Responses: Canonical(result) = the compact JSON encoding of result.result
//     as received, key order preserved.
//
// # What this package must NOT do
//
//   - Perform I/O or cryptography.
//   - Be imported outside the slashAuth module.
package wire
