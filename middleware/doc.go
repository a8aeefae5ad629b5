// Package middleware protects HTTP handlers with the session tokens issued by
// a slashauth server after authz.
//
// # Guards
//
//   - [Guard] verifies the token and, when a [SessionChecker] is given, asks
//     it whether the session is still live.
//   - [RequireJWTOnly] is stateless verification with no store lookup.
//   - [RequireStrict] always consults the checker.
//
// Each guard reads the Authorization header and injects the verified
// [jwt.SessionClaims] into the request context.
package middleware
