// Package jwt issues and verifies the session tokens a slashauth server hands
// out after a successful authz call. Sessions are bound to the client public
// key that signed the authz request.
package jwt
