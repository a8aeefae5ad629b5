package slashAuth

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/slashAuth/signer"
)

var (
	// ErrValidation is the category of input errors detected before any I/O.
	ErrValidation = errors.New("validation failed")
	// ErrMissingURL is returned by every flow when the url argument is empty.
	ErrMissingURL = fmt.Errorf("%w: no url", ErrValidation)
	// ErrInvalidURL is returned when the url cannot be resolved to a target.
	ErrInvalidURL = fmt.Errorf("%w: invalid url", ErrValidation)
	// ErrMissingToken is returned by Authz when the url carries no token.
	ErrMissingToken = fmt.Errorf("%w: no token in url", ErrValidation)
	// ErrMissingKeyPair is returned by Build when no usable key pair was set.
	ErrMissingKeyPair = fmt.Errorf("%w: no keypair", ErrValidation)
	// ErrMissingServerPublicKey is returned by Build when no server key was set.
	ErrMissingServerPublicKey = fmt.Errorf("%w: no serverPublicKey", ErrValidation)

	// ErrTransport wraps failures reported by the Transport collaborator.
	ErrTransport = errors.New("transport failed")
	// ErrProtocol matches every *ProtocolError.
	ErrProtocol = errors.New("protocol error")
	// ErrMalformedResponse is returned for structurally invalid success envelopes.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrSignatureVerification is returned when the server signature does not validate.
	ErrSignatureVerification = signer.ErrSignatureVerification
	// ErrNonceMismatch is returned when the response does not echo the request nonce.
	ErrNonceMismatch = errors.New("nonce mismatch")
	// ErrInvalidSeed is returned by CreateKeyPair for seeds of the wrong length.
	ErrInvalidSeed = signer.ErrInvalidSeed

	// ErrClientNotReady is returned when a nil or unbuilt Client is used.
	ErrClientNotReady = errors.New("client not initialized")
)

// ProtocolError carries the message of a server error envelope verbatim.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// Is reports whether target is ErrProtocol.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, reason)
}
