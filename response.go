package slashAuth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/MrEthical07/slashAuth/internal/wire"
)

// processResponse is the single point where a server payload becomes trusted.
// Checks run in order: error envelope, structure, nonce echo, signature.
func (c *Client) processResponse(resp *wire.Response, expectedNonce string) (Result, error) {
	if resp == nil {
		return nil, malformed("empty response")
	}
	if resp.Error != nil {
		msg := resp.Error.Message
		if msg == "" {
			msg = "unspecified server error"
		}
		return nil, &ProtocolError{Message: msg}
	}
	if resp.Result == nil {
		return nil, malformed("missing result")
	}
	if resp.Result.Signature == "" {
		return nil, malformed("missing signature")
	}
	if wire.IsEmpty(resp.Result.Result) {
		return nil, malformed("missing result")
	}

	canonical, err := wire.Canonical(resp.Result.Result)
	if err != nil {
		return nil, malformed(err.Error())
	}
	result, err := decodeResult(canonical)
	if err != nil {
		return nil, malformed(err.Error())
	}

	if !nonceEqual(result.Nonce(), expectedNonce) {
		return nil, ErrNonceMismatch
	}

	if err := c.signer.Verify(resp.Result.Signature, canonical, c.serverPublicKey); err != nil {
		if errors.Is(err, ErrSignatureVerification) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSignatureVerification, err)
	}

	return result, nil
}

func nonceEqual(got, want string) bool {
	if got == "" || len(got) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
