package slashAuth

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/MrEthical07/slashAuth/signer"
	"github.com/MrEthical07/slashAuth/transport"
)

// KeyPair is the client's Ed25519 identity.
type KeyPair = signer.KeyPair

// Endpoint is the resolved destination of a protocol URL.
type Endpoint = transport.Endpoint

// Signer is the swappable crypto capability used by a Client. The default is
// signer.Ed25519.
type Signer interface {
	Sign(data []byte, secretKey []byte) (string, error)
	Verify(signature string, data []byte, publicKey []byte) error
	CreateToken() (string, error)
}

// Transport delivers a JSON request body and returns the JSON response body.
// It must fail on non-2xx statuses and malformed JSON.
type Transport interface {
	PostJSON(ctx context.Context, target string, body []byte) ([]byte, error)
}

// Resolver maps a protocol URL to its POST target and embedded token.
type Resolver interface {
	Resolve(rawURL string) (Endpoint, error)
}

// Result is a validated server payload. It always contains the echoed nonce.
type Result map[string]any

// Nonce returns the echoed nonce.
func (r Result) Nonce() string {
	return r.String("nonce")
}

// Token returns the token field, empty when absent or not a string.
func (r Result) Token() string {
	return r.String("token")
}

// String returns the string field key, empty when absent or not a string.
func (r Result) String(key string) string {
	v, _ := r[key].(string)
	return v
}

func decodeResult(raw []byte) (Result, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out Result
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateKeyPair returns a key pair from seed, or a random one when seed is nil.
func CreateKeyPair(seed []byte) (KeyPair, error) {
	return signer.CreateKeyPair(seed)
}
