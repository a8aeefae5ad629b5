package wire

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Method names a protocol flow.
type Method string

const (
	MethodAuthz        Method = "authz"
	MethodMagiclink    Method = "magiclink"
	MethodRequestToken Method = "requestToken"
)

// Valid reports whether m is one of the three protocol methods.
func (m Method) Valid() bool {
	switch m {
	case MethodAuthz, MethodMagiclink, MethodRequestToken:
		return true
	default:
		return false
	}
}

var (
	ErrEmptyResult   = errors.New("empty result")
	ErrNonObject     = errors.New("result is not a JSON object")
	ErrEmptyEnvelope = errors.New("response carries neither result nor error")
)

// Params is the signed parameter block of a request.
type Params struct {
	PublicKey Hex    `json:"publicKey"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
	Token     string `json:"token,omitempty"`
}

// Request is the POST body sent by a client.
type Request struct {
	Method Method `json:"method"`
	Params Params `json:"params"`
}

// ErrorBody carries a server-side failure message.
type ErrorBody struct {
	Message string `json:"message"`
}

// SignedResult pairs a result payload with the server's signature over it.
type SignedResult struct {
	Signature string          `json:"signature"`
	Result    json.RawMessage `json:"result"`
}

// Response is the body returned by a server: exactly one of Result or Error.
type Response struct {
	Result *SignedResult `json:"result,omitempty"`
	Error  *ErrorBody    `json:"error,omitempty"`
}

// SignedString returns the bytes a client signs for a request.
func SignedString(nonce, datum string) []byte {
	out := make([]byte, 0, len(nonce)+1+len(datum))
	out = append(out, nonce...)
	out = append(out, ':')
	out = append(out, datum...)
	return out
}

// DecodeResponse parses a response body.
func DecodeResponse(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil && resp.Error == nil {
		return nil, ErrEmptyEnvelope
	}
	return &resp, nil
}

// IsEmpty reports whether raw is absent or JSON null.
func IsEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Canonical returns the compact form of a result object exactly as the server
// serialized it. Whitespace is removed; key order and escapes are preserved.
func Canonical(raw json.RawMessage) ([]byte, error) {
	if IsEmpty(raw) {
		return nil, ErrEmptyResult
	}

	var buf bytes.Buffer
	buf.Grow(len(raw))
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if out[0] != '{' {
		return nil, ErrNonObject
	}
	return out, nil
}

// EncodeResult serializes a server result for signing. The returned bytes are
// both the signed message and the literal value placed in SignedResult.Result.
func EncodeResult(result any) (json.RawMessage, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return Canonical(data)
}

// ErrorResponse builds an error envelope.
func ErrorResponse(message string) Response {
	return Response{Error: &ErrorBody{Message: message}}
}
