package wire

import (
	"encoding/hex"
	"fmt"
)

// Hex is a byte string that travels as lowercase hex text. Values are
// decoded once at the boundary and stay raw bytes everywhere else.
type Hex []byte

// String returns the hex encoding.
func (h Hex) String() string {
	return hex.EncodeToString(h)
}

// MarshalText implements encoding.TextMarshaler.
func (h Hex) MarshalText() ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(h)))
	hex.Encode(out, h)
	return out, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hex) UnmarshalText(text []byte) error {
	raw := make([]byte, hex.DecodedLen(len(text)))
	n, err := hex.Decode(raw, text)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	*h = raw[:n]
	return nil
}
