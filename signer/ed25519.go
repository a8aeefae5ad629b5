package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	// PublicKeySize is the length of an Ed25519 public key.
	PublicKeySize = ed25519.PublicKeySize
	// SecretKeySize is the length of an Ed25519 secret key (seed || public key).
	SecretKeySize = ed25519.PrivateKeySize
	// SeedSize is the length of a deterministic key pair seed.
	SeedSize = ed25519.SeedSize
	// SignatureSize is the length of a detached signature.
	SignatureSize = ed25519.SignatureSize
	// TokenSize is the number of random bytes drawn by CreateToken.
	TokenSize = SignatureSize
)

// KeyPair holds an Ed25519 key pair. It is created once and never mutated.
type KeyPair struct {
	PublicKey ed25519.PublicKey
	SecretKey ed25519.PrivateKey
}

// PublicKeyHex returns the hex encoding used for the publicKey request field.
func (k KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(k.PublicKey)
}

// Valid reports whether both halves have Ed25519 sizes.
func (k KeyPair) Valid() bool {
	return len(k.PublicKey) == PublicKeySize && len(k.SecretKey) == SecretKeySize
}

// CreateKeyPair returns a key pair derived from seed, or a random one when
// seed is nil.
func CreateKeyPair(seed []byte) (KeyPair, error) {
	if seed == nil {
		pub, sec, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return KeyPair{}, err
		}
		return KeyPair{PublicKey: pub, SecretKey: sec}, nil
	}
	if len(seed) != SeedSize {
		return KeyPair{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSeed, len(seed), SeedSize)
	}

	sec := ed25519.NewKeyFromSeed(seed)
	pub := make(ed25519.PublicKey, PublicKeySize)
	copy(pub, sec[SeedSize:])

	return KeyPair{PublicKey: pub, SecretKey: sec}, nil
}

// Sign returns the hex-encoded detached signature of data.
func Sign(data []byte, secretKey []byte) (string, error) {
	if len(secretKey) != SecretKeySize {
		return "", ErrInvalidSecretKey
	}
	sig := ed25519.Sign(ed25519.PrivateKey(secretKey), data)
	return hex.EncodeToString(sig), nil
}

// Verify checks a hex-encoded detached signature of data against publicKey.
//
// Every failure, including undecodable hex and wrong lengths, is reported as
// ErrSignatureVerification.
func Verify(signature string, data []byte, publicKey []byte) error {
	if len(publicKey) != PublicKeySize {
		return fmt.Errorf("%w: invalid public key length", ErrSignatureVerification)
	}

	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != SignatureSize {
		return fmt.Errorf("%w: malformed signature", ErrSignatureVerification)
	}

	if !ed25519.Verify(ed25519.PublicKey(publicKey), data, sig) {
		return ErrSignatureVerification
	}
	return nil
}

// CreateToken draws TokenSize random bytes and returns them hex-encoded.
func CreateToken() (string, error) {
	var raw [TokenSize]byte
	if _, err := io.ReadFull(rand.Reader, raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// Ed25519 bundles the package-level primitives behind the slashAuth.Signer
// capability. The zero value is ready to use.
type Ed25519 struct{}

// Sign implements slashAuth.Signer.
func (Ed25519) Sign(data []byte, secretKey []byte) (string, error) {
	return Sign(data, secretKey)
}

// Verify implements slashAuth.Signer.
func (Ed25519) Verify(signature string, data []byte, publicKey []byte) error {
	return Verify(signature, data, publicKey)
}

// CreateToken implements slashAuth.Signer.
func (Ed25519) CreateToken() (string, error) {
	return CreateToken()
}
