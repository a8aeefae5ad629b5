package signer

import "errors"

var (
	// ErrInvalidSeed is returned when a key pair seed is not SeedSize bytes.
	ErrInvalidSeed = errors.New("invalid seed")
	// ErrInvalidSecretKey is returned when a secret key is not SecretKeySize bytes.
	ErrInvalidSecretKey = errors.New("invalid secret key")
	// ErrSignatureVerification is returned for any detached signature that does not validate.
	ErrSignatureVerification = errors.New("signature verification failed")
	// ErrInvalidPassphrase is returned when a passphrase is shorter than the minimum length.
	ErrInvalidPassphrase = errors.New("invalid passphrase")
	// ErrInvalidParams is returned when passphrase derivation parameters fall below the floors.
	ErrInvalidParams = errors.New("invalid derivation parameters")
	// ErrInvalidMnemonic is returned for phrases that fail the BIP-39 checksum.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
)
