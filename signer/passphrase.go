package signer

import (
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength         = 16
	minPassBytes          = 10
)

// PassphraseParams tunes the argon2id derivation of a key pair seed.
type PassphraseParams struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
}

// DefaultPassphraseParams returns the parameters used by the CLI.
func DefaultPassphraseParams() PassphraseParams {
	return PassphraseParams{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
	}
}

// DeriveSeed stretches passphrase with argon2id into a SeedSize seed.
// The same passphrase, salt and params always yield the same seed.
func DeriveSeed(passphrase, salt []byte, p PassphraseParams) ([]byte, error) {
	// Passphrases are used as raw bytes (no Unicode normalization).
	if len(passphrase) < minPassBytes {
		return nil, fmt.Errorf("%w: must be at least %d bytes", ErrInvalidPassphrase, minPassBytes)
	}
	if len(salt) < minSaltLength {
		return nil, fmt.Errorf("%w: salt must be at least %d bytes", ErrInvalidParams, minSaltLength)
	}
	if p.Memory < minMemoryKB {
		return nil, fmt.Errorf("%w: memory must be >= %d KB", ErrInvalidParams, minMemoryKB)
	}
	if p.Time < minTimeCost {
		return nil, fmt.Errorf("%w: time must be >= %d", ErrInvalidParams, minTimeCost)
	}
	if p.Parallelism < minParallelism {
		return nil, fmt.Errorf("%w: parallelism must be >= %d", ErrInvalidParams, minParallelism)
	}

	return argon2.IDKey(passphrase, salt, p.Time, p.Memory, p.Parallelism, SeedSize), nil
}

// KeyPairFromPassphrase derives a seed with DeriveSeed and expands it into a key pair.
func KeyPairFromPassphrase(passphrase, salt []byte, p PassphraseParams) (KeyPair, error) {
	seed, err := DeriveSeed(passphrase, salt, p)
	if err != nil {
		return KeyPair{}, err
	}
	return CreateKeyPair(seed)
}
