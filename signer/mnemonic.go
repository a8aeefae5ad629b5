package signer

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"
)

const fingerprintPrefix = "sa1"

// NewMnemonic returns a fresh 24-word BIP-39 phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// KeyPairFromMnemonic expands a BIP-39 phrase into a key pair. The first
// SeedSize bytes of the BIP-39 seed become the Ed25519 seed, so the same
// phrase and passphrase always give the same identity.
func KeyPairFromMnemonic(mnemonic, passphrase string) (KeyPair, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return KeyPair{}, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	return CreateKeyPair(seed[:SeedSize])
}

// Fingerprint is a short base58 label for a public key, suitable for
// showing to humans when pinning a server key.
func Fingerprint(publicKey []byte) (string, error) {
	if len(publicKey) != PublicKeySize {
		return "", fmt.Errorf("%w: invalid public key length", ErrInvalidParams)
	}
	h := sha256.Sum256(publicKey)
	return fingerprintPrefix + base58.Encode(h[:20]), nil
}
