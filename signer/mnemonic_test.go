package signer

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestKeyPairFromMnemonicDeterministic(t *testing.T) {
	phrase, err := NewMnemonic()
	if err != nil {
		t.Fatalf("NewMnemonic failed: %v", err)
	}
	if n := len(strings.Fields(phrase)); n != 24 {
		t.Fatalf("expected 24 words, got %d", n)
	}

	a, err := KeyPairFromMnemonic(phrase, "")
	if err != nil {
		t.Fatalf("KeyPairFromMnemonic failed: %v", err)
	}
	b, err := KeyPairFromMnemonic("  "+strings.ReplaceAll(phrase, " ", "\n")+"  ", "")
	if err != nil {
		t.Fatalf("KeyPairFromMnemonic with extra whitespace failed: %v", err)
	}
	if !bytes.Equal(a.PublicKey, b.PublicKey) {
		t.Fatal("whitespace changed the derived key")
	}

	c, err := KeyPairFromMnemonic(phrase, "extra")
	if err != nil {
		t.Fatalf("KeyPairFromMnemonic failed: %v", err)
	}
	if bytes.Equal(a.PublicKey, c.PublicKey) {
		t.Fatal("bip39 passphrase did not change the key")
	}
}

func TestKeyPairFromMnemonicRejectsBadChecksum(t *testing.T) {
	bad := strings.Repeat("abandon ", 24)
	if _, err := KeyPairFromMnemonic(bad, ""); !errors.Is(err, ErrInvalidMnemonic) {
		t.Fatalf("expected ErrInvalidMnemonic, got %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	kp, err := CreateKeyPair(bytes.Repeat([]byte{7}, SeedSize))
	if err != nil {
		t.Fatalf("CreateKeyPair failed: %v", err)
	}
	a, err := Fingerprint(kp.PublicKey)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	b, _ := Fingerprint(kp.PublicKey)
	if a != b || !strings.HasPrefix(a, "sa1") {
		t.Fatalf("unexpected fingerprint %q / %q", a, b)
	}
	if _, err := Fingerprint(kp.PublicKey[:31]); err == nil {
		t.Fatal("expected error for short key")
	}
}
