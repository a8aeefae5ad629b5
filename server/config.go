package server

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/MrEthical07/slashAuth/jwt"
	"github.com/MrEthical07/slashAuth/signer"
)

// Config configures a Server.
type Config struct {
	// KeyPair signs every result. Clients pin its public key.
	KeyPair signer.KeyPair

	// KeyPrefix namespaces every Redis key.
	KeyPrefix string
	// TokenTTL bounds how long an issued token can be consumed.
	TokenTTL time.Duration
	// NonceTTL is how long a seen nonce is remembered. It must outlive any
	// window in which a captured request could be replayed.
	NonceTTL time.Duration
	// MaxBodyBytes caps request bodies read by ServeHTTP.
	MaxBodyBytes int64

	// MagiclinkBase is the URL a magiclink session is appended to. Empty
	// disables the magiclink flow.
	MagiclinkBase string

	// Session configures session tokens issued after authz. A zero
	// SigningMethod with no keys signs with KeyPair.
	Session jwt.Config
}

// DefaultConfig returns a Config with every field but KeyPair filled in.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:    "slashauth",
		TokenTTL:     5 * time.Minute,
		NonceTTL:     15 * time.Minute,
		MaxBodyBytes: 64 << 10,
		Session: jwt.Config{
			SessionTTL:    time.Hour,
			SigningMethod: jwt.MethodEd25519,
			Issuer:        "slashauth",
		},
	}
}

// Validate checks cfg for values the server cannot run with.
func (c Config) Validate() error {
	if !c.KeyPair.Valid() {
		return errors.New("server requires an ed25519 key pair")
	}
	if c.TokenTTL <= 0 || c.TokenTTL > 24*time.Hour {
		return errors.New("token ttl must be between 0 and 24h")
	}
	if c.NonceTTL < c.TokenTTL {
		return errors.New("nonce ttl must not be shorter than token ttl")
	}
	if c.MaxBodyBytes <= 0 || c.MaxBodyBytes > 1<<20 {
		return errors.New("max body bytes must be between 1 and 1MiB")
	}
	if c.MagiclinkBase != "" {
		u, err := url.Parse(c.MagiclinkBase)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid magiclink base %q", c.MagiclinkBase)
		}
	}
	return nil
}

func (c Config) sessionConfig() jwt.Config {
	sc := c.Session
	if len(sc.PrivateKey) == 0 && len(sc.PublicKey) == 0 && len(sc.VerifyKeys) == 0 &&
		(sc.SigningMethod == "" || sc.SigningMethod == jwt.MethodEd25519) {
		sc.SigningMethod = jwt.MethodEd25519
		sc.PrivateKey = c.KeyPair.SecretKey
	}
	return sc
}
