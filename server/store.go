package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrTokenNotFound is returned when a token is unknown, expired or already used.
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenMismatch is returned when a token exists but was issued for another
	// flow or another public key.
	ErrTokenMismatch = errors.New("token mismatch")
	// ErrNonceReplayed is returned when a nonce has already been seen.
	ErrNonceReplayed = errors.New("nonce replayed")
	// ErrRedisUnavailable wraps every Redis failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// TokenKind says which flow may consume a token.
type TokenKind string

const (
	// KindAuthz tokens are issued out of band and consumed by authz.
	KindAuthz TokenKind = "authz"
	// KindMagiclink tokens are minted by requestToken and consumed by magiclink.
	KindMagiclink TokenKind = "magiclink"
)

const tokenRecordVersion = "1"

// consumeTokenLua atomically reads and deletes a token record.
// KEYS[1] = token key
// ARGV[1] = expected kind
// ARGV[2] = expected binding, empty to accept any
//
// Returns the record on success, or error "not_found" / "mismatch". A
// mismatching record is left in place.
var consumeTokenLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end

local version, kind, binding = string.match(data, '^([^|]*)|([^|]*)|(.*)$')
if version ~= '1' then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end
if kind ~= ARGV[1] then
  return {err='mismatch'}
end
if ARGV[2] ~= '' and binding ~= ARGV[2] then
  return {err='mismatch'}
end

redis.call('DEL', KEYS[1])
return data
`)

// TokenRecord is what a stored token is bound to.
type TokenRecord struct {
	Kind      TokenKind
	PublicKey string
}

// Store keeps tokens, seen nonces and live sessions under a key prefix.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a Store using prefix for every key.
func NewStore(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "slashauth"
	}
	return &Store{
		redis:  rdb,
		prefix: prefix,
	}
}

func (s *Store) tokenKey(token string) string {
	return s.prefix + ":tok:" + token
}

func (s *Store) nonceKey(nonce string) string {
	return s.prefix + ":nonce:" + nonce
}

func (s *Store) sessionKey(sid string) string {
	return s.prefix + ":sess:" + sid
}

// PutToken stores a single-use token that expires after ttl.
func (s *Store) PutToken(ctx context.Context, token string, record TokenRecord, ttl time.Duration) error {
	if strings.Contains(string(record.Kind), "|") {
		return errors.New("token kind must not contain '|'")
	}
	value := tokenRecordVersion + "|" + string(record.Kind) + "|" + record.PublicKey
	ok, err := s.redis.SetNX(ctx, s.tokenKey(token), value, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !ok {
		return errors.New("token already exists")
	}
	return nil
}

// ConsumeToken removes and returns the token record if it matches kind and,
// when publicKey is non-empty, was bound to publicKey.
func (s *Store) ConsumeToken(ctx context.Context, token string, kind TokenKind, publicKey string) (TokenRecord, error) {
	result, err := consumeTokenLua.Run(ctx, s.redis, []string{s.tokenKey(token)}, string(kind), publicKey).Result()
	if err != nil {
		switch err.Error() {
		case "not_found":
			return TokenRecord{}, ErrTokenNotFound
		case "mismatch":
			return TokenRecord{}, ErrTokenMismatch
		default:
			return TokenRecord{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	data, ok := result.(string)
	if !ok {
		return TokenRecord{}, fmt.Errorf("%w: unexpected lua result type", ErrRedisUnavailable)
	}
	parts := strings.SplitN(data, "|", 3)
	if len(parts) != 3 {
		return TokenRecord{}, fmt.Errorf("%w: corrupt token record", ErrRedisUnavailable)
	}
	return TokenRecord{Kind: TokenKind(parts[1]), PublicKey: parts[2]}, nil
}

// MarkNonce records nonce for ttl. It fails with ErrNonceReplayed if the
// nonce was already recorded.
func (s *Store) MarkNonce(ctx context.Context, nonce string, ttl time.Duration) error {
	ok, err := s.redis.SetNX(ctx, s.nonceKey(nonce), 1, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !ok {
		return ErrNonceReplayed
	}
	return nil
}

// PutSession records a live session for publicKey.
func (s *Store) PutSession(ctx context.Context, sid, publicKey string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.sessionKey(sid), publicKey, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// SessionActive reports whether sid exists and has not been revoked.
func (s *Store) SessionActive(ctx context.Context, sid string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.sessionKey(sid)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n == 1, nil
}

// RevokeSession deletes sid. Revoking an unknown session is not an error.
func (s *Store) RevokeSession(ctx context.Context, sid string) error {
	if err := s.redis.Del(ctx, s.sessionKey(sid)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
