package server

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/MrEthical07/slashAuth/internal/wire"
	"github.com/MrEthical07/slashAuth/jwt"
	"github.com/MrEthical07/slashAuth/signer"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const maxNonceLength = 256

// Messages placed in error envelopes.
const (
	msgBadRequest     = "bad request"
	msgUnknownMethod  = "unknown method"
	msgInvalidParams  = "invalid params"
	msgInvalidSig     = "invalid signature"
	msgNonceReplayed  = "nonce replayed"
	msgTokenNotFound  = "token not found"
	msgUnauthorized   = "unauthorized"
	msgMagiclinkOff   = "magiclink disabled"
	msgInternalFailed = "internal error"
)

// Authorizer decides whether an authz call for publicKey succeeds. Returned
// fields are merged into the result; they cannot replace nonce, publicKey,
// session, sid or expiresAt.
type Authorizer interface {
	Authorize(ctx context.Context, publicKey string) (map[string]any, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, publicKey string) (map[string]any, error)

// Authorize calls f.
func (f AuthorizerFunc) Authorize(ctx context.Context, publicKey string) (map[string]any, error) {
	return f(ctx, publicKey)
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is logrus.StandardLogger().
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithAuthorizer installs the authz decision hook. Without one every
// correctly signed authz call succeeds.
func WithAuthorizer(a Authorizer) Option {
	return func(s *Server) {
		s.authorizer = a
	}
}

// Server answers slashauth requests. It is safe for concurrent use.
type Server struct {
	config     Config
	store      *Store
	sessions   *jwt.Manager
	authorizer Authorizer
	log        logrus.FieldLogger
}

// New validates cfg and returns a Server backed by rdb.
func New(cfg Config, rdb redis.UniversalClient, opts ...Option) (*Server, error) {
	if rdb == nil {
		return nil, errors.New("server requires a redis client")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sessions, err := jwt.NewManager(cfg.sessionConfig())
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	s := &Server{
		config:   cfg,
		store:    NewStore(rdb, cfg.KeyPrefix),
		sessions: sessions,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PublicKey returns the key clients verify results against.
func (s *Server) PublicKey() ed25519.PublicKey {
	return s.config.KeyPair.PublicKey
}

// Sessions returns the manager that issues and verifies session tokens.
func (s *Server) Sessions() *jwt.Manager {
	return s.sessions
}

// SessionActive reports whether sid is live.
func (s *Server) SessionActive(ctx context.Context, sid string) (bool, error) {
	return s.store.SessionActive(ctx, sid)
}

// RevokeSession ends sid. Tokens for it fail strict checks afterwards.
func (s *Server) RevokeSession(ctx context.Context, sid string) error {
	return s.store.RevokeSession(ctx, sid)
}

// IssueToken mints an out-of-band token for the authz flow.
func (s *Server) IssueToken(ctx context.Context) (string, error) {
	token, err := signer.CreateToken()
	if err != nil {
		return "", err
	}
	if err := s.store.PutToken(ctx, token, TokenRecord{Kind: KindAuthz}, s.config.TokenTTL); err != nil {
		return "", err
	}
	return token, nil
}

// AuthzURL returns base with token, and relay when non-empty, added to the
// query.
func AuthzURL(base, token, relay string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("authz url %q has no host", base)
	}
	q := u.Query()
	q.Set("token", token)
	if relay != "" {
		q.Set("relay", relay)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ServeHTTP accepts POSTed request envelopes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, wire.ErrorResponse(msgBadRequest))
		return
	}

	resp, ok := s.handle(r.Context(), body)
	status := http.StatusOK
	if !ok {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

// Handle processes one request body and returns the response body.
func (s *Server) Handle(ctx context.Context, body []byte) []byte {
	resp, _ := s.handle(ctx, body)
	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(wire.ErrorResponse(msgInternalFailed))
	}
	return out
}

// handle reports false only when body is not a request envelope at all.
func (s *Server) handle(ctx context.Context, body []byte) (wire.Response, bool) {
	var req wire.Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.log.WithError(err).Debug("undecodable request")
		return wire.ErrorResponse(msgBadRequest), false
	}

	log := s.log.WithField("method", string(req.Method))
	if !req.Method.Valid() {
		log.Warn("unknown method")
		return wire.ErrorResponse(msgUnknownMethod), true
	}

	p := req.Params
	publicKey := p.PublicKey.String()
	log = log.WithField("public_key", publicKey)

	if err := s.verify(req.Method, p); err != nil {
		log.WithError(err).Warn("request rejected")
		if errors.Is(err, signer.ErrSignatureVerification) {
			return wire.ErrorResponse(msgInvalidSig), true
		}
		return wire.ErrorResponse(msgInvalidParams), true
	}

	if err := s.store.MarkNonce(ctx, p.Nonce, s.config.NonceTTL); err != nil {
		if errors.Is(err, ErrNonceReplayed) {
			log.Warn("nonce replayed")
			return wire.ErrorResponse(msgNonceReplayed), true
		}
		log.WithError(err).Error("nonce store failed")
		return wire.ErrorResponse(msgInternalFailed), true
	}

	var (
		result map[string]any
		msg    string
		err    error
	)
	switch req.Method {
	case wire.MethodRequestToken:
		result, msg, err = s.requestToken(ctx, p)
	case wire.MethodAuthz:
		result, msg, err = s.authz(ctx, p)
	case wire.MethodMagiclink:
		result, msg, err = s.magiclink(ctx, p)
	}
	if msg != "" {
		entry := log
		if err != nil {
			entry = entry.WithError(err)
		}
		if msg == msgInternalFailed {
			entry.Error("request failed")
		} else {
			entry.WithField("reason", msg).Warn("request denied")
		}
		return wire.ErrorResponse(msg), true
	}

	result["nonce"] = p.Nonce
	resp, err := s.signResult(result)
	if err != nil {
		log.WithError(err).Error("sign result failed")
		return wire.ErrorResponse(msgInternalFailed), true
	}
	log.Debug("request served")
	return resp, true
}

func (s *Server) verify(method wire.Method, p wire.Params) error {
	if len(p.PublicKey) != signer.PublicKeySize {
		return errors.New("bad public key length")
	}
	if p.Nonce == "" || len(p.Nonce) > maxNonceLength {
		return errors.New("bad nonce")
	}
	if p.Signature == "" {
		return errors.New("missing signature")
	}

	datum := p.PublicKey.String()
	if method != wire.MethodRequestToken {
		if p.Token == "" {
			return errors.New("missing token")
		}
		datum = p.Token
	}
	return signer.Verify(p.Signature, wire.SignedString(p.Nonce, datum), p.PublicKey)
}

func (s *Server) requestToken(ctx context.Context, p wire.Params) (map[string]any, string, error) {
	token, err := signer.CreateToken()
	if err != nil {
		return nil, msgInternalFailed, err
	}
	record := TokenRecord{Kind: KindMagiclink, PublicKey: p.PublicKey.String()}
	if err := s.store.PutToken(ctx, token, record, s.config.TokenTTL); err != nil {
		return nil, msgInternalFailed, err
	}
	return map[string]any{"token": token}, "", nil
}

func (s *Server) authz(ctx context.Context, p wire.Params) (map[string]any, string, error) {
	publicKey := p.PublicKey.String()
	if msg, err := s.consume(ctx, p.Token, KindAuthz, ""); msg != "" {
		return nil, msg, err
	}

	extra := map[string]any{}
	if s.authorizer != nil {
		fields, err := s.authorizer.Authorize(ctx, publicKey)
		if err != nil {
			return nil, msgUnauthorized, err
		}
		for k, v := range fields {
			extra[k] = v
		}
	}

	token, claims, err := s.openSession(ctx, publicKey)
	if err != nil {
		return nil, msgInternalFailed, err
	}

	extra["publicKey"] = publicKey
	extra["session"] = token
	extra["sid"] = claims.SID
	extra["expiresAt"] = claims.ExpiresAt.Unix()
	return extra, "", nil
}

func (s *Server) magiclink(ctx context.Context, p wire.Params) (map[string]any, string, error) {
	if s.config.MagiclinkBase == "" {
		return nil, msgMagiclinkOff, nil
	}
	publicKey := p.PublicKey.String()
	if msg, err := s.consume(ctx, p.Token, KindMagiclink, publicKey); msg != "" {
		return nil, msg, err
	}

	token, _, err := s.openSession(ctx, publicKey)
	if err != nil {
		return nil, msgInternalFailed, err
	}

	link, err := url.Parse(s.config.MagiclinkBase)
	if err != nil {
		return nil, msgInternalFailed, err
	}
	q := link.Query()
	q.Set("session", token)
	link.RawQuery = q.Encode()

	return map[string]any{"magiclink": link.String()}, "", nil
}

func (s *Server) consume(ctx context.Context, token string, kind TokenKind, publicKey string) (string, error) {
	_, err := s.store.ConsumeToken(ctx, token, kind, publicKey)
	switch {
	case err == nil:
		return "", nil
	case errors.Is(err, ErrTokenNotFound), errors.Is(err, ErrTokenMismatch):
		return msgTokenNotFound, err
	default:
		return msgInternalFailed, err
	}
}

func (s *Server) openSession(ctx context.Context, publicKey string) (string, *jwt.SessionClaims, error) {
	token, claims, err := s.sessions.CreateSession(publicKey, "")
	if err != nil {
		return "", nil, err
	}
	if err := s.store.PutSession(ctx, claims.SID, publicKey, s.sessions.TTL()); err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// signResult signs the exact bytes that are sent as result.result.
func (s *Server) signResult(result map[string]any) (wire.Response, error) {
	raw, err := wire.EncodeResult(result)
	if err != nil {
		return wire.Response{}, err
	}
	sig, err := signer.Sign(raw, s.config.KeyPair.SecretKey)
	if err != nil {
		return wire.Response{}, err
	}
	return wire.Response{Result: &wire.SignedResult{Signature: sig, Result: raw}}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
