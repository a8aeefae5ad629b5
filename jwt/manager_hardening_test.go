package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func signClaims(t *testing.T, method gjwt.SigningMethod, key any, claims SessionClaims, kid string) string {
	t.Helper()
	tok := gjwt.NewWithClaims(method, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	s, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func validClaims(iss, aud string) SessionClaims {
	c := SessionClaims{PublicKey: "ab", SID: "s1", RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "ab",
		Issuer:    iss,
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	if aud != "" {
		c.Audience = gjwt.ClaimStrings{aud}
	}
	return c
}

func TestCreateAndParseSession(t *testing.T) {
	_, priv := newEdKeys(t)
	m, err := NewManager(Config{SessionTTL: time.Minute, PrivateKey: priv})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, issued, err := m.CreateSession("deadbeef", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if issued.SID == "" {
		t.Fatal("expected generated sid")
	}

	claims, err := m.ParseSession(token)
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	if claims.PublicKey != "deadbeef" || claims.Subject != "deadbeef" || claims.SID != issued.SID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseSessionRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{SessionTTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token := signClaims(t, gjwt.SigningMethodHS256, []byte("secret-secret-secret-secret-1234"), validClaims("", ""), "")
	if _, err := m.ParseSession(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected wrong algorithm to be rejected, got %v", err)
	}
}

func TestParseSessionIssuerAudienceAndLeeway(t *testing.T) {
	_, priv := newEdKeys(t)
	m, err := NewManager(Config{
		SessionTTL:    time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		Issuer:        "slashauth",
		Audience:      "api",
		Leeway:        30 * time.Second,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := m.ParseSession(signClaims(t, gjwt.SigningMethodEdDSA, priv, validClaims("slashauth", "api"), "")); err != nil {
		t.Fatalf("expected valid token to parse: %v", err)
	}
	if _, err := m.ParseSession(signClaims(t, gjwt.SigningMethodEdDSA, priv, validClaims("other", "api"), "")); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}
	if _, err := m.ParseSession(signClaims(t, gjwt.SigningMethodEdDSA, priv, validClaims("slashauth", "other-api"), "")); err == nil {
		t.Fatal("expected wrong audience to fail")
	}

	within := validClaims("slashauth", "api")
	within.ExpiresAt = gjwt.NewNumericDate(time.Now().Add(-15 * time.Second))
	within.IssuedAt = gjwt.NewNumericDate(time.Now().Add(-time.Minute))
	if _, err := m.ParseSession(signClaims(t, gjwt.SigningMethodEdDSA, priv, within, "")); err != nil {
		t.Fatalf("expected token within leeway to pass: %v", err)
	}

	expired := validClaims("slashauth", "api")
	expired.ExpiresAt = gjwt.NewNumericDate(time.Now().Add(-2 * time.Minute))
	expired.IssuedAt = gjwt.NewNumericDate(time.Now().Add(-3 * time.Minute))
	if _, err := m.ParseSession(signClaims(t, gjwt.SigningMethodEdDSA, priv, expired, "")); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseSessionRequiresBoundClaims(t *testing.T) {
	_, priv := newEdKeys(t)
	m, err := NewManager(Config{SessionTTL: time.Minute, PrivateKey: priv})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	mismatched := validClaims("", "")
	mismatched.Subject = "cd"
	if _, err := m.ParseSession(signClaims(t, gjwt.SigningMethodEdDSA, priv, mismatched, "")); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected subject mismatch to fail, got %v", err)
	}

	noIAT := validClaims("", "")
	noIAT.IssuedAt = nil
	if _, err := m.ParseSession(signClaims(t, gjwt.SigningMethodEdDSA, priv, noIAT, "")); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected missing iat to fail, got %v", err)
	}
}

func TestParseSessionUnknownKidFails(t *testing.T) {
	pub1, priv1 := newEdKeys(t)
	pub2, _ := newEdKeys(t)
	m, err := NewManager(Config{
		SessionTTL:    time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv1,
		KeyID:         "k1",
		VerifyKeys: map[string][]byte{
			"k1": pub1,
		},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := m.ParseSession(signClaims(t, gjwt.SigningMethodEdDSA, priv1, validClaims("", ""), "k2")); err == nil {
		t.Fatal("expected unknown kid failure")
	}

	good := signClaims(t, gjwt.SigningMethodEdDSA, priv1, validClaims("", ""), "k1")
	if _, err := m.ParseSession(good); err != nil {
		t.Fatalf("expected known kid token to pass: %v", err)
	}

	m2, _ := NewManager(Config{SessionTTL: time.Minute, PublicKey: pub2, VerifyKeys: map[string][]byte{"k1": pub2}})
	if _, err := m2.ParseSession(good); err == nil {
		t.Fatal("expected parse failure with mismatched key set")
	}
}

func TestHS256RoundTrip(t *testing.T) {
	m, err := NewManager(Config{SessionTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, _, err := m.CreateSession("ab", "sid")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := m.ParseSession(token); err != nil {
		t.Fatalf("parse session: %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	_, priv := newEdKeys(t)
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero ttl", Config{PrivateKey: priv}},
		{"negative leeway", Config{SessionTTL: time.Minute, PrivateKey: priv, Leeway: -time.Second}},
		{"short hmac", Config{SessionTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("short")}},
		{"no keys", Config{SessionTTL: time.Minute}},
		{"bad method", Config{SessionTTL: time.Minute, SigningMethod: "rs256", PrivateKey: priv}},
		{"bad public key", Config{SessionTTL: time.Minute, PublicKey: []byte("nope")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}

func TestVerifyOnlyManagerCannotIssue(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{SessionTTL: time.Minute, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, _, err := m.CreateSession("ab", ""); err == nil {
		t.Fatal("expected verify-only manager to refuse issuing")
	}
}
