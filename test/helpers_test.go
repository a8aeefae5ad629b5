//go:build integration
// +build integration

package test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	slashAuth "github.com/MrEthical07/slashAuth"
	"github.com/MrEthical07/slashAuth/server"
	"github.com/MrEthical07/slashAuth/signer"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
)

type harness struct {
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	server *server.Server
	http   *httptest.Server
	url    string
}

func newHarness(t *testing.T, opts ...server.Option) *harness {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	kp, err := signer.CreateKeyPair(nil)
	if err != nil {
		t.Fatalf("server key: %v", err)
	}
	cfg := server.DefaultConfig()
	cfg.KeyPair = kp
	cfg.MagiclinkBase = "https://app.example.com/welcome"

	logger, _ := test.NewNullLogger()
	srv, err := server.New(cfg, rdb, append([]server.Option{server.WithLogger(logger)}, opts...)...)
	if err != nil {
		t.Fatalf("server.New failed: %v", err)
	}

	hs := httptest.NewServer(srv)
	t.Cleanup(func() {
		hs.Close()
		_ = rdb.Close()
		mr.Close()
	})

	return &harness{mr: mr, rdb: rdb, server: srv, http: hs, url: hs.URL + "/auth"}
}

func (h *harness) client(t *testing.T, transport slashAuth.Transport) *slashAuth.Client {
	t.Helper()
	kp, err := slashAuth.CreateKeyPair(nil)
	if err != nil {
		t.Fatalf("client key: %v", err)
	}
	b := slashAuth.New().
		WithKeyPair(kp).
		WithServerPublicKey(h.server.PublicKey())
	if transport != nil {
		b.WithTransport(transport)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func (h *harness) authzURL(t *testing.T, relay string) string {
	t.Helper()
	token, err := h.server.IssueToken(context.Background())
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	u, err := server.AuthzURL(h.url, token, relay)
	if err != nil {
		t.Fatalf("AuthzURL failed: %v", err)
	}
	return u
}

// tapTransport forwards to next and lets a test rewrite or record traffic.
type tapTransport struct {
	next slashAuth.Transport

	mu     sync.Mutex
	bodies [][]byte

	rewrite func(resp []byte) []byte
}

func (t *tapTransport) PostJSON(ctx context.Context, target string, body []byte) ([]byte, error) {
	t.mu.Lock()
	t.bodies = append(t.bodies, append([]byte(nil), body...))
	t.mu.Unlock()

	resp, err := t.next.PostJSON(ctx, target, body)
	if err != nil || t.rewrite == nil {
		return resp, err
	}
	return t.rewrite(resp), nil
}

func (t *tapTransport) last() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bodies[len(t.bodies)-1]
}
