package server

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStoreTokenLifecycle(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewStore(rdb, "sa")
	ctx := context.Background()

	if err := store.PutToken(ctx, "t1", TokenRecord{Kind: KindMagiclink, PublicKey: "pk"}, time.Minute); err != nil {
		t.Fatalf("PutToken failed: %v", err)
	}
	if !mr.Exists("sa:tok:t1") {
		t.Fatal("expected prefixed token key")
	}
	if err := store.PutToken(ctx, "t1", TokenRecord{Kind: KindAuthz}, time.Minute); err == nil {
		t.Fatal("expected duplicate token to fail")
	}

	if _, err := store.ConsumeToken(ctx, "t1", KindAuthz, ""); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("wrong kind: got %v", err)
	}
	if _, err := store.ConsumeToken(ctx, "t1", KindMagiclink, "other"); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("wrong binding: got %v", err)
	}

	rec, err := store.ConsumeToken(ctx, "t1", KindMagiclink, "pk")
	if err != nil {
		t.Fatalf("ConsumeToken failed: %v", err)
	}
	if rec.Kind != KindMagiclink || rec.PublicKey != "pk" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if _, err := store.ConsumeToken(ctx, "t1", KindMagiclink, "pk"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("second consume: got %v", err)
	}
}

func TestStoreCorruptRecordDropped(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewStore(rdb, "sa")

	if err := mr.Set("sa:tok:bad", "garbage"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := store.ConsumeToken(context.Background(), "bad", KindAuthz, ""); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("got %v", err)
	}
	if mr.Exists("sa:tok:bad") {
		t.Fatal("corrupt record should be deleted")
	}
}

func TestStoreNonceTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewStore(rdb, "")
	ctx := context.Background()

	if err := store.MarkNonce(ctx, "n1", time.Minute); err != nil {
		t.Fatalf("MarkNonce failed: %v", err)
	}
	if err := store.MarkNonce(ctx, "n1", time.Minute); !errors.Is(err, ErrNonceReplayed) {
		t.Fatalf("expected replay, got %v", err)
	}
	if ttl := mr.TTL("slashauth:nonce:n1"); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if err := store.MarkNonce(ctx, "n1", time.Minute); err != nil {
		t.Fatalf("expired nonce should be accepted again: %v", err)
	}
}

func TestStoreRedisUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewStore(rdb, "sa")
	mr.Close()

	if err := store.MarkNonce(context.Background(), "n", time.Minute); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("got %v", err)
	}
	if _, err := store.ConsumeToken(context.Background(), "t", KindAuthz, ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("got %v", err)
	}
}
