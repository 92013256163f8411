package redis

import (
	"context"
	"testing"
	"time"
)

func TestTokenDenylistRevoke(t *testing.T) {
	client, _ := newTestRedisClient(t)

	denylist := NewTokenDenylist(client)
	ctx := context.Background()

	revoked, err := denylist.IsRevoked(ctx, "jti-1")
	if err != nil || revoked {
		t.Fatalf("expected fresh token not revoked, got revoked=%v err=%v", revoked, err)
	}

	if err := denylist.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	revoked, err = denylist.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected token revoked, got revoked=%v err=%v", revoked, err)
	}
}

func TestTokenDenylistEntryExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)

	denylist := NewTokenDenylist(client)
	ctx := context.Background()

	if err := denylist.Revoke(ctx, "jti-2", time.Minute); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	revoked, err := denylist.IsRevoked(ctx, "jti-2")
	if err != nil || revoked {
		t.Fatalf("expected entry to expire, got revoked=%v err=%v", revoked, err)
	}
}

func TestTokenDenylistIgnoresExpiredTokens(t *testing.T) {
	client, mr := newTestRedisClient(t)

	denylist := NewTokenDenylist(client)
	ctx := context.Background()

	if err := denylist.Revoke(ctx, "jti-3", 0); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	if mr.Exists(denylist.prefix + "jti-3") {
		t.Fatalf("expected no entry for an already expired token")
	}
}
