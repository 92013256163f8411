package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// TokenDenylist implements usecase.TokenDenylist using Redis keys that
// expire together with the token they revoke.
type TokenDenylist struct {
	client redis.Cmdable
	prefix string
}

// NewTokenDenylist creates a new TokenDenylist.
func NewTokenDenylist(client redis.Cmdable) *TokenDenylist {
	return &TokenDenylist{
		client: client,
		prefix: "revoked:",
	}
}

// Revoke marks tokenID as revoked for ttl.
func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	return d.client.Set(ctx, d.prefix+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether tokenID has been revoked.
func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

var _ usecase.TokenDenylist = (*TokenDenylist)(nil)
