package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TokenDenylist stores revoked session token IDs as expiring Redis keys,
// which lets several instances share logouts
type TokenDenylist struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenDenylist creates a Redis-backed denylist
func NewTokenDenylist(client redis.UniversalClient, prefix string, logger *zap.Logger) *TokenDenylist {
	return &TokenDenylist{
		client: client,
		prefix: prefix,
		logger: logger.Named("token-denylist"),
		now:    time.Now,
	}
}

// Revoke marks a token ID as unusable until expiresAt
func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}

	if err := d.client.Set(ctx, d.key(tokenID), "revoked", ttl).Err(); err != nil {
		d.logger.Error("Failed to revoke token", zap.String("token_id", tokenID), zap.Error(err))
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token ID was revoked
func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := d.client.Exists(ctx, d.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return exists > 0, nil
}

func (d *TokenDenylist) key(tokenID string) string {
	return fmt.Sprintf("%srevoked_token:%s", d.prefix, tokenID)
}

var _ outbound.TokenDenylist = (*TokenDenylist)(nil)
