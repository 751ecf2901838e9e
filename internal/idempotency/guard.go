// Package idempotency provides the shared claim-once store that turns the
// bus's at-least-once delivery into effective-once processing.
package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "processed:"

// DefaultTTL keeps a processed marker for 30 days.
const DefaultTTL = 30 * 24 * time.Hour

// Guard records processed message ids in Redis. Claim is atomic (SET NX), so
// exactly one delivery of a given messageId wins.
type Guard struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

func NewGuard(rdb *redis.Client, logger zerolog.Logger) *Guard {
	return &Guard{rdb: rdb, logger: logger}
}

// Claim returns true when this call is the first claimant for messageID
// within the TTL window. When the store is unreachable it fails open: the
// message is treated as new so the pipeline keeps moving, at the cost of a
// possible duplicate execution.
func (g *Guard) Claim(ctx context.Context, messageID string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	claimed, err := g.rdb.SetNX(ctx, keyPrefix+messageID, "1", ttl).Result()
	if err != nil {
		g.logger.Warn().Err(err).
			Str("message_id", messageID).
			Msg("idempotency store unreachable, failing open")
		return true
	}
	return claimed
}

// Forget releases a claim. Only used operationally, never by the saga.
func (g *Guard) Forget(ctx context.Context, messageID string) error {
	return g.rdb.Del(ctx, keyPrefix+messageID).Err()
}
