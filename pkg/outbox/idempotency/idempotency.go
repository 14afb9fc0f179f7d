package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const processedMarker = "1"

var (
	errStoreRequired    = errors.New("idempotency store is required")
	errConsumerRequired = errors.New("consumer name is required")
	errKeyRequired      = errors.New("delivery key is required")
)

// Guard deduplicates at-least-once deliveries for one consumer. A delivery is
// claimed with SETNX under sf:idempotency:evt:<consumer>:<key> and the claim
// expires after ttl, which must outlive the source's redelivery window.
type Guard struct {
	store    redis.IdempotencyStore
	consumer string
	ttl      time.Duration
}

func NewGuard(store redis.IdempotencyStore, consumer string, ttl time.Duration) (*Guard, error) {
	consumer = strings.TrimSpace(consumer)
	switch {
	case store == nil:
		return nil, errStoreRequired
	case consumer == "":
		return nil, errConsumerRequired
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	}
	return &Guard{store: store, consumer: consumer, ttl: ttl}, nil
}

// Claim reports true when this is the first delivery of key. A false result
// means another delivery already claimed it and the caller should ack and
// skip.
func (g *Guard) Claim(ctx context.Context, key string) (bool, error) {
	k, err := g.key(key)
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, k, processedMarker, g.ttl)
}

// Release drops a claim after a failed side effect so the redelivery runs.
func (g *Guard) Release(ctx context.Context, key string) error {
	k, err := g.key(key)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, k)
}

func (g *Guard) key(delivery string) (string, error) {
	delivery = strings.TrimSpace(delivery)
	if delivery == "" {
		return "", errKeyRequired
	}
	return g.store.IdempotencyKey("evt:"+g.consumer, delivery), nil
}
