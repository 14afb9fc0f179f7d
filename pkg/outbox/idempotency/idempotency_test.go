package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	claimed map[string]time.Duration
	err     error
	deleted []string
}

func (f *fakeStore) Get(context.Context, string) (string, error)          { return "", nil }
func (f *fakeStore) Set(context.Context, string, any, time.Duration) error { return nil }

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.claimed == nil {
		f.claimed = map[string]time.Duration{}
	}
	if _, ok := f.claimed[key]; ok {
		return false, nil
	}
	f.claimed[key] = ttl
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.claimed, k)
	}
	f.deleted = append(f.deleted, keys...)
	return nil
}

func TestGuardClaimsOnce(t *testing.T) {
	store := &fakeStore{}
	guard, err := NewGuard(store, "payment_notification", 24*time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := guard.Claim(ctx, " ORD-1:settlement ")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := guard.Claim(ctx, "ORD-1:settlement")
	require.NoError(t, err)
	assert.False(t, again)

	assert.Equal(t, map[string]time.Duration{
		"sf:idempotency:evt:payment_notification:ORD-1:settlement": 24 * time.Hour,
	}, store.claimed)
}

func TestGuardReleaseAllowsRedelivery(t *testing.T) {
	store := &fakeStore{}
	guard, err := NewGuard(store, "order-notifications", time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = guard.Claim(ctx, "evt-1")
	require.NoError(t, err)
	require.NoError(t, guard.Release(ctx, "evt-1"))
	assert.Equal(t, []string{"sf:idempotency:evt:order-notifications:evt-1"}, store.deleted)

	first, err := guard.Claim(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestGuardSurfacesStoreErrors(t *testing.T) {
	guard, err := NewGuard(&fakeStore{err: errors.New("redis down")}, "order-notifications", time.Hour)
	require.NoError(t, err)

	_, err = guard.Claim(context.Background(), "evt-2")
	assert.EqualError(t, err, "redis down")
}

func TestGuardRejectsBlankKey(t *testing.T) {
	guard, err := NewGuard(&fakeStore{}, "order-notifications", time.Hour)
	require.NoError(t, err)

	_, err = guard.Claim(context.Background(), "  ")
	assert.ErrorIs(t, err, errKeyRequired)
	assert.ErrorIs(t, guard.Release(context.Background(), ""), errKeyRequired)
}

func TestNewGuardValidates(t *testing.T) {
	_, err := NewGuard(nil, "c", time.Hour)
	assert.ErrorIs(t, err, errStoreRequired)

	_, err = NewGuard(&fakeStore{}, " ", time.Hour)
	assert.ErrorIs(t, err, errConsumerRequired)

	_, err = NewGuard(&fakeStore{}, "c", -time.Second)
	assert.Error(t, err)
}
