package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedisStore struct {
	values map[string]string
	setErr error
	getErr error
	delErr error
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (f *fakeRedisStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedisStore) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, exists := f.values[key]
	if !exists {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeRedisStore) Del(ctx context.Context, keys ...string) error {
	if f.delErr != nil {
		return f.delErr
	}
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "cron-worker", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected acquire to succeed, got ok=%v err=%v", ok, err)
	}
	if _, exists := store.values["cron-worker"]; !exists {
		t.Fatal("lock key should be set after acquire")
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
	if _, exists := store.values["cron-worker"]; exists {
		t.Fatal("lock key should be gone after release")
	}
}

func TestRedisLockSecondAcquireIsRefused(t *testing.T) {
	store := newFakeRedisStore()
	first, _ := NewRedisLock(store, "cron-worker", time.Hour)
	second, _ := NewRedisLock(store, "cron-worker", time.Hour)

	if ok, _ := first.Acquire(context.Background()); !ok {
		t.Fatal("first acquire should succeed")
	}
	if ok, err := second.Acquire(context.Background()); ok || err != nil {
		t.Fatalf("second acquire should be refused cleanly, got ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseOnlyDeletesOwnValue(t *testing.T) {
	store := newFakeRedisStore()
	lock, _ := NewRedisLock(store, "cron-worker", time.Hour)

	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatal("acquire should succeed")
	}
	// Simulate the TTL expiring and another instance taking over.
	store.values["cron-worker"] = "someone-else"

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
	if store.values["cron-worker"] != "someone-else" {
		t.Fatal("release must not delete a lock it no longer owns")
	}
}

func TestRedisLockReleaseToleratesExpiredKey(t *testing.T) {
	store := newFakeRedisStore()
	lock, _ := NewRedisLock(store, "cron-worker", time.Hour)

	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatal("acquire should succeed")
	}
	delete(store.values, "cron-worker")

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("an expired key should release cleanly, got %v", err)
	}
}

func TestRedisLockReleaseWithoutAcquireIsNoop(t *testing.T) {
	store := newFakeRedisStore()
	store.getErr = errors.New("must not be called")
	lock, _ := NewRedisLock(store, "cron-worker", time.Hour)

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "key", time.Hour); err == nil {
		t.Fatal("expected an error for a nil client")
	}
	if _, err := NewRedisLock(newFakeRedisStore(), "", time.Hour); err == nil {
		t.Fatal("expected an error for an empty key")
	}
	lock, err := NewRedisLock(newFakeRedisStore(), "key", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lock.ttl != defaultLockTTL {
		t.Fatalf("expected the default TTL, got %v", lock.ttl)
	}
}
