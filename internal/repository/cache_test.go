package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"contactfinder/internal/model"
)

func newTestCache(t *testing.T) *BalanceCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewBalanceCache(rdb)
}

func TestCacheMiss(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Get(context.Background(), "u1")
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)

	want := &model.BalanceSummary{Credits: 9, TotalSearches: 3, SuccessfulSearches: 2}
	if err := cache.Set(context.Background(), "u1", want); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := cache.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if *got != *want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestCacheInvalidate(t *testing.T) {
	cache := newTestCache(t)

	summary := &model.BalanceSummary{Credits: 1}
	if err := cache.Set(context.Background(), "u1", summary); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Invalidate(context.Background(), "u1"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if _, err := cache.Get(context.Background(), "u1"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss after invalidate, got %v", err)
	}
}

func TestCacheKeysAreScopedPerUser(t *testing.T) {
	cache := newTestCache(t)

	if err := cache.Set(context.Background(), "u1", &model.BalanceSummary{Credits: 1}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, err := cache.Get(context.Background(), "u2"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss for other user, got %v", err)
	}
}
