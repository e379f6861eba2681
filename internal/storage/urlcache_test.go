package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingSigner struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func newCountingSigner() *countingSigner {
	return &countingSigner{calls: map[string]int{}, fail: map[string]error{}}
}

func (s *countingSigner) Sign(_ context.Context, key string, expiresIn time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[key]++
	if err := s.fail[key]; err != nil {
		return "", err
	}
	return fmt.Sprintf("https://cdn.example.com/%s?n=%d&exp=%d", key, s.calls[key], int(expiresIn.Seconds())), nil
}

func (s *countingSigner) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

func newTestCache(signer Signer, opts CacheOptions) *URLCache {
	return NewURLCache(signer, zerolog.New(io.Discard), opts)
}

func TestSignedURLCachesWithinTTL(t *testing.T) {
	signer := newCountingSigner()
	cache := newTestCache(signer, CacheOptions{TTL: time.Minute, SweepInterval: time.Hour})
	defer cache.Close()

	first, err := cache.SignedURL(context.Background(), "flyers/a.png", time.Hour)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := cache.SignedURL(context.Background(), "flyers/a.png", time.Hour)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first != second {
		t.Fatalf("cache miss on second call: %q vs %q", first, second)
	}
	if got := signer.count("flyers/a.png"); got != 1 {
		t.Fatalf("sign calls = %d, want 1", got)
	}
}

func TestSignedURLRefreshesAfterTTL(t *testing.T) {
	signer := newCountingSigner()
	cache := newTestCache(signer, CacheOptions{TTL: 10 * time.Millisecond, SweepInterval: time.Hour})
	defer cache.Close()

	if _, err := cache.SignedURL(context.Background(), "flyers/a.png", time.Hour); err != nil {
		t.Fatalf("first call: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := cache.SignedURL(context.Background(), "flyers/a.png", time.Hour); err != nil {
		t.Fatalf("stale call: %v", err)
	}
	if got := signer.count("flyers/a.png"); got != 2 {
		t.Fatalf("sign calls = %d, want 2", got)
	}
}

func TestSignedURLDistinctExpiriesAreDistinctEntries(t *testing.T) {
	signer := newCountingSigner()
	cache := newTestCache(signer, CacheOptions{TTL: time.Minute, SweepInterval: time.Hour})
	defer cache.Close()

	if _, err := cache.SignedURL(context.Background(), "k", time.Hour); err != nil {
		t.Fatalf("hour expiry: %v", err)
	}
	if _, err := cache.SignedURL(context.Background(), "k", 30*time.Minute); err != nil {
		t.Fatalf("half-hour expiry: %v", err)
	}
	if got := signer.count("k"); got != 2 {
		t.Fatalf("sign calls = %d, want 2", got)
	}
	if got := cache.Len(); got != 2 {
		t.Fatalf("entries = %d, want 2", got)
	}
}

func TestSignedURLFallsBackOnceThenPropagates(t *testing.T) {
	signer := newCountingSigner()
	signer.fail["broken"] = errors.New("backend down")
	cache := newTestCache(signer, CacheOptions{TTL: time.Minute, SweepInterval: time.Hour})
	defer cache.Close()

	_, err := cache.SignedURL(context.Background(), "broken", time.Hour)
	var signErr *SignURLError
	if !errors.As(err, &signErr) {
		t.Fatalf("error = %v, want *SignURLError", err)
	}
	if signErr.Key != "broken" {
		t.Fatalf("error key = %q, want broken", signErr.Key)
	}
	if got := signer.count("broken"); got != 2 {
		t.Fatalf("sign calls = %d, want 2 (one fallback retry)", got)
	}
}

func TestSignedURLsBatchOmitsFailedKeys(t *testing.T) {
	signer := newCountingSigner()
	signer.fail["k2"] = errors.New("object not found")
	cache := newTestCache(signer, CacheOptions{TTL: time.Minute, SweepInterval: time.Hour})
	defer cache.Close()

	got := cache.SignedURLs(context.Background(), []string{"k1", "k2", "k3"}, time.Hour)
	if len(got) != 2 {
		t.Fatalf("result size = %d, want 2: %#v", len(got), got)
	}
	if _, ok := got["k1"]; !ok {
		t.Fatalf("k1 missing from result: %#v", got)
	}
	if _, ok := got["k3"]; !ok {
		t.Fatalf("k3 missing from result: %#v", got)
	}
	if _, ok := got["k2"]; ok {
		t.Fatalf("failed key k2 must be omitted: %#v", got)
	}
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	signer := newCountingSigner()
	cache := newTestCache(signer, CacheOptions{TTL: 5 * time.Millisecond, SweepInterval: time.Hour})
	defer cache.Close()

	if _, err := cache.SignedURL(context.Background(), "a", time.Hour); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := cache.SignedURL(context.Background(), "b", time.Hour); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if got := cache.Len(); got != 2 {
		t.Fatalf("entries before sweep = %d, want 2", got)
	}
	cache.sweep(time.Now().Add(time.Minute))
	if got := cache.Len(); got != 0 {
		t.Fatalf("entries after sweep = %d, want 0", got)
	}
}
