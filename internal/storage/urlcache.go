package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultExpiry is the real validity of a signed URL when the caller does
// not specify one.
const DefaultExpiry = time.Hour

const (
	// defaultInternalTTL keeps cached URLs strictly shorter-lived than the
	// signature itself, so a served URL is always still valid at hand-off.
	defaultInternalTTL = 50 * time.Minute
	// defaultSweepInterval bounds memory growth independent of read traffic.
	defaultSweepInterval = 5 * time.Minute
)

// SignURLError reports a signing failure for a specific object key after the
// single direct fallback attempt also failed.
type SignURLError struct {
	Key string
	Err error
}

func (e *SignURLError) Error() string {
	return fmt.Sprintf("storage: sign url for %q: %v", e.Key, e.Err)
}

func (e *SignURLError) Unwrap() error {
	return e.Err
}

// Signer is the slice of ObjectStore the cache depends on.
type Signer interface {
	Sign(ctx context.Context, key string, expiresIn time.Duration) (string, error)
}

type cacheEntry struct {
	url       string
	expiresAt time.Time
}

// CacheOptions tunes the URL cache. Zero values select production defaults.
type CacheOptions struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// URLCache memoizes pre-signed URLs keyed by (object key, requested expiry).
// The cache is process-local; a cold cache after redeploy is accepted
// behavior.
type URLCache struct {
	signer   Signer
	ttl      time.Duration
	interval time.Duration
	logger   zerolog.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry

	done      chan struct{}
	closeOnce sync.Once
}

// NewURLCache wires a cache over the signer and starts the periodic sweep.
// Callers must Close it to stop the sweep goroutine.
func NewURLCache(signer Signer, logger zerolog.Logger, opts CacheOptions) *URLCache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultInternalTTL
	}
	interval := opts.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	c := &URLCache{
		signer:   signer,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		entries:  make(map[string]cacheEntry),
		done:     make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Close stops the background sweep.
func (c *URLCache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// SignedURL returns a signed read URL for the key, serving from cache while
// the internal TTL holds. On a signing failure it falls back to one direct
// attempt before propagating the error.
func (c *URLCache) SignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if expiresIn <= 0 {
		expiresIn = DefaultExpiry
	}
	cacheKey := key + ":" + strconv.FormatInt(int64(expiresIn/time.Second), 10)

	c.mu.RLock()
	entry, ok := c.entries[cacheKey]
	c.mu.RUnlock()
	if ok && entry.expiresAt.After(time.Now()) {
		return entry.url, nil
	}

	url, err := c.signer.Sign(ctx, key, expiresIn)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("urlcache: sign failed, retrying direct")
		direct, retryErr := c.signer.Sign(ctx, key, expiresIn)
		if retryErr != nil {
			return "", &SignURLError{Key: key, Err: retryErr}
		}
		return direct, nil
	}

	ttl := c.ttl
	if ttl >= expiresIn {
		ttl = expiresIn / 2
	}
	c.mu.Lock()
	c.entries[cacheKey] = cacheEntry{url: url, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return url, nil
}

// SignedURLs resolves keys independently and concurrently. A failed key is
// omitted from the result map, never raised as a whole-batch error.
func (c *URLCache) SignedURLs(ctx context.Context, keys []string, expiresIn time.Duration) map[string]string {
	result := make(map[string]string, len(keys))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			url, err := c.SignedURL(ctx, key, expiresIn)
			if err != nil {
				c.logger.Warn().Err(err).Str("key", key).Msg("urlcache: batch sign failed, omitting key")
				return
			}
			mu.Lock()
			result[key] = url
			mu.Unlock()
		}(key)
	}
	wg.Wait()
	return result
}

// Len reports the number of live entries. Used by tests and debug endpoints.
func (c *URLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *URLCache) sweepLoop() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep(time.Now())
		}
	}
}

func (c *URLCache) sweep(now time.Time) {
	c.mu.Lock()
	for key, entry := range c.entries {
		if !entry.expiresAt.After(now) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}
