// Package cache memoises solve results in Redis. Keys are namespaced by the
// dictionary fingerprint, so results computed against a different word list
// are never served.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/jumble-solver/internal/solver"
	apperrors "github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/errors"
	pkgredis "github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/jumble-solver/pkg/resilience"
)

const keyPrefix = "jumble:"

// Store is the subset of the Redis client the cache uses.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store     Store
	ttl       time.Duration
	namespace string
	breaker   *resilience.CircuitBreaker
	group     singleflight.Group
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// New returns a cache over store for the dictionary identified by
// fingerprint. breaker may be nil.
func New(store Store, ttl time.Duration, fingerprint string, breaker *resilience.CircuitBreaker) *QueryCache {
	ns := fingerprint
	if len(ns) > 16 {
		ns = ns[:16]
	}
	return &QueryCache{
		store:     store,
		ttl:       ttl,
		namespace: ns,
		breaker:   breaker,
		logger:    slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, query string) (*solver.Result, bool) {
	key := c.buildKey(query)
	var data []byte
	err := c.guard(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			data = nil
			return nil
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	if data == nil {
		c.misses.Add(1)
		return nil, false
	}
	var result solver.Result
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, query string, result *solver.Result) {
	key := c.buildKey(query)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.guard(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for query or computes, stores and
// returns it. Concurrent misses for the same query share one computation,
// which runs detached from any single caller's cancellation so one client
// going away does not fail the others; computeFn must bound its own run
// time. Each caller still stops waiting when its own ctx is done. The
// returned result is shared and must not be modified.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	computeFn func(ctx context.Context) (*solver.Result, error),
) (*solver.Result, bool, error) {
	if result, ok := c.Get(ctx, query); ok {
		return result, true, nil
	}
	key := c.buildKey(query)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		detached := context.WithoutCancel(ctx)
		result, err := computeFn(detached)
		if err != nil {
			return nil, err
		}
		c.Set(detached, query, result)
		return result, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*solver.Result), false, nil
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: waiting for %q: %w", apperrors.ErrTimeout, query, err)
		}
		return nil, false, err
	}
}

// Invalidate removes every cached result, for all dictionaries.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

// Available reports whether the cache would currently reach Redis. It is
// false while the circuit breaker is open.
func (c *QueryCache) Available() bool {
	return c.breaker == nil || c.breaker.Allow()
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) guard(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	return c.breaker.Execute(fn)
}

// buildKey hashes the query so arbitrary input cannot collide with the key
// layout. Queries are not normalised: case is significant to the solver.
func (c *QueryCache) buildKey(query string) string {
	hash := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%s%s:%x", keyPrefix, c.namespace, hash[:16])
}
