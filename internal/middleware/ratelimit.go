package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/dao-advisor/internal/logger"
)

// Limiter decides whether one more request for key fits in the current budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TokenBucket implements token bucket rate limiting
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastSeen   time.Time
}

func NewTokenBucket(capacity int, refillRate float64, now time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastSeen:   now,
	}
}

func (tb *TokenBucket) allow(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := now.Sub(tb.lastSeen).Seconds()
	if elapsed > 0 {
		tb.tokens += elapsed * tb.refillRate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
	}
	tb.lastSeen = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// MemoryLimiter keeps one token bucket per key in process memory.
type MemoryLimiter struct {
	mu       sync.RWMutex
	buckets  map[string]*TokenBucket
	capacity int
	rate     float64
	now      func() time.Time
}

// NewMemoryLimiter allows requests per window with bursts up to requests. Idle buckets are
// swept until ctx is done.
func NewMemoryLimiter(ctx context.Context, requests int, window time.Duration) *MemoryLimiter {
	ml := &MemoryLimiter{
		buckets:  make(map[string]*TokenBucket),
		capacity: requests,
		rate:     float64(requests) / window.Seconds(),
		now:      time.Now,
	}
	go ml.cleanup(ctx, 5*time.Minute, 10*time.Minute)
	return ml
}

func (ml *MemoryLimiter) bucket(key string) *TokenBucket {
	ml.mu.RLock()
	b, ok := ml.buckets[key]
	ml.mu.RUnlock()
	if ok {
		return b
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if b, ok := ml.buckets[key]; ok {
		return b
	}
	b = NewTokenBucket(ml.capacity, ml.rate, ml.now())
	ml.buckets[key] = b
	return b
}

func (ml *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	return ml.bucket(key).allow(ml.now()), nil
}

func (ml *MemoryLimiter) cleanup(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ml.sweep(idle)
		}
	}
}

func (ml *MemoryLimiter) sweep(idle time.Duration) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	now := ml.now()
	for key, b := range ml.buckets {
		b.mu.Lock()
		if now.Sub(b.lastSeen) > idle {
			delete(ml.buckets, key)
		}
		b.mu.Unlock()
	}
}

// RedisLimiter is a fixed-window counter shared by every replica.
type RedisLimiter struct {
	client   redis.UniversalClient
	requests int64
	window   time.Duration
	prefix   string
	now      func() time.Time
}

func NewRedisLimiter(client redis.UniversalClient, requests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		requests: int64(requests),
		window:   window,
		prefix:   "dao-advisor:ratelimit:",
		now:      time.Now,
	}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := rl.now().UnixNano() / int64(rl.window)
	k := rl.prefix + key + ":" + strconv.FormatInt(slot, 10)

	n, err := rl.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	if n == 1 {
		if err := rl.client.Expire(ctx, k, rl.window).Err(); err != nil {
			return false, fmt.Errorf("redis expire: %w", err)
		}
	}
	return n <= rl.requests, nil
}

// RateLimit rejects requests over budget with 429. Limiter errors let the request through.
func RateLimit(l Limiter, window time.Duration, log logger.Logger, rejected prometheus.Counter) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetClientFromContext(r.Context()) + ":" + ClientIP(r)

			ok, err := l.Allow(r.Context(), key)
			if err != nil {
				log.WithError(err).Warn("rate limiter unavailable, allowing request", nil)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				if rejected != nil {
					rejected.Inc()
				}
				w.Header().Set("Retry-After", retryAfter)
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP is the remote host without port. Put chi's RealIP in front to honor proxies.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
