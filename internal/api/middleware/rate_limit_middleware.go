package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

/*
TokenBucket 每次 Allow 時依經過時間補充 token，不需要背景 goroutine
ratePS 每秒補充數量，capacity 最多累積數量
*/
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	ratePS     float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

func NewTokenBucket(ratePS float64, capacity int) *TokenBucket {
	return newTokenBucket(ratePS, capacity, time.Now)
}

func newTokenBucket(ratePS float64, capacity int, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		ratePS:     ratePS,
		tokens:     float64(capacity),
		lastRefill: now(),
		now:        now,
	}
}

func (t *TokenBucket) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	elapsed := now.Sub(t.lastRefill).Seconds()
	if elapsed > 0 {
		t.tokens = min(t.capacity, t.tokens+elapsed*t.ratePS)
		t.lastRefill = now
	}
	if t.tokens < 1 {
		return false
	}
	t.tokens--
	return true
}

// RateLimitMiddleware bucket 為 nil 時不限流
func RateLimitMiddleware(bucket *TokenBucket) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if bucket == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !bucket.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error":   "too many requests",
					"message": "bulk operations are rate limited, try again shortly",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
