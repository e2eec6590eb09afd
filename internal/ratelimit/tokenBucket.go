package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// TokenBucket is a single client's token pool. Refill happens lazily on every
// access, computed from the monotonic clock so wall-clock rewinds cannot mint
// or destroy tokens.
type TokenBucket struct {
	mu         sync.Mutex
	rate       float64
	capacity   float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// refillLocked must be called with the mutex held.
func (b *TokenBucket) refillLocked() {
	now := b.now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed*b.rate)
	}
	b.lastRefill = now
}

// Consume tries to take n tokens. On denial nothing is deducted and the
// returned wait is the exact time until n tokens would be available.
func (b *TokenBucket) Consume(n int) (bool, float64, error) {
	if n <= 0 {
		return false, 0, fmt.Errorf("token count must be positive, got %d", n)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()

	needed := float64(n)
	if b.tokens >= needed {
		b.tokens -= needed
		return true, 0, nil
	}
	return false, (needed - b.tokens) / b.rate, nil
}

// Tokens reports the current token count after a refill.
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return b.tokens
}
