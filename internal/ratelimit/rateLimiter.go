package ratelimit

import (
	"fmt"
	"sync"

	"github.com/docharvest/gateway/pkg/logger_i"
)

type Config struct {
	TokensPerSecond float64
	BucketSize      int
}

// LimitExceededError carries the retry hint the HTTP layer turns into a
// Retry-After header.
type LimitExceededError struct {
	ClientId   string
	RetryAfter float64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("Rate limit exceeded. Try again in %.2f seconds.", e.RetryAfter)
}

// RateLimiter owns one token bucket per client, created lazily on first use.
type RateLimiter struct {
	mu      sync.Mutex
	config  Config
	buckets map[string]*TokenBucket
	logger  *logger_i.Logger
}

func NewRateLimiter(config Config) *RateLimiter {
	return &RateLimiter{
		config:  config,
		buckets: make(map[string]*TokenBucket),
		logger:  logger_i.NewLogger("RateLimiter"),
	}
}

func (l *RateLimiter) getBucket(clientId string) *TokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	bucket, exists := l.buckets[clientId]
	if !exists {
		bucket = NewTokenBucket(l.config.TokensPerSecond, l.config.BucketSize)
		l.buckets[clientId] = bucket
	}
	return bucket
}

// Check consumes one token for the client and returns a LimitExceededError
// when the bucket is dry.
func (l *RateLimiter) Check(clientId string) error {
	return l.CheckN(clientId, 1)
}

func (l *RateLimiter) CheckN(clientId string, tokens int) error {
	granted, wait, err := l.getBucket(clientId).Consume(tokens)
	if err != nil {
		return err
	}
	if !granted {
		l.logger.Warn("Rate limit exceeded", "clientId", clientId, "waitSeconds", wait, "requestedTokens", tokens)
		return &LimitExceededError{ClientId: clientId, RetryAfter: wait}
	}
	return nil
}

// Remaining reports the client's current token count, refilled to the instant
// of the call. Used for quota headers.
func (l *RateLimiter) Remaining(clientId string) float64 {
	return l.getBucket(clientId).Tokens()
}

func (l *RateLimiter) BucketSize() int {
	return l.config.BucketSize
}

// Reset drops one client's bucket; the client is back to full quota on its
// next request.
func (l *RateLimiter) Reset(clientId string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, clientId)
}

func (l *RateLimiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[string]*TokenBucket)
}
