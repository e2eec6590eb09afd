package middleware

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/docharvest/gateway/internal/adapter/utils"
	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/domain/appError"
	"github.com/docharvest/gateway/internal/handlers"
	"github.com/docharvest/gateway/internal/metrics"
	"github.com/docharvest/gateway/internal/ratelimit"
	"github.com/docharvest/gateway/pkg/logger_i"
)

// Middleware wraps handlers with trace injection and admission rate
// limiting. The limiter comes in through the constructor so tests can use
// tiny buckets.
type Middleware struct {
	limiter *ratelimit.RateLimiter
	logger  *logger_i.Logger
}

func NewMiddleware(limiter *ratelimit.RateLimiter) *Middleware {
	return &Middleware{
		limiter: limiter,
		logger:  logger_i.NewLogger("middleware"),
	}
}

// Wrap runs trace injection, then rate limiting, then the handler. Requests
// rejected here use the same error envelope the handlers use.
func (m *Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := metrics.NewHttpStatusRecorder(w)
		r = m.injectTrace(r)

		if m.admit(rec, r) {
			next(rec, r)
		}

		metrics.HttpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	}
}

func (m *Middleware) injectTrace(r *http.Request) *http.Request {
	trace := r.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	ctx := context.WithValue(r.Context(), config.TRACE_ID_KEY, trace)
	r.Header.Set("X-Trace-Id", trace)
	return r.WithContext(ctx)
}

// admit checks the client's bucket and writes the 429 response itself on
// denial. Returns whether the request may proceed.
func (m *Middleware) admit(w http.ResponseWriter, r *http.Request) bool {
	clientId := ClientIdentifier(r)

	if err := m.limiter.Check(clientId); err != nil {
		var limitErr *ratelimit.LimitExceededError
		if errors.As(err, &limitErr) {
			metrics.RateLimitDenialsTotal.Inc()
			m.logger.Warn("Request rejected by rate limiter", "clientId", clientId,
				"retryAfter", limitErr.RetryAfter, "traceId", r.Header.Get("X-Trace-Id"))

			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(limitErr.RetryAfter)))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limiter.BucketSize()))
			w.Header().Set("X-RateLimit-Remaining", "0")
			handlers.WriteAppError(w, r, appError.Wrap(appError.RateLimit, limitErr.Error(), limitErr).
				WithDetails(map[string]any{"retry_after": limitErr.RetryAfter}))
			return false
		}
		handlers.WriteAppError(w, r, err)
		return false
	}

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limiter.BucketSize()))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(m.limiter.Remaining(clientId))))
	return true
}

// retryAfterSeconds rounds up so clients never retry before the bucket can
// actually grant a token.
func retryAfterSeconds(wait float64) int {
	seconds := int(math.Ceil(wait))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
