package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vidvault/client/internal/credstore"
	"github.com/vidvault/client/internal/logging"
)

// Middleware is one link of the outbound request pipeline: a transform from
// transport to transport. The chain is composed once at client construction;
// there are no ambient interceptors to register or unregister at runtime.
type Middleware func(http.RoundTripper) http.RoundTripper

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain wraps base with the provided middleware, outermost first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}

// BearerInjector attaches the stored bearer token to every outbound request.
// Injection is uniform: no endpoint opts in or out, and an absent credential
// simply sends the request unauthenticated for the backend to judge.
func BearerInjector(store credstore.Store) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if cred, ok := store.Load(req.Context()); ok {
				clone := req.Clone(req.Context())
				clone.Header.Set("Authorization", "Bearer "+cred.Token)
				return next.RoundTrip(clone)
			}
			return next.RoundTrip(req)
		})
	}
}

// RequestID stamps each request with a unique identifier for correlation
// with backend logs.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			clone := req.Clone(req.Context())
			clone.Header.Set("X-Request-ID", uuid.NewString())
			return next.RoundTrip(clone)
		})
	}
}

// RateLimit holds outbound requests to the configured politeness budget,
// waiting (not failing) when the budget is exhausted.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
			return next.RoundTrip(req)
		})
	}
}

// RequestLogger emits one structured log line per outbound request. Only
// method, path, and status are logged; query strings and headers carry
// tokens and never reach the log.
func RequestLogger() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			logger := logging.FromContext(req.Context()).With(
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
			)
			if op := logging.OperationIDFromContext(req.Context()); op != "" {
				logger = logger.With(slog.String("operation", op))
			}

			resp, err := next.RoundTrip(req)
			if err != nil {
				logger.Warn("request failed",
					slog.Duration("duration", time.Since(start)),
					"error", err,
				)
				return nil, err
			}

			logger.Info("request completed",
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", time.Since(start)),
			)
			return resp, nil
		})
	}
}
