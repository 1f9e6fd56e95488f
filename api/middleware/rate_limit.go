package middleware

import (
	"net"
	"net/http"

	"github.com/agritraceio/agritrace-backend/api/responses"
	"github.com/agritraceio/agritrace-backend/pkg/config"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
	"github.com/agritraceio/agritrace-backend/pkg/redis"
)

// SubmitRateLimit applies a fixed-window limit on submission endpoints,
// keyed by the authenticated identity when present and by client IP
// otherwise. A nil limiter disables the middleware.
func SubmitRateLimit(limiter redis.RateLimiter, cfg config.RateLimitConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := "submit:ip:" + clientIP(r)
			limit := int64(cfg.SubmitIPLimit)
			if identity := LedgerIdentityFromContext(r.Context()); identity != "" {
				scope = "submit:identity:" + identity
				limit = int64(cfg.SubmitIdentityLimit)
			}

			allowed, count, err := limiter.FixedWindowAllow(r.Context(), scope, limit, cfg.SubmitWindow)
			if err != nil {
				// Redis being down should not take the write path with it.
				if logg != nil {
					logg.Warn(r.Context(), "rate limiter unavailable, allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				err := pkgerrors.New(pkgerrors.CodeRateLimit, "submission rate limit exceeded").
					WithDetails(map[string]any{"count": count, "limit": limit, "window": cfg.SubmitWindow.String()})
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
