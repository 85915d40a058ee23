package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/maruel/sheetdb/internal/errors"
	"github.com/maruel/sheetdb/internal/server/reqctx"
)

// WriteHeaders sets the X-RateLimit-* headers, plus Retry-After when the
// request was refused.
func WriteHeaders(w http.ResponseWriter, res Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	if !res.Allowed {
		h.Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
	}
}

// Middleware refuses requests over their tier's limit with 429. Buckets are
// keyed by client IP and tier.
func (c *Config) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tier := c.Match(r.Method, r.URL.Path)
		if tier == nil {
			next.ServeHTTP(w, r)
			return
		}
		ip := reqctx.GetClientIP(r)
		res := tier.Limiter.Allow(tier.Name + ":" + ip)
		WriteHeaders(w, res)
		if !res.Allowed {
			slog.WarnContext(r.Context(), "Rate limited", "tier", tier.Name, "ip", ip)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": apierrors.ErrRateLimited, "message": "too many requests"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
