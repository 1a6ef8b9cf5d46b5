package httpserver

import (
	"log/slog"
	"math"
	"strconv"
	"time"

	apperrors "github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

// newRateLimiter gives every signed-in identity its own token bucket for votes
// and submissions. Anonymous callers share a bucket per client IP. A denied
// request carries Retry-After with the time until the next token.
//
// Echo's limiter hands the deny handler's error straight to c.Error, so the
// JSON response is written here through h.
func newRateLimiter(perSecond float64, burst int, h *apperrors.Handler) echo.MiddlewareFunc {
	limit := rate.Limit(perSecond)
	retryAfter := retryAfterSeconds(limit)

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     burst,
		ExpiresIn: rateLimiterExpiry,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: rateLimitKey,
		Store:               store,
		DenyHandler: func(c echo.Context, identifier string, _ error) error {
			slog.InfoContext(c.Request().Context(), "Write rate limited", "key", identifier, "route", c.Path())
			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			return h.Handle(c, apperrors.RateLimitedError("too many votes or submissions, slow down").
				WithContext("retry_after_seconds", retryAfter))
		},
	})
}

func rateLimitKey(c echo.Context) (string, error) {
	if voter := voterFrom(c); voter.Present() {
		return "voter:" + voter.String(), nil
	}
	return "ip:" + c.RealIP(), nil
}

// retryAfterSeconds is the refill time of one token, at least one second.
func retryAfterSeconds(limit rate.Limit) int {
	if limit <= 0 || limit == rate.Inf {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(limit))))
}
