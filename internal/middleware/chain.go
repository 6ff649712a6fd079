package middleware

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"openai-gateway/internal/config"
	"openai-gateway/internal/metrics"
)

// Chain returns the interceptors applied to every request, in order.
// CORS runs before anything that can short-circuit a request so that
// preflights, rejections and errors all carry the cross-origin headers.
// The metrics parameter may be nil.
func Chain(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) []echo.MiddlewareFunc {
	chain := []echo.MiddlewareFunc{
		echomw.Recover(),
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}),
		CORS(cfg.CORS),
		RequestLogger(logger),
	}

	if m != nil {
		chain = append(chain, MetricsMiddleware(m))
	}

	chain = append(chain,
		echomw.BodyLimit(fmt.Sprintf("%dB", cfg.Server.BodyMaxBytes)),
		SecurityHeaders(),
	)

	if cfg.Server.RateLimit.Enabled {
		store := echomw.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimit.RequestsPerSecond))
		chain = append(chain, echomw.RateLimiter(store))
		logger.Info("rate limiter enabled", "rps", cfg.Server.RateLimit.RequestsPerSecond)
	}

	return chain
}
