package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"openai-gateway/internal/config"
	"openai-gateway/internal/metrics"
)

func newChainEcho(cfg *config.Config, m *metrics.Metrics) *echo.Echo {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := echo.New()
	e.Use(Chain(cfg, logger, m)...)
	e.POST("/openai", func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/panic", func(echo.Context) error {
		panic("boom")
	})
	return e
}

func chainConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BodyMaxBytes: 16},
		CORS:   defaultCORS,
	}
}

func TestChain_RequestIDIsUUID(t *testing.T) {
	e := newChainEcho(chainConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/openai", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	id := rec.Header().Get(echo.HeaderXRequestID)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("X-Request-Id = %q, want a UUID: %v", id, err)
	}
}

func TestChain_BodyLimitCarriesCORS(t *testing.T) {
	e := newChainEcho(chainConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/openai", strings.NewReader(`{"content":"this is far too long"}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	assertCORSHeaders(t, rec.Header())
}

func TestChain_PanicRecoveredWithCORS(t *testing.T) {
	e := newChainEcho(chainConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/panic", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	assertCORSHeaders(t, rec.Header())
}

func TestChain_MetricsOptional(t *testing.T) {
	cfg := chainConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	without := len(Chain(cfg, logger, nil))
	with := len(Chain(cfg, logger, metrics.New()))
	if with != without+1 {
		t.Errorf("chain length with metrics = %d, want %d", with, without+1)
	}

	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 5}
	if got := len(Chain(cfg, logger, nil)); got != without+1 {
		t.Errorf("chain length with rate limit = %d, want %d", got, without+1)
	}
}
