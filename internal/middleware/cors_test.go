package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"openai-gateway/internal/config"
)

var defaultCORS = config.CORSConfig{
	AllowOrigin:  "*",
	AllowMethods: "GET,POST,OPTIONS",
	AllowHeaders: "Content-Type,Authorization",
}

func assertCORSHeaders(t *testing.T, h http.Header) {
	t.Helper()
	want := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
	}
	for k, v := range want {
		if got := h.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestCORS_PreflightAnyPath(t *testing.T) {
	paths := []string{"/openai", "/", "/does/not/exist", "/healthz"}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			handlerCalled := false
			e := echo.New()
			e.Use(CORS(defaultCORS))
			e.Any("/openai", func(c echo.Context) error {
				handlerCalled = true
				return c.String(http.StatusTeapot, "should not run")
			})

			req := httptest.NewRequest(http.MethodOptions, p, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if rec.Body.Len() != 0 {
				t.Errorf("body = %q, want empty", rec.Body.String())
			}
			if handlerCalled {
				t.Error("handler must not run for a preflight request")
			}
			assertCORSHeaders(t, rec.Header())
		})
	}
}

func TestCORS_HeadersWithoutOrigin(t *testing.T) {
	e := echo.New()
	e.Use(CORS(defaultCORS))
	e.POST("/openai", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/openai", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	assertCORSHeaders(t, rec.Header())
}

func TestCORS_HeadersOnErrors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"handler error", http.MethodPost, "/openai", http.StatusInternalServerError},
		{"not found", http.MethodGet, "/nope", http.StatusNotFound},
		{"method not allowed", http.MethodGet, "/openai", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(CORS(defaultCORS))
			e.POST("/openai", func(c echo.Context) error {
				return c.String(http.StatusInternalServerError, "Proxy error")
			})

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			assertCORSHeaders(t, rec.Header())
		})
	}
}

func TestCORS_ConfiguredValues(t *testing.T) {
	e := echo.New()
	e.Use(CORS(config.CORSConfig{
		AllowOrigin:  "https://app.example.com",
		AllowMethods: "POST",
		AllowHeaders: "Content-Type",
	}))
	e.POST("/openai", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/openai", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST" {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
}
