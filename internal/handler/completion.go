package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"openai-gateway/internal/model"
	"openai-gateway/internal/service"
)

// proxyErrorMessage is the fixed body returned when the upstream cannot be reached.
const proxyErrorMessage = "Proxy error"

// secretPatterns match credentials that may surface in transport error messages.
var secretPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)(bearer\s+)[^\s"]+`), "${1}[REDACTED]"},
	{regexp.MustCompile(`sk-[A-Za-z0-9_\-]{8,}`), "sk-[REDACTED]"},
}

// CompletionHandler forwards chat-completion requests to the upstream.
type CompletionHandler struct {
	service *service.ForwardService
	logger  *slog.Logger
}

// NewCompletionHandler creates a CompletionHandler.
func NewCompletionHandler(svc *service.ForwardService, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{
		service: svc,
		logger:  logger.With("component", "completion_handler"),
	}
}

// Handle reads the JSON body, forwards it upstream and relays the reply.
//
// A JSON upstream body is returned with 200 whatever the upstream status was.
// A non-JSON upstream body is returned verbatim with 500, and a transport
// failure yields 500 with a fixed message.
func (h *CompletionHandler) Handle(c echo.Context) error {
	req := c.Request()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		// BodyLimit reports oversized bodies as an *echo.HTTPError from Read.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		h.logger.Warn("reading request body", "err", err)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "could not read request body",
		})
	}

	res, err := h.service.Forward(&model.CompletionRequest{
		Ctx:  req.Context(),
		Body: body,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	if res.UpstreamStatus != http.StatusOK {
		h.logger.Debug("relaying upstream JSON with non-200 status",
			"upstream_status", res.UpstreamStatus,
		)
	}

	return c.JSONBlob(http.StatusOK, res.Body)
}

func (h *CompletionHandler) mapError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrInvalidJSON) {
		h.logger.Info("rejected request body", "err", err.Error())
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "request body must be valid JSON",
		})
	}

	var nonJSON *service.NonJSONResponseError
	if errors.As(err, &nonJSON) {
		h.logger.Error("upstream response was not JSON",
			"upstream_status", nonJSON.StatusCode,
			"body", string(nonJSON.Body),
		)
		return c.Blob(http.StatusInternalServerError, echo.MIMETextPlainCharsetUTF8, nonJSON.Body)
	}

	h.logger.Error("proxy error",
		"err", sanitizeError(err),
		"cause", transportCause(err),
	)
	return c.String(http.StatusInternalServerError, proxyErrorMessage)
}

// transportCause gives a coarse label for an outbound failure, for logs only.
// Every cause maps to the same response.
func transportCause(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "client_canceled"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connection"
	}

	return "unknown"
}

// sanitizeError redacts bearer tokens and API keys from error messages.
func sanitizeError(err error) string {
	s := err.Error()
	for _, p := range secretPatterns {
		s = p.re.ReplaceAllString(s, p.repl)
	}
	return s
}
