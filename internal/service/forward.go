// Package service implements the core forwarding logic.
package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"openai-gateway/internal/client"
	"openai-gateway/internal/metrics"
	"openai-gateway/internal/model"
)

// ErrInvalidJSON is returned when the inbound body does not parse as JSON.
// No upstream call is made in that case.
var ErrInvalidJSON = errors.New("request body is not valid JSON")

// NonJSONResponseError reports an upstream reply whose body is not JSON.
// Body holds the raw upstream text for diagnostics and relay.
type NonJSONResponseError struct {
	StatusCode int
	Body       []byte
}

func (e *NonJSONResponseError) Error() string {
	return fmt.Sprintf("upstream returned non-JSON body (status %d, %d bytes)", e.StatusCode, len(e.Body))
}

// Result is a successfully relayed upstream reply.
type Result struct {
	// UpstreamStatus is the status the upstream answered with. The gateway
	// replies 200 for any JSON body regardless of this value.
	UpstreamStatus int
	Body           []byte
}

// ForwardService relays chat-completion requests to the upstream.
type ForwardService struct {
	client  *client.UpstreamClient
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewForwardService creates a ForwardService. The metrics parameter may be nil.
func NewForwardService(c *client.UpstreamClient, logger *slog.Logger, m *metrics.Metrics) *ForwardService {
	return &ForwardService{
		client:  c,
		logger:  logger.With("component", "forward_service"),
		metrics: m,
	}
}

// Forward validates the inbound body, sends it upstream once and classifies the reply.
//
// Errors:
//   - ErrInvalidJSON (wrapped) when the inbound body is not JSON.
//   - *NonJSONResponseError when the upstream answered with a non-JSON body.
//   - any other error is a transport failure from the upstream client.
func (s *ForwardService) Forward(req *model.CompletionRequest) (*Result, error) {
	payload, err := reserialize(req.Body)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("forwarding request", "bytes", len(payload))

	resp, err := s.client.Post(req.Ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	if !json.Valid(resp.Body) {
		if s.metrics != nil {
			s.metrics.UpstreamNonJSON.Inc()
		}
		return nil, &NonJSONResponseError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	return &Result{UpstreamStatus: resp.StatusCode, Body: resp.Body}, nil
}

// reserialize checks that body is JSON and returns its compact encoding.
// Identical inputs yield byte-identical outputs, and the result decodes to
// the same value as the input.
func reserialize(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if buf.Len() == 0 {
		return nil, ErrInvalidJSON
	}
	return buf.Bytes(), nil
}
