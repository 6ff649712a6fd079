// Package model defines shared types for the gateway.
package model

import (
	"context"
	"net/http"
)

// CompletionRequest is an inbound chat-completion call. Body is opaque JSON
// and is never inspected beyond a validity check.
type CompletionRequest struct {
	Ctx  context.Context
	Body []byte
}

// UpstreamResponse is the fully read upstream reply.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
