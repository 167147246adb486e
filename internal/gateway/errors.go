package gateway

import "errors"

// Sentinel errors for gateway calls. Both are recoverable: callers retry or
// fall back to a clarifying turn rather than failing the session.
var (
	ErrUpstreamUnavailable = errors.New("language model unavailable")
	ErrMalformedResponse   = errors.New("malformed model response")
)
