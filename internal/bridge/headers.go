package bridge

import (
	"context"
	"net/http"
	"strings"
)

// forwardedHeadersKey is the context key for caller-supplied headers.
type forwardedHeadersKey struct{}

// hopHeaders are connection-scoped headers that must not be forwarded to the
// backing target; the assembled request carries its own versions of these.
var hopHeaders = map[string]bool{
	"host":           true,
	"content-length": true,
	"content-type":   true,
	"connection":     true,
	"upgrade":        true,
}

// WithForwardedHeaders returns a new context carrying the caller's headers
// for the dispatcher to forward.
func WithForwardedHeaders(ctx context.Context, h http.Header) context.Context {
	return context.WithValue(ctx, forwardedHeadersKey{}, h)
}

// ForwardedHeaders extracts the caller's headers from the context, if present.
func ForwardedHeaders(ctx context.Context) (http.Header, bool) {
	h, ok := ctx.Value(forwardedHeadersKey{}).(http.Header)
	return h, ok
}

// CaptureHeaders wraps an MCP transport handler so the headers of the
// inbound MCP request are available to tool handlers via the context.
func CaptureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithForwardedHeaders(r.Context(), r.Header.Clone())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// filterForwardedHeaders copies the caller's headers, dropping the
// connection-scoped ones, and marks the request as bridge-originated.
func filterForwardedHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h)+1)
	for key, vals := range h {
		if hopHeaders[strings.ToLower(key)] {
			continue
		}
		for _, v := range vals {
			out.Add(key, v)
		}
	}
	out.Set("X-MCP-Source", "true")
	return out
}
