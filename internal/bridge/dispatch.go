package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/toolbridge/toolbridge/internal/common"
)

// InvocationRequest is one tool call: name, caller arguments, and the
// caller's headers to forward to the backing target.
type InvocationRequest struct {
	ToolName  string
	Arguments map[string]any
	Headers   http.Header
}

// DispatchResult is the normalized outcome of a dispatch, regardless of
// whether the underlying call was local or remote. A non-2xx status is a
// successful dispatch carrying an unsuccessful payload.
type DispatchResult struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// Dispatch resolves a tool by name, assembles the concrete request from the
// declared parameter locations, and executes it against the backing target.
func (r *Registry) Dispatch(ctx context.Context, req InvocationRequest) (DispatchResult, error) {
	entry, ok := r.byName[req.ToolName]
	if !ok {
		return DispatchResult{}, fmt.Errorf("%w: %q", ErrUnknownTool, req.ToolName)
	}

	// Fail fast before any call is attempted. An explicit JSON null counts
	// as absent; it must never serialize into a path or query value.
	for _, p := range entry.Tool.Params {
		if !p.Required {
			continue
		}
		if v, present := req.Arguments[p.Name]; !present || v == nil {
			return DispatchResult{}, missingArgumentError(req.ToolName, p.Name)
		}
	}

	pathVals := make(map[string]string)
	var queryParts []string
	bodyVals := make(map[string]any)

	for _, p := range entry.Tool.Params {
		val, present := req.Arguments[p.Name]
		if !present || val == nil {
			if p.Default == nil {
				continue
			}
			val = p.Default
		}
		switch p.In {
		case LocationPath:
			pathVals[p.Name] = fmt.Sprint(val)
		case LocationQuery:
			// Assembled in declaration order, not url.Values map order.
			queryParts = append(queryParts, url.QueryEscape(p.Name)+"="+url.QueryEscape(fmt.Sprint(val)))
		case LocationBody:
			bodyVals[p.Name] = val
		}
	}
	rawQuery := strings.Join(queryParts, "&")

	var bodyBytes []byte
	if len(bodyVals) > 0 {
		var payload any = bodyVals
		if entry.Tool.SingleBody != "" && len(bodyVals) == 1 {
			if v, single := bodyVals[entry.Tool.SingleBody]; single {
				payload = v
			}
		}
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return DispatchResult{}, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	headers := filterForwardedHeaders(req.Headers)

	if entry.Target.Local != nil {
		return r.dispatchLocal(ctx, entry, pathVals, rawQuery, bodyBytes, headers)
	}
	return r.dispatchRemote(ctx, entry, pathVals, rawQuery, bodyBytes, headers)
}

// dispatchLocal re-enters the host pipeline in-process, as if an equivalent
// HTTP request had arrived, so the host's own middleware executes.
func (r *Registry) dispatchLocal(ctx context.Context, entry *Entry, pathVals map[string]string, rawQuery string, body []byte, headers http.Header) (DispatchResult, error) {
	if r.pipeline == nil {
		return DispatchResult{}, fmt.Errorf("tool %q has a local target but no host pipeline is bound", entry.Tool.Name)
	}

	target := entry.Target.Local
	path, err := substitutePath(target.Route, pathVals)
	if err != nil {
		return DispatchResult{}, err
	}
	requestURL := path
	if rawQuery != "" {
		requestURL += "?" + rawQuery
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, target.Method, requestURL, bodyReader)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("failed to build internal request: %w", err)
	}
	httpReq.Host = "toolbridge-internal"
	httpReq.Header = headers
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	r.logger.Debug().Str("tool", entry.Tool.Name).Str("method", target.Method).Str("path", requestURL).Msg("local dispatch")

	start := time.Now()
	rec := newPipelineRecorder()
	r.pipeline.ServeHTTP(rec, httpReq)

	result := rec.result()
	r.logger.Debug().
		Str("tool", entry.Tool.Name).
		Int("status", result.StatusCode).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("local dispatch complete")
	return result, nil
}

// dispatchRemote issues an outbound HTTP request to the resolved URL.
func (r *Registry) dispatchRemote(ctx context.Context, entry *Entry, pathVals map[string]string, rawQuery string, body []byte, headers http.Header) (DispatchResult, error) {
	target := entry.Target.Remote
	resolved, err := substitutePath(target.URLTemplate, pathVals)
	if err != nil {
		return DispatchResult{}, err
	}
	if rawQuery != "" {
		if strings.Contains(resolved, "?") {
			resolved += "&" + rawQuery
		} else {
			resolved += "?" + rawQuery
		}
	}
	return r.client.Do(ctx, target.Method, resolved, body, headers)
}

// Client issues outbound HTTP requests for remote targets. Timeouts are
// mandatory; cancellation of the dispatch context aborts the request.
type Client struct {
	httpClient      *http.Client
	maxResponseSize int64
	logger          *common.Logger
}

// defaultMaxResponseSize caps response bodies when no limit is configured.
const defaultMaxResponseSize = 50 << 20 // 50MB

// NewClient creates an outbound HTTP client with the given request timeout
// and response size cap.
func NewClient(timeout time.Duration, maxResponseSize int64, logger *common.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxResponseSize <= 0 {
		maxResponseSize = defaultMaxResponseSize
	}
	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		maxResponseSize: maxResponseSize,
		logger:          logger,
	}
}

// Do executes one outbound request and normalizes the response. A transport
// failure surfaces as ErrUpstreamUnavailable with no retry; any HTTP status
// is returned as a normal DispatchResult.
func (c *Client) Do(ctx context.Context, method, rawURL string, body []byte, headers http.Header) (DispatchResult, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("failed to build request: %w", err)
	}
	for key, vals := range headers {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("url", rawURL).Msg("remote dispatch")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error().Str("method", method).Str("url", rawURL).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("remote dispatch failed")
		return DispatchResult{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		return DispatchResult{}, fmt.Errorf("%w: failed to read response: %v", ErrUpstreamUnavailable, err)
	}

	c.logger.Debug().Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("remote dispatch complete")

	return DispatchResult{
		StatusCode:  resp.StatusCode,
		Body:        respBody,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Get fetches a URL with the client's timeout. Used by the OpenAPI importer.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	result, err := c.Do(ctx, http.MethodGet, rawURL, nil, nil)
	if err != nil {
		return nil, err
	}
	if result.StatusCode >= 400 {
		return nil, fmt.Errorf("server returned %d: %s", result.StatusCode, string(result.Body))
	}
	return result.Body, nil
}
