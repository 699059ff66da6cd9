package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/toolbridge/toolbridge/internal/config"
)

// Transport values accepted by Build.
const (
	TransportStreamableHTTP = "streamable-http"
	TransportSSE            = "sse"
)

// Build converts the registry into an MCP server and mounts its transport
// endpoint on the host mux at mountPath. The pipeline handler is the host's
// full request chain; local targets re-enter it on every dispatch. When
// pipeline is nil the mux itself is used.
//
// Build freezes the registry: registration calls after Build fail. If Build
// returns an error nothing is mounted and the caller must not start serving.
func (r *Registry) Build(mux *http.ServeMux, pipeline http.Handler, transport, mountPath string) error {
	if r.frozen {
		return fmt.Errorf("registry already built")
	}
	if !strings.HasPrefix(mountPath, "/") {
		return fmt.Errorf("mount path %q must start with /", mountPath)
	}
	if pipeline == nil {
		pipeline = mux
	}
	r.pipeline = pipeline

	mcpSrv := mcpserver.NewMCPServer(
		r.name,
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)

	registered := 0
	for _, e := range r.entries {
		if e.Tool.Mode != ModeTool {
			// TODO: register resource and prompt modes once dispatch results
			// map onto mcp-go resource/prompt content types.
			r.logger.Warn().
				Str("tool", e.Tool.Name).
				Str("mode", string(e.Tool.Mode)).
				Msg("mode not yet served over MCP, skipping")
			continue
		}
		mcpSrv.AddTool(BuildTool(e.Tool), r.toolHandler(e))
		registered++
	}

	mcpSrv.AddTool(VersionTool(), VersionToolHandler())

	var handler http.Handler
	switch transport {
	case TransportStreamableHTTP:
		handler = mcpserver.NewStreamableHTTPServer(mcpSrv,
			mcpserver.WithStateLess(true),
		)
	case TransportSSE:
		handler = mcpserver.NewSSEServer(mcpSrv)
	default:
		return fmt.Errorf("unsupported transport %q", transport)
	}

	wrapped := CaptureHeaders(handler)
	mux.Handle(mountPath, wrapped)
	mux.Handle(mountPath+"/", wrapped)

	r.frozen = true

	r.logger.Info().
		Int("tools", registered).
		Str("transport", transport).
		Str("mount_path", mountPath).
		Msg("MCP endpoint mounted")
	return nil
}

// MCPServer builds a standalone MCP server over the registry without
// mounting a transport. Used by tests and embedders that bring their own
// transport.
func (r *Registry) MCPServer(pipeline http.Handler) *mcpserver.MCPServer {
	r.pipeline = pipeline
	mcpSrv := mcpserver.NewMCPServer(r.name, config.GetVersion(), mcpserver.WithToolCapabilities(true))
	for _, e := range r.entries {
		if e.Tool.Mode != ModeTool {
			continue
		}
		mcpSrv.AddTool(BuildTool(e.Tool), r.toolHandler(e))
	}
	mcpSrv.AddTool(VersionTool(), VersionToolHandler())
	return mcpSrv
}

// toolHandler adapts one registry entry into an mcp-go tool handler.
func (r *Registry) toolHandler(e *Entry) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		headers, _ := ForwardedHeaders(ctx)
		result, err := r.Dispatch(ctx, InvocationRequest{
			ToolName:  e.Tool.Name,
			Arguments: req.GetArguments(),
			Headers:   headers,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return r.wrapResult(result), nil
	}
}

// wrapResult converts a DispatchResult into MCP content. A non-2xx upstream
// status is not an error: it is returned in a JSON envelope carrying the
// status so the calling agent can interpret the original response.
func (r *Registry) wrapResult(res DispatchResult) *mcp.CallToolResult {
	isJSON := strings.Contains(res.ContentType, "json")

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		text := string(res.Body)
		if r.jsonResponse && !isJSON {
			// Pass non-JSON bodies through verbatim inside a JSON string.
			if quoted, err := json.Marshal(text); err == nil {
				text = string(quoted)
			}
		}
		return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(text)}}
	}

	envelope := map[string]any{
		"status_code":  res.StatusCode,
		"content_type": res.ContentType,
	}
	if isJSON && json.Valid(res.Body) {
		envelope["body"] = json.RawMessage(res.Body)
	} else {
		envelope["body"] = string(res.Body)
	}
	out, err := json.Marshal(envelope)
	if err != nil {
		return errorResult("failed to encode upstream response")
	}
	return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(string(out))}}
}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// VersionTool returns the mcp.Tool definition for the built-in get_version tool.
func VersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the toolbridge version and status. Use this to verify connectivity."),
	)
}

// VersionToolHandler returns a handler reporting the bridge's own version info.
func VersionToolHandler() mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := json.Marshal(map[string]string{
			"version": config.GetVersion(),
			"build":   config.GetBuild(),
			"commit":  config.GetGitCommit(),
		})
		if err != nil {
			return errorResult("failed to marshal version info"), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(out))},
		}, nil
	}
}
