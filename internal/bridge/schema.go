package bridge

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// BuildTool converts a registered tool into an mcp.Tool with the appropriate
// input schema. Synthesis never fails: unknown types are exposed as opaque
// string-typed properties so a schema is always producible, even from loosely
// specified OpenAPI documents.
func BuildTool(t Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
	for _, p := range t.Params {
		opts = append(opts, buildParamOption(p))
	}
	return mcp.NewTool(t.Name, opts...)
}

// buildParamOption maps a Parameter to the appropriate mcp-go tool option.
func buildParamOption(p Parameter) mcp.ToolOption {
	var opts []mcp.PropertyOption
	if p.Description != "" {
		opts = append(opts, mcp.Description(p.Description))
	}
	if p.Required {
		opts = append(opts, mcp.Required())
	}

	switch p.Type {
	case "number", "integer":
		if d, ok := numericDefault(p.Default); ok {
			opts = append(opts, mcp.DefaultNumber(d))
		}
		return mcp.WithNumber(p.Name, opts...)
	case "boolean":
		if d, ok := p.Default.(bool); ok {
			opts = append(opts, mcp.DefaultBool(d))
		}
		return mcp.WithBoolean(p.Name, opts...)
	case "array":
		opts = append([]mcp.PropertyOption{mcp.WithStringItems()}, opts...)
		return mcp.WithArray(p.Name, opts...)
	case "object":
		return mcp.WithObject(p.Name, opts...)
	default:
		// string, any, and unresolvable types are all passed as string
		if d, ok := p.Default.(string); ok {
			opts = append(opts, mcp.DefaultString(d))
		}
		return mcp.WithString(p.Name, opts...)
	}
}

// numericDefault coerces a declared default to float64 for schema emission.
// Go-side declarations produce int and TOML decoding produces int64, where
// JSON sources produce float64; all must surface in introspection the same
// way they are applied at dispatch.
func numericDefault(v any) (float64, bool) {
	switch d := v.(type) {
	case float64:
		return d, true
	case float32:
		return float64(d), true
	case int:
		return float64(d), true
	case int32:
		return float64(d), true
	case int64:
		return float64(d), true
	}
	return 0, false
}
