package bridge

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/toolbridge/toolbridge/internal/common"
	"github.com/toolbridge/toolbridge/internal/config"
)

// Tool is the immutable record for one registered capability.
type Tool struct {
	Name        string
	Mode        Mode
	Description string
	Params      ParameterSet

	// SingleBody names the body parameter whose value is sent unwrapped as
	// the whole request body. Empty means body parameters are merged into
	// one object scoped under their declared names.
	SingleBody string
}

// Entry pairs a tool with the target that backs it.
type Entry struct {
	Tool   Tool
	Target Target
}

// Registry maps tool names to their schema and target. It is populated
// single-threaded during the build phase and strictly read-only afterward,
// so concurrent dispatches share it without locking.
type Registry struct {
	name         string
	jsonResponse bool
	logger       *common.Logger
	client       *Client

	entries []*Entry
	byName  map[string]*Entry

	// pipeline is the host's request-handling seam, bound at Build.
	pipeline http.Handler
	frozen   bool
}

// NewRegistry creates an empty registry configured from cfg.
func NewRegistry(cfg *config.Config, logger *common.Logger) *Registry {
	return &Registry{
		name:         cfg.MCP.Name,
		jsonResponse: cfg.MCP.JSONResponse,
		logger:       logger,
		client:       NewClient(cfg.Upstream.GetTimeout(), int64(cfg.Upstream.MaxResponseMB)<<20, logger),
		byName:       make(map[string]*Entry),
	}
}

// toolOptions collects the optional registration settings.
type toolOptions struct {
	name        string
	description string
	mode        Mode
}

// ToolOption configures a registration call.
type ToolOption func(*toolOptions)

// WithName overrides the derived tool name.
func WithName(name string) ToolOption {
	return func(o *toolOptions) { o.name = name }
}

// WithDescription sets the tool description.
func WithDescription(desc string) ToolOption {
	return func(o *toolOptions) { o.description = desc }
}

// WithMode sets the capability mode (tool, resource, prompt).
func WithMode(mode Mode) ToolOption {
	return func(o *toolOptions) { o.mode = mode }
}

// RegisterTool registers a local route handler as a tool. The route stays
// in the host's own routing table; dispatch re-enters the host pipeline so
// its middleware executes unchanged.
func (r *Registry) RegisterTool(sig RouteSignature, opts ...ToolOption) error {
	if r.frozen {
		return ErrRegistryFrozen
	}

	params, singleBody, err := ClassifyRoute(sig)
	if err != nil {
		return err
	}
	target, err := NewLocalTarget(sig.Path, sig.Method)
	if err != nil {
		return err
	}

	o := applyOptions(opts)
	name := o.name
	if name == "" {
		name = sanitizeName(sig.Method + " " + sig.Path)
	}

	return r.register(&Entry{
		Tool: Tool{
			Name:        name,
			Mode:        o.mode,
			Description: o.description,
			Params:      params,
			SingleBody:  singleBody,
		},
		Target: target,
	})
}

// RegisterProxy registers a manually declared remote endpoint as a tool.
func (r *Registry) RegisterProxy(urlTemplate, method string, declared []ProxyParam, opts ...ToolOption) error {
	if r.frozen {
		return ErrRegistryFrozen
	}

	params, err := ClassifyProxy(urlTemplate, method, declared)
	if err != nil {
		return err
	}
	target, err := NewRemoteTarget(urlTemplate, method)
	if err != nil {
		return err
	}

	o := applyOptions(opts)
	name := o.name
	if name == "" {
		name = sanitizeName(method + " " + templatePath(urlTemplate))
	}

	return r.register(&Entry{
		Tool: Tool{
			Name:        name,
			Mode:        o.mode,
			Description: o.description,
			Params:      params,
		},
		Target: target,
	})
}

// register inserts an entry, failing fast on a duplicate name so dispatch
// can never be ambiguous. The registry is unchanged on failure.
func (r *Registry) register(e *Entry) error {
	if _, exists := r.byName[e.Tool.Name]; exists {
		return fmt.Errorf("%w: %q already registered", ErrToolNameCollision, e.Tool.Name)
	}
	r.entries = append(r.entries, e)
	r.byName[e.Tool.Name] = e

	r.logger.Debug().
		Str("tool", e.Tool.Name).
		Str("mode", string(e.Tool.Mode)).
		Int("params", len(e.Tool.Params)).
		Msg("tool registered")
	return nil
}

// registerAll inserts a staged batch atomically: every entry is checked
// against the registry and the rest of the batch before any is committed.
func (r *Registry) registerAll(staged []*Entry) error {
	names := make(map[string]bool, len(staged))
	for _, e := range staged {
		if _, exists := r.byName[e.Tool.Name]; exists {
			return fmt.Errorf("%w: %q already registered", ErrToolNameCollision, e.Tool.Name)
		}
		if names[e.Tool.Name] {
			return fmt.Errorf("%w: %q produced twice by import", ErrToolNameCollision, e.Tool.Name)
		}
		names[e.Tool.Name] = true
	}
	for _, e := range staged {
		if err := r.register(e); err != nil {
			return err
		}
	}
	return nil
}

// Tools returns a copy of the registered tools, in registration order.
func (r *Registry) Tools() []Tool {
	result := make([]Tool, len(r.entries))
	for i, e := range r.entries {
		result[i] = e.Tool
	}
	return result
}

// Lookup returns the entry for a tool name.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// applyOptions folds ToolOptions into their resolved form.
func applyOptions(opts []ToolOption) toolOptions {
	o := toolOptions{mode: ModeTool}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// sanitizeName lowers a free-form string into a tool identifier: runs of
// characters outside [a-z0-9] collapse to a single underscore.
func sanitizeName(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// templatePath strips the scheme and host from a URL template, leaving the
// path portion used for name derivation.
func templatePath(urlTemplate string) string {
	rest := urlTemplate
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[i:]
	}
	return rest
}
