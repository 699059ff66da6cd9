package bridge

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// importMethods is the order in which operations are scanned per path,
// kept fixed so imports are deterministic.
var importMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// ImportOptions configures one OpenAPI import.
type ImportOptions struct {
	// DocumentURL is where the OpenAPI 3.x document is fetched from.
	DocumentURL string

	// BaseURL overrides the target base for imported operations. When empty
	// the document's first server entry is used, then the document URL's
	// origin.
	BaseURL string

	// IncludePaths retains only paths containing at least one of these
	// substrings. Empty means all paths are eligible.
	IncludePaths []string

	// ExcludePaths drops any path containing one of these substrings.
	ExcludePaths []string

	// NameFromSummary names tools from the sanitized operation summary
	// instead of the operationId.
	NameFromSummary bool
}

// ImportOpenAPI fetches and parses an OpenAPI document and registers one
// tool per retained operation. The import is atomic: a fetch, parse, or
// collision failure registers nothing. Returns the number of tools added.
func (r *Registry) ImportOpenAPI(ctx context.Context, opts ImportOptions) (int, error) {
	if r.frozen {
		return 0, ErrRegistryFrozen
	}

	data, err := r.client.Get(ctx, opts.DocumentURL)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrSpecFetch, opts.DocumentURL, err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: parse: %v", ErrSpecFetch, opts.DocumentURL, err)
	}
	if doc.Paths == nil {
		return 0, fmt.Errorf("%w: %s: document has no paths", ErrSpecFetch, opts.DocumentURL)
	}

	base, err := resolveBaseURL(opts, doc)
	if err != nil {
		return 0, err
	}

	pathMap := doc.Paths.Map()
	paths := make([]string, 0, len(pathMap))
	for p := range pathMap {
		if retainPath(p, opts) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var staged []*Entry
	for _, path := range paths {
		item := pathMap[path]
		if item == nil {
			continue
		}
		for _, method := range importMethods {
			op := item.GetOperation(method)
			if op == nil {
				continue
			}
			entry, err := buildOperationEntry(base, path, method, item, op, opts)
			if err != nil {
				return 0, err
			}
			staged = append(staged, entry)
		}
	}

	if err := r.registerAll(staged); err != nil {
		return 0, err
	}

	r.logger.Info().
		Str("document", opts.DocumentURL).
		Int("tools", len(staged)).
		Msg("openapi import complete")
	return len(staged), nil
}

// retainPath applies the include/exclude rules. Matching is literal
// substring against the path template, not glob semantics.
func retainPath(path string, opts ImportOptions) bool {
	if len(opts.IncludePaths) > 0 {
		included := false
		for _, inc := range opts.IncludePaths {
			if strings.Contains(path, inc) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, exc := range opts.ExcludePaths {
		if strings.Contains(path, exc) {
			return false
		}
	}
	return true
}

// resolveBaseURL picks the base URL for imported operations: explicit
// option, then the document's first absolute server URL, then the origin of
// the document URL itself.
func resolveBaseURL(opts ImportOptions, doc *openapi3.T) (string, error) {
	if opts.BaseURL != "" {
		return strings.TrimRight(opts.BaseURL, "/"), nil
	}
	for _, srv := range doc.Servers {
		if srv == nil || srv.URL == "" {
			continue
		}
		if u, err := url.Parse(srv.URL); err == nil && u.IsAbs() {
			return strings.TrimRight(srv.URL, "/"), nil
		}
	}
	u, err := url.Parse(opts.DocumentURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: cannot derive base URL from %q", ErrSpecFetch, opts.DocumentURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// buildOperationEntry converts one method+path operation into a registry
// entry with a Remote target.
func buildOperationEntry(base, path, method string, item *openapi3.PathItem, op *openapi3.Operation, opts ImportOptions) (*Entry, error) {
	params, singleBody, err := classifyOperation(path, item, op)
	if err != nil {
		return nil, fmt.Errorf("operation %s %s: %w", method, path, err)
	}

	target, err := NewRemoteTarget(base+path, method)
	if err != nil {
		return nil, fmt.Errorf("operation %s %s: %w", method, path, err)
	}

	name := op.OperationID
	if opts.NameFromSummary && op.Summary != "" {
		name = sanitizeName(op.Summary)
	}
	if name == "" {
		name = sanitizeName(method + " " + path)
	}

	description := op.Description
	if description == "" {
		description = op.Summary
	}

	return &Entry{
		Tool: Tool{
			Name:        name,
			Mode:        ModeTool,
			Description: description,
			Params:      params,
			SingleBody:  singleBody,
		},
		Target: target,
	}, nil
}

// classifyOperation builds a ParameterSet from an operation's parameters
// array and requestBody. Header and cookie parameters are excluded; the
// caller's forwarded headers cover that seam.
func classifyOperation(path string, item *openapi3.PathItem, op *openapi3.Operation) (ParameterSet, string, error) {
	seen := make(map[string]Location)
	var params ParameterSet

	add := func(p Parameter) error {
		if prior, dup := seen[p.Name]; dup {
			return ambiguousParamError(p.Name, string(prior), string(p.In))
		}
		seen[p.Name] = p.In
		params = append(params, p)
		return nil
	}

	for _, ref := range mergedParameters(item, op) {
		if ref == nil || ref.Value == nil {
			continue
		}
		pv := ref.Value
		switch pv.In {
		case openapi3.ParameterInPath:
			if err := add(Parameter{
				Name:        pv.Name,
				In:          LocationPath,
				Type:        schemaType(pv.Schema),
				Required:    true,
				Description: pv.Description,
			}); err != nil {
				return nil, "", err
			}
		case openapi3.ParameterInQuery:
			p := Parameter{
				Name:        pv.Name,
				In:          LocationQuery,
				Type:        schemaType(pv.Schema),
				Required:    pv.Required,
				Description: pv.Description,
			}
			if pv.Schema != nil && pv.Schema.Value != nil && pv.Schema.Value.Default != nil {
				p.Default = pv.Schema.Value.Default
				p.Required = false
			}
			if err := add(p); err != nil {
				return nil, "", err
			}
		default:
			// header/cookie parameters resolve from forwarded headers
		}
	}

	// Loosely specified documents may omit parameter entries for path
	// placeholders; a schema must still be producible, so synthesize them.
	for _, name := range placeholderNames(path) {
		if _, claimed := seen[name]; claimed {
			if seen[name] != LocationPath {
				return nil, "", ambiguousParamError(name, string(seen[name]), "path template")
			}
			continue
		}
		if err := add(Parameter{Name: name, In: LocationPath, Type: "string", Required: true}); err != nil {
			return nil, "", err
		}
	}

	singleBody, err := classifyRequestBody(op, add)
	if err != nil {
		return nil, "", err
	}

	return params, singleBody, nil
}

// classifyRequestBody flattens a JSON object request body into body-located
// parameters under their property names; any other body shape becomes a
// single unwrapped "body" parameter.
func classifyRequestBody(op *openapi3.Operation, add func(Parameter) error) (string, error) {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return "", nil
	}
	rb := op.RequestBody.Value

	var schema *openapi3.SchemaRef
	if media := rb.Content.Get("application/json"); media != nil {
		schema = media.Schema
	}

	if schema != nil && schema.Value != nil && schema.Value.Type.Is(openapi3.TypeObject) && len(schema.Value.Properties) > 0 {
		required := make(map[string]bool, len(schema.Value.Required))
		for _, name := range schema.Value.Required {
			required[name] = true
		}

		names := make([]string, 0, len(schema.Value.Properties))
		for name := range schema.Value.Properties {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			prop := schema.Value.Properties[name]
			p := Parameter{
				Name:     name,
				In:       LocationBody,
				Type:     schemaType(prop),
				Required: rb.Required && required[name],
			}
			if prop != nil && prop.Value != nil {
				p.Description = prop.Value.Description
				if prop.Value.Default != nil {
					p.Default = prop.Value.Default
					p.Required = false
				}
			}
			if err := add(p); err != nil {
				return "", err
			}
		}
		return "", nil
	}

	if err := add(Parameter{
		Name:     "body",
		In:       LocationBody,
		Type:     schemaType(schema),
		Required: rb.Required,
	}); err != nil {
		return "", err
	}
	return "body", nil
}

// mergedParameters combines path-item level parameters with operation level
// ones; the operation's declaration wins on a name+location match.
func mergedParameters(item *openapi3.PathItem, op *openapi3.Operation) openapi3.Parameters {
	if len(item.Parameters) == 0 {
		return op.Parameters
	}
	merged := make(openapi3.Parameters, 0, len(item.Parameters)+len(op.Parameters))
	overridden := func(ref *openapi3.ParameterRef) bool {
		if ref == nil || ref.Value == nil {
			return false
		}
		for _, opRef := range op.Parameters {
			if opRef != nil && opRef.Value != nil &&
				opRef.Value.Name == ref.Value.Name && opRef.Value.In == ref.Value.In {
				return true
			}
		}
		return false
	}
	for _, ref := range item.Parameters {
		if !overridden(ref) {
			merged = append(merged, ref)
		}
	}
	merged = append(merged, op.Parameters...)
	return merged
}

// schemaType maps an OpenAPI schema to the fixed type vocabulary, degrading
// to "any" when the schema is missing or untyped.
func schemaType(ref *openapi3.SchemaRef) string {
	if ref == nil || ref.Value == nil || ref.Value.Type == nil {
		return "any"
	}
	t := ref.Value.Type
	switch {
	case t.Is(openapi3.TypeString):
		return "string"
	case t.Is(openapi3.TypeNumber):
		return "number"
	case t.Is(openapi3.TypeInteger):
		return "integer"
	case t.Is(openapi3.TypeBoolean):
		return "boolean"
	case t.Is(openapi3.TypeArray):
		return "array"
	case t.Is(openapi3.TypeObject):
		return "object"
	default:
		return "any"
	}
}
