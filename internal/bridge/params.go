package bridge

import (
	"fmt"
	"strings"
)

// Location is where a parameter value is placed when a dispatch is assembled.
type Location string

const (
	LocationPath  Location = "path"
	LocationQuery Location = "query"
	LocationBody  Location = "body"
)

// Mode is the MCP capability kind a tool is exposed as.
type Mode string

const (
	ModeTool     Mode = "tool"
	ModeResource Mode = "resource"
	ModePrompt   Mode = "prompt"
)

// Parameter describes one declared input of a tool.
type Parameter struct {
	Name        string
	In          Location
	Type        string // string, number, integer, boolean, object, array, any
	Required    bool
	Default     any
	Description string
}

// ParameterSet is an ordered list of parameters. Order is declaration order
// and is preserved through schema synthesis and query assembly.
type ParameterSet []Parameter

// byName returns the parameter with the given name, if present.
func (ps ParameterSet) byName(name string) (Parameter, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// RouteParam declares one parameter of a local route handler's signature.
type RouteParam struct {
	Name        string
	Type        string
	Description string
	Default     any
	HasDefault  bool
	Body        bool // structured payload type, sent as the request body
	Injected    bool // resolved by the host pipeline, never exposed to callers
}

// RouteSignature declares the callable shape of a local route handler:
// the path pattern it is bound to, its HTTP method, and its parameters.
type RouteSignature struct {
	Path   string
	Method string
	Params []RouteParam
}

// ProxyParam declares one parameter of a manual proxy tool. In may be given
// explicitly; when empty the location is inferred from the URL template and
// the HTTP method.
type ProxyParam struct {
	Name        string
	Type        string
	In          Location
	Description string
	Required    bool
	Default     any
}

// placeholderNames extracts the {name} placeholders from a path or URL
// template, in order of appearance.
func placeholderNames(template string) []string {
	var names []string
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return names
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			return names
		}
		name := rest[open+1 : open+close]
		if name != "" {
			names = append(names, name)
		}
		rest = rest[open+close+1:]
	}
}

// ClassifyRoute classifies a local route signature into a ParameterSet.
//
// A parameter whose name matches a {placeholder} in the route path is
// classified path and is always required; a declared default does not make
// it optional. Body-typed parameters are classified body. Everything else is
// query, optional iff a default is declared. Injected parameters are excluded
// entirely; the host pipeline resolves them at call time.
//
// The returned singleBody names the one body parameter to send unwrapped,
// or "" when body parameters are wrapped under their declared names.
func ClassifyRoute(sig RouteSignature) (ParameterSet, string, error) {
	placeholders := placeholderNames(sig.Path)
	inPath := make(map[string]bool, len(placeholders))
	for _, name := range placeholders {
		inPath[name] = true
	}

	seen := make(map[string]bool, len(sig.Params))
	params := make(ParameterSet, 0, len(sig.Params))
	var bodyNames []string

	for _, rp := range sig.Params {
		if rp.Injected {
			continue
		}
		if seen[rp.Name] {
			return nil, "", fmt.Errorf("duplicate parameter %q in route %s", rp.Name, sig.Path)
		}
		seen[rp.Name] = true

		p := Parameter{
			Name:        rp.Name,
			Type:        normalizeType(rp.Type),
			Description: rp.Description,
		}

		switch {
		case inPath[rp.Name]:
			if rp.Body {
				return nil, "", ambiguousParamError(rp.Name, "path template", "body declaration")
			}
			p.In = LocationPath
			p.Required = true
			// declared default is ignored for path parameters
		case rp.Body:
			p.In = LocationBody
			p.Required = !rp.HasDefault
			if rp.HasDefault {
				p.Default = rp.Default
			}
			bodyNames = append(bodyNames, rp.Name)
		default:
			p.In = LocationQuery
			p.Required = !rp.HasDefault
			if rp.HasDefault {
				p.Default = rp.Default
			}
		}
		params = append(params, p)
	}

	// Every placeholder must be claimed, otherwise dispatch could never
	// substitute it.
	for _, name := range placeholders {
		if !seen[name] {
			return nil, "", fmt.Errorf("route %s has placeholder {%s} with no matching parameter", sig.Path, name)
		}
	}

	// A single structured body parameter is sent unwrapped; multiple body
	// parameters are merged into one payload scoped under their names.
	singleBody := ""
	if len(bodyNames) == 1 {
		singleBody = bodyNames[0]
	}

	return params, singleBody, nil
}

// ClassifyProxy classifies the declared parameters of a manual proxy tool.
//
// An explicit In is authoritative. When In is empty, a name matching a
// {placeholder} in the URL template is path; the rest fall back to query for
// GET/DELETE and body otherwise. An explicit non-path location on a
// placeholder name is ambiguous: dispatch could not both fill the
// placeholder and honor the declared location.
func ClassifyProxy(urlTemplate, method string, declared []ProxyParam) (ParameterSet, error) {
	placeholders := placeholderNames(urlTemplate)
	inPath := make(map[string]bool, len(placeholders))
	for _, name := range placeholders {
		inPath[name] = true
	}

	fallback := LocationBody
	switch strings.ToUpper(method) {
	case "GET", "DELETE":
		fallback = LocationQuery
	}

	seen := make(map[string]bool, len(declared))
	params := make(ParameterSet, 0, len(declared))

	for _, pp := range declared {
		if seen[pp.Name] {
			return nil, fmt.Errorf("duplicate parameter %q for proxy %s", pp.Name, urlTemplate)
		}
		seen[pp.Name] = true

		p := Parameter{
			Name:        pp.Name,
			Type:        normalizeType(pp.Type),
			Description: pp.Description,
		}

		switch pp.In {
		case LocationPath:
			if !inPath[pp.Name] {
				return nil, fmt.Errorf("path parameter %q has no {%s} placeholder in %q", pp.Name, pp.Name, urlTemplate)
			}
			p.In = LocationPath
			p.Required = true
		case LocationQuery, LocationBody:
			if inPath[pp.Name] {
				return nil, ambiguousParamError(pp.Name, "path template", string(pp.In)+" declaration")
			}
			p.In = pp.In
			p.Required = pp.Required
		case "":
			if inPath[pp.Name] {
				p.In = LocationPath
				p.Required = true
			} else {
				p.In = fallback
				p.Required = pp.Required
			}
		default:
			return nil, fmt.Errorf("parameter %q has unknown location %q", pp.Name, pp.In)
		}

		if p.In != LocationPath && pp.Default != nil {
			p.Default = pp.Default
			p.Required = false
		}
		params = append(params, p)
	}

	for _, name := range placeholders {
		if !seen[name] {
			return nil, fmt.Errorf("proxy %s has placeholder {%s} with no matching parameter", urlTemplate, name)
		}
	}

	return params, nil
}

// normalizeType maps a declared type to the fixed schema vocabulary.
// Unknown or missing types degrade to "any" rather than failing.
func normalizeType(t string) string {
	switch strings.ToLower(t) {
	case "string", "number", "integer", "boolean", "object", "array":
		return strings.ToLower(t)
	case "float", "double":
		return "number"
	case "int", "int32", "int64":
		return "integer"
	case "bool":
		return "boolean"
	default:
		return "any"
	}
}
