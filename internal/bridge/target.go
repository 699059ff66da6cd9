package bridge

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// allowedMethods is the whitelist of HTTP methods for tool targets.
var allowedMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true,
}

// LocalTarget routes a dispatch back through the host application's own
// request pipeline. The pipeline handler is re-entered at call time so the
// host's middleware (auth, validation, injection) executes unchanged.
type LocalTarget struct {
	Route  string // path pattern with {name} placeholders
	Method string
}

// RemoteTarget routes a dispatch to an external service via an outbound
// HTTP call. The URL template is stored verbatim with {name} placeholders.
type RemoteTarget struct {
	URLTemplate string
	Method      string
}

// Target is a tagged union: exactly one of Local or Remote is set.
type Target struct {
	Local  *LocalTarget
	Remote *RemoteTarget
}

// NewLocalTarget builds a Target for an in-process route.
func NewLocalTarget(route, method string) (Target, error) {
	method = strings.ToUpper(method)
	if !allowedMethods[method] {
		return Target{}, fmt.Errorf("unsupported method %q for route %s", method, route)
	}
	if !strings.HasPrefix(route, "/") {
		return Target{}, fmt.Errorf("route %q must start with /", route)
	}
	return Target{Local: &LocalTarget{Route: route, Method: method}}, nil
}

// NewRemoteTarget builds a Target for an outbound call. The URL template
// must be syntactically valid once placeholders are blanked out.
func NewRemoteTarget(urlTemplate, method string) (Target, error) {
	method = strings.ToUpper(method)
	if !allowedMethods[method] {
		return Target{}, fmt.Errorf("unsupported method %q for %s", method, urlTemplate)
	}
	if err := validateTemplate(urlTemplate); err != nil {
		return Target{}, err
	}
	probe := urlTemplate
	for _, name := range placeholderNames(urlTemplate) {
		probe = strings.ReplaceAll(probe, "{"+name+"}", "x")
	}
	u, err := url.Parse(probe)
	if err != nil {
		return Target{}, fmt.Errorf("invalid URL template %q: %w", urlTemplate, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Target{}, fmt.Errorf("URL template %q must be absolute http(s)", urlTemplate)
	}
	return Target{Remote: &RemoteTarget{URLTemplate: urlTemplate, Method: method}}, nil
}

// validateTemplate rejects unbalanced or nested braces in a template.
func validateTemplate(template string) error {
	depth := 0
	for _, r := range template {
		switch r {
		case '{':
			depth++
			if depth > 1 {
				return fmt.Errorf("template %q has nested braces", template)
			}
		case '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("template %q has unbalanced braces", template)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("template %q has unbalanced braces", template)
	}
	return nil
}

// substitutePath fills every {name} placeholder in the template with the
// percent-encoded value. A placeholder left unsubstituted is an assembly
// error: a half-built URL must never reach the wire.
func substitutePath(template string, values map[string]string) (string, error) {
	path := template
	for name, val := range values {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(val))
	}
	if leftover := placeholderNames(path); len(leftover) > 0 {
		return "", fmt.Errorf("unsubstituted placeholder {%s} in %q", leftover[0], template)
	}
	return path, nil
}

// pipelineRecorder captures the response of an in-process pipeline call.
// It implements http.ResponseWriter.
type pipelineRecorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newPipelineRecorder() *pipelineRecorder {
	return &pipelineRecorder{header: make(http.Header), status: http.StatusOK}
}

func (r *pipelineRecorder) Header() http.Header { return r.header }

func (r *pipelineRecorder) WriteHeader(code int) { r.status = code }

func (r *pipelineRecorder) Write(p []byte) (int, error) { return r.body.Write(p) }

func (r *pipelineRecorder) result() DispatchResult {
	return DispatchResult{
		StatusCode:  r.status,
		Body:        r.body.Bytes(),
		ContentType: r.header.Get("Content-Type"),
	}
}
