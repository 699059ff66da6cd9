package bridge

import (
	"errors"
	"fmt"
)

// Registration-time errors. These are fatal to the build phase: the caller
// must abort before mounting the MCP transport.
var (
	// ErrAmbiguousParameter is returned when a parameter name is claimed by
	// two locations, e.g. declared as query but present as a {placeholder}
	// in the path template.
	ErrAmbiguousParameter = errors.New("ambiguous parameter location")

	// ErrToolNameCollision is returned when a tool name is already registered.
	// The registry is left unchanged by the failed registration.
	ErrToolNameCollision = errors.New("tool name collision")

	// ErrSpecFetch is returned when an OpenAPI document cannot be fetched or
	// parsed. The entire import is aborted; no partial set is committed.
	ErrSpecFetch = errors.New("openapi document fetch failed")

	// ErrRegistryFrozen is returned when a registration call arrives after
	// Build. The registry is read-only once the transport is mounted.
	ErrRegistryFrozen = errors.New("registry is frozen after build")
)

// Dispatch-time errors. These are isolated to a single call and never affect
// other in-flight dispatches.
var (
	// ErrUnknownTool is returned when no tool with the requested name exists.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMissingArgument is returned when a required parameter is absent from
	// the call arguments. Checked before any network or in-process call.
	ErrMissingArgument = errors.New("missing required argument")

	// ErrUpstreamUnavailable is returned on transport-level failure of a
	// remote call (connection refused, timeout). Non-2xx responses are NOT
	// this error; they are returned as a normal DispatchResult.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ambiguousParamError builds a wrapped ErrAmbiguousParameter for one name.
func ambiguousParamError(name, first, second string) error {
	return fmt.Errorf("%w: parameter %q claimed by both %s and %s", ErrAmbiguousParameter, name, first, second)
}

// missingArgumentError builds a wrapped ErrMissingArgument for one name.
func missingArgumentError(tool, name string) error {
	return fmt.Errorf("%w: tool %q requires %q", ErrMissingArgument, tool, name)
}
