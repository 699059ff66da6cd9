package bridge

import (
	"errors"
	"net/http"
	"testing"

	"github.com/toolbridge/toolbridge/internal/common"
	"github.com/toolbridge/toolbridge/internal/config"
)

func newTestRegistry() *Registry {
	return NewRegistry(config.NewDefaultConfig(), common.NewSilentLogger())
}

func TestRegisterTool_DerivedName(t *testing.T) {
	reg := newTestRegistry()
	err := reg.RegisterTool(RouteSignature{Path: "/api/items/{id}", Method: "GET", Params: []RouteParam{
		{Name: "id", Type: "string"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := reg.Lookup("get_api_items_id"); !ok {
		t.Errorf("derived name missing, have %v", toolNames(reg))
	}
}

func TestRegisterTool_ExplicitNameAndDescription(t *testing.T) {
	reg := newTestRegistry()
	err := reg.RegisterTool(
		RouteSignature{Path: "/api/multiply", Method: "GET", Params: []RouteParam{
			{Name: "a", Type: "number"},
			{Name: "b", Type: "number"},
		}},
		WithName("multiply"),
		WithDescription("Multiply two numbers"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry, ok := reg.Lookup("multiply")
	if !ok {
		t.Fatal("multiply not registered")
	}
	if entry.Tool.Description != "Multiply two numbers" {
		t.Errorf("description lost: %q", entry.Tool.Description)
	}
}

func TestRegister_DuplicateNameFailsFast(t *testing.T) {
	reg := newTestRegistry()
	sig := RouteSignature{Path: "/api/hello", Method: "GET"}
	if err := reg.RegisterTool(sig, WithName("hello")); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	before := len(reg.Tools())

	err := reg.RegisterProxy("http://svc.local/hello", "GET", nil, WithName("hello"))
	if !errors.Is(err, ErrToolNameCollision) {
		t.Fatalf("expected ErrToolNameCollision, got %v", err)
	}
	if len(reg.Tools()) != before {
		t.Error("registry must be unchanged after a collision")
	}
}

func TestTools_RegistrationOrderPreserved(t *testing.T) {
	reg := newTestRegistry()
	names := []string{"zeta", "alpha", "mid"}
	for _, n := range names {
		if err := reg.RegisterTool(RouteSignature{Path: "/api/" + n, Method: "GET"}, WithName(n)); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}
	tools := reg.Tools()
	for i, n := range names {
		if tools[i].Name != n {
			t.Errorf("position %d: expected %s, got %s", i, n, tools[i].Name)
		}
	}
}

func TestRegistry_IntrospectionRoundTrip(t *testing.T) {
	reg := newTestRegistry()
	err := reg.RegisterProxy("http://svc.local/users/{id}", "GET", []ProxyParam{
		{Name: "id", Type: "string", Description: "user id"},
		{Name: "verbose", Type: "boolean", Default: false},
	}, WithName("get_user"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tools := reg.Tools()
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	tool := tools[0]
	if tool.Params[0].Name != "id" || tool.Params[0].In != LocationPath || !tool.Params[0].Required {
		t.Errorf("id classification lost in round trip: %+v", tool.Params[0])
	}
	if tool.Params[1].Name != "verbose" || tool.Params[1].In != LocationQuery || tool.Params[1].Required {
		t.Errorf("verbose classification lost in round trip: %+v", tool.Params[1])
	}
	if tool.Params[0].Description != "user id" {
		t.Errorf("description lost: %+v", tool.Params[0])
	}
}

func TestRegistry_FrozenAfterBuild(t *testing.T) {
	reg := newTestRegistry()
	if err := reg.RegisterTool(RouteSignature{Path: "/api/hello", Method: "GET"}, WithName("hello")); err != nil {
		t.Fatalf("register: %v", err)
	}
	mux := http.NewServeMux()
	if err := reg.Build(mux, nil, TransportStreamableHTTP, "/mcp"); err != nil {
		t.Fatalf("build: %v", err)
	}

	if err := reg.RegisterTool(RouteSignature{Path: "/api/late", Method: "GET"}, WithName("late")); !errors.Is(err, ErrRegistryFrozen) {
		t.Errorf("RegisterTool after build: expected ErrRegistryFrozen, got %v", err)
	}
	if err := reg.RegisterProxy("http://svc.local/x", "GET", nil, WithName("late2")); !errors.Is(err, ErrRegistryFrozen) {
		t.Errorf("RegisterProxy after build: expected ErrRegistryFrozen, got %v", err)
	}
	if err := reg.Build(mux, nil, TransportStreamableHTTP, "/mcp2"); err == nil {
		t.Error("second Build should fail")
	}
}

func TestBuild_RejectsBadInputs(t *testing.T) {
	reg := newTestRegistry()
	mux := http.NewServeMux()
	if err := reg.Build(mux, nil, "websocket", "/mcp"); err == nil {
		t.Error("unsupported transport should fail")
	}

	reg = newTestRegistry()
	if err := reg.Build(mux, nil, TransportStreamableHTTP, "mcp"); err == nil {
		t.Error("mount path without leading slash should fail")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"GET /api/items/{id}", "get_api_items_id"},
		{"Get User By ID", "get_user_by_id"},
		{"POST /users", "post_users"},
		{"  weird--name!! ", "weird_name"},
	}
	for _, tc := range tests {
		if got := sanitizeName(tc.in); got != tc.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func toolNames(r *Registry) []string {
	var names []string
	for _, tool := range r.Tools() {
		names = append(names, tool.Name)
	}
	return names
}
