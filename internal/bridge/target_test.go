package bridge

import (
	"strings"
	"testing"
)

func TestNewLocalTarget(t *testing.T) {
	tests := []struct {
		route, method string
		wantErr       bool
	}{
		{"/api/items/{id}", "GET", false},
		{"/api/add", "post", false},
		{"/api/x", "TRACE", true},
		{"api/x", "GET", true},
	}
	for _, tc := range tests {
		target, err := NewLocalTarget(tc.route, tc.method)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s %s: expected error", tc.method, tc.route)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s %s: unexpected error: %v", tc.method, tc.route, err)
			continue
		}
		if target.Local == nil || target.Remote != nil {
			t.Errorf("%s %s: expected local target", tc.method, tc.route)
		}
		if target.Local.Method != strings.ToUpper(tc.method) {
			t.Errorf("%s %s: method not normalized: %s", tc.method, tc.route, target.Local.Method)
		}
	}
}

func TestNewRemoteTarget(t *testing.T) {
	tests := []struct {
		template, method string
		wantErr          bool
	}{
		{"http://calc.local/multiply", "GET", false},
		{"https://api.example.com/users/{id}", "GET", false},
		{"ftp://files.local/x", "GET", true},
		{"/relative/path", "GET", true},
		{"http://svc.local/{broken", "GET", true},
		{"http://svc.local/{{nested}}", "GET", true},
		{"http://svc.local/x", "CONNECT", true},
	}
	for _, tc := range tests {
		target, err := NewRemoteTarget(tc.template, tc.method)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tc.template)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.template, err)
			continue
		}
		if target.Remote == nil || target.Local != nil {
			t.Errorf("%s: expected remote target", tc.template)
		}
	}
}

func TestSubstitutePath(t *testing.T) {
	path, err := substitutePath("/api/items/{id}", map[string]string{"id": "42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/api/items/42" {
		t.Errorf("got %q", path)
	}
}

func TestSubstitutePath_Escaping(t *testing.T) {
	path, err := substitutePath("/api/items/{id}", map[string]string{"id": "a/b c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(path, " ") || strings.Count(path, "/") != 3 {
		t.Errorf("value not escaped: %q", path)
	}
}

func TestSubstitutePath_Unsubstituted(t *testing.T) {
	_, err := substitutePath("/api/{a}/{b}", map[string]string{"a": "1"})
	if err == nil {
		t.Fatal("expected error for unsubstituted placeholder")
	}
	if !strings.Contains(err.Error(), "{b}") {
		t.Errorf("error should name the placeholder: %v", err)
	}
}
