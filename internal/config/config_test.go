package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 4310 {
		t.Errorf("port: %d", cfg.Server.Port)
	}
	if cfg.MCP.Transport != "streamable-http" {
		t.Errorf("transport: %q", cfg.MCP.Transport)
	}
	if cfg.MCP.MountPath != "/mcp" {
		t.Errorf("mount path: %q", cfg.MCP.MountPath)
	}
	if !cfg.MCP.JSONResponse {
		t.Error("json_response should default on")
	}
	if cfg.Upstream.GetTimeout() != 30*time.Second {
		t.Errorf("timeout: %v", cfg.Upstream.GetTimeout())
	}
	if issues := cfg.Validate(); len(issues) != 0 {
		t.Errorf("defaults must validate cleanly: %v", issues)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolbridge.toml")
	content := `
[server]
port = 9999

[mcp]
name = "testbridge"
transport = "sse"

[upstream]
timeout = "5s"

[[proxy]]
name = "get_weather"
description = "Current weather"
url = "https://wttr.in/{city}"
method = "GET"

[[proxy.params]]
name = "city"
type = "string"

[[openapi]]
url = "https://api.example.com/openapi.json"
include_paths = ["/users"]
name_from_summary = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port: %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("unset values keep defaults, host: %q", cfg.Server.Host)
	}
	if cfg.MCP.Name != "testbridge" || cfg.MCP.Transport != "sse" {
		t.Errorf("mcp: %+v", cfg.MCP)
	}
	if cfg.Upstream.GetTimeout() != 5*time.Second {
		t.Errorf("timeout: %v", cfg.Upstream.GetTimeout())
	}

	if len(cfg.Proxies) != 1 {
		t.Fatalf("proxies: %d", len(cfg.Proxies))
	}
	proxy := cfg.Proxies[0]
	if proxy.Name != "get_weather" || proxy.URL != "https://wttr.in/{city}" {
		t.Errorf("proxy: %+v", proxy)
	}
	if len(proxy.Params) != 1 || proxy.Params[0].Name != "city" {
		t.Errorf("proxy params: %+v", proxy.Params)
	}

	if len(cfg.OpenAPI) != 1 {
		t.Fatalf("openapi: %d", len(cfg.OpenAPI))
	}
	if !cfg.OpenAPI[0].NameFromSummary || len(cfg.OpenAPI[0].IncludePaths) != 1 {
		t.Errorf("openapi: %+v", cfg.OpenAPI[0])
	}
}

func TestLoadFromFiles_LaterOverridesEarlier(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	local := filepath.Join(dir, "local.toml")
	os.WriteFile(base, []byte("[server]\nport = 1111\nhost = \"base\"\n"), 0644)
	os.WriteFile(local, []byte("[server]\nport = 2222\n"), 0644)

	cfg, err := LoadFromFiles(base, local)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 2222 {
		t.Errorf("later file must win, port: %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "base" {
		t.Errorf("earlier value must survive when not overridden, host: %q", cfg.Server.Host)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/toolbridge.toml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TOOLBRIDGE_SERVER_PORT", "7777")
	t.Setenv("TOOLBRIDGE_MCP_TRANSPORT", "sse")
	t.Setenv("TOOLBRIDGE_LOG_LEVEL", "debug")

	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port: %d", cfg.Server.Port)
	}
	if cfg.MCP.Transport != "sse" {
		t.Errorf("transport: %q", cfg.MCP.Transport)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level: %q", cfg.Logging.Level)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()
	ApplyFlagOverrides(cfg, 8888, "0.0.0.0")
	if cfg.Server.Port != 8888 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server: %+v", cfg.Server)
	}

	cfg = NewDefaultConfig()
	ApplyFlagOverrides(cfg, 0, "")
	if cfg.Server.Port != 4310 || cfg.Server.Host != "localhost" {
		t.Errorf("zero values must not override: %+v", cfg.Server)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   int
	}{
		{"defaults", func(c *Config) {}, 0},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, 1},
		{"bad transport", func(c *Config) { c.MCP.Transport = "websocket" }, 1},
		{"bad mount path", func(c *Config) { c.MCP.MountPath = "mcp" }, 1},
		{"bad timeout", func(c *Config) { c.Upstream.Timeout = "soon" }, 1},
		{"proxy without url", func(c *Config) {
			c.Proxies = []ProxyConfig{{Name: "x"}}
		}, 1},
		{"openapi without url", func(c *Config) {
			c.OpenAPI = []OpenAPIConfig{{}}
		}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			if issues := cfg.Validate(); len(issues) != tc.want {
				t.Errorf("expected %d issues, got %v", tc.want, issues)
			}
		})
	}
}
