package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig    `toml:"server"`
	MCP      MCPConfig       `toml:"mcp"`
	Upstream UpstreamConfig  `toml:"upstream"`
	Logging  LoggingConfig   `toml:"logging"`
	Proxies  []ProxyConfig   `toml:"proxy"`
	OpenAPI  []OpenAPIConfig `toml:"openapi"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// MCPConfig contains settings for the MCP endpoint.
type MCPConfig struct {
	Name         string `toml:"name"`
	Transport    string `toml:"transport"`  // "streamable-http" or "sse"
	MountPath    string `toml:"mount_path"` // e.g. "/mcp"
	JSONResponse bool   `toml:"json_response"`
}

// UpstreamConfig contains outbound HTTP client settings for remote targets.
type UpstreamConfig struct {
	Timeout       string `toml:"timeout"`
	MaxResponseMB int    `toml:"max_response_mb"`
}

// GetTimeout parses and returns the outbound request timeout.
func (c *UpstreamConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// ProxyConfig declares a manual proxy tool targeting an external endpoint.
type ProxyConfig struct {
	Name        string             `toml:"name"`
	Description string             `toml:"description"`
	URL         string             `toml:"url"`
	Method      string             `toml:"method"`
	Params      []ProxyParamConfig `toml:"params"`
}

// ProxyParamConfig describes one declared parameter of a proxy tool.
type ProxyParamConfig struct {
	Name        string `toml:"name"`
	Type        string `toml:"type"` // string, number, integer, boolean, array, object
	In          string `toml:"in"`   // path, query, body (empty = inferred)
	Description string `toml:"description"`
	Required    bool   `toml:"required"`
	Default     any    `toml:"default"`
}

// OpenAPIConfig declares an OpenAPI document to import tools from.
type OpenAPIConfig struct {
	URL             string   `toml:"url"`
	BaseURL         string   `toml:"base_url"`
	IncludePaths    []string `toml:"include_paths"`
	ExcludePaths    []string `toml:"exclude_paths"`
	NameFromSummary bool     `toml:"name_from_summary"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies TOOLBRIDGE_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("TOOLBRIDGE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("TOOLBRIDGE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if transport := os.Getenv("TOOLBRIDGE_MCP_TRANSPORT"); transport != "" {
		config.MCP.Transport = transport
	}
	if mount := os.Getenv("TOOLBRIDGE_MCP_MOUNT_PATH"); mount != "" {
		config.MCP.MountPath = mount
	}
	if timeout := os.Getenv("TOOLBRIDGE_UPSTREAM_TIMEOUT"); timeout != "" {
		config.Upstream.Timeout = timeout
	}
	if level := os.Getenv("TOOLBRIDGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("TOOLBRIDGE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate returns a list of configuration issues. An empty list means the
// configuration is usable.
func (c *Config) Validate() []string {
	var issues []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
	}
	switch c.MCP.Transport {
	case "streamable-http", "sse":
	default:
		issues = append(issues, fmt.Sprintf("mcp.transport must be %q or %q (got %q)", "streamable-http", "sse", c.MCP.Transport))
	}
	if !strings.HasPrefix(c.MCP.MountPath, "/") {
		issues = append(issues, fmt.Sprintf("mcp.mount_path must start with / (got %q)", c.MCP.MountPath))
	}
	if _, err := time.ParseDuration(c.Upstream.Timeout); c.Upstream.Timeout != "" && err != nil {
		issues = append(issues, fmt.Sprintf("upstream.timeout is not a valid duration: %v", err))
	}
	for i, p := range c.Proxies {
		if p.Name == "" {
			issues = append(issues, fmt.Sprintf("proxy[%d] has no name", i))
		}
		if p.URL == "" {
			issues = append(issues, fmt.Sprintf("proxy %q has no url", p.Name))
		}
	}
	for i, o := range c.OpenAPI {
		if o.URL == "" {
			issues = append(issues, fmt.Sprintf("openapi[%d] has no url", i))
		}
	}

	return issues
}
