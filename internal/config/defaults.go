package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 4310,
			Host: "localhost",
		},
		MCP: MCPConfig{
			Name:         "toolbridge",
			Transport:    "streamable-http",
			MountPath:    "/mcp",
			JSONResponse: true,
		},
		Upstream: UpstreamConfig{
			Timeout:       "30s",
			MaxResponseMB: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
