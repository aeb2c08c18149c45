package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// ServerConfiguration holds engine settings for a single server instance.
type ServerConfiguration struct {
	// ReadTimeout is the HTTP read timeout in seconds (0 = none)
	ReadTimeout int `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	// WriteTimeout is the HTTP write timeout in seconds (0 = none).
	// Responses finished asynchronously must complete within it.
	WriteTimeout int `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	// ShutdownTimeout bounds graceful shutdown in seconds before connections are force-closed
	ShutdownTimeout int `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
	// MaxBodySize is the maximum request body size in bytes (0 = unlimited)
	MaxBodySize int64 `json:"maxBodySize,omitempty" yaml:"maxBodySize,omitempty"`
	// MaxConnections caps concurrently accepted connections (0 = unlimited)
	MaxConnections int `json:"maxConnections,omitempty" yaml:"maxConnections,omitempty"`
	// MaxLogEntries is the number of request history entries kept by the CLI and test SDK
	MaxLogEntries int `json:"maxLogEntries,omitempty" yaml:"maxLogEntries,omitempty"`
}

// DefaultServerConfiguration returns a ServerConfiguration with default values.
func DefaultServerConfiguration() *ServerConfiguration {
	return &ServerConfiguration{
		ReadTimeout:     30,
		WriteTimeout:    0,
		ShutdownTimeout: 5,
		MaxBodySize:     10 * 1024 * 1024, // 10MB
		MaxConnections:  0,
		MaxLogEntries:   1000,
	}
}

// ReadTimeoutDuration returns ReadTimeout as a time.Duration.
func (c *ServerConfiguration) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *ServerConfiguration) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration,
// falling back to 5 seconds when unset.
func (c *ServerConfiguration) ShutdownTimeoutDuration() time.Duration {
	if c.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// Validate checks the server configuration for invalid values.
func (c *ServerConfiguration) Validate() error {
	switch {
	case c.ReadTimeout < 0:
		return fmt.Errorf("%w: readTimeout must not be negative", ErrInvalidConfig)
	case c.WriteTimeout < 0:
		return fmt.Errorf("%w: writeTimeout must not be negative", ErrInvalidConfig)
	case c.ShutdownTimeout < 0:
		return fmt.Errorf("%w: shutdownTimeout must not be negative", ErrInvalidConfig)
	case c.MaxBodySize < 0:
		return fmt.Errorf("%w: maxBodySize must not be negative", ErrInvalidConfig)
	case c.MaxConnections < 0:
		return fmt.Errorf("%w: maxConnections must not be negative", ErrInvalidConfig)
	case c.MaxLogEntries < 0:
		return fmt.Errorf("%w: maxLogEntries must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LogConfig configures operational logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is text or json
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// File, when set, receives a copy of every log record
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint (empty = disabled)
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// RouteConfig describes one route served by the CLI.
// Exactly one of Path and Prefix must be set.
type RouteConfig struct {
	// Path registers an exact-match route
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Prefix registers a prefix-match route
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Status is the response status code (default 200)
	Status int `json:"status,omitempty" yaml:"status,omitempty"`
	// Headers are sent with the status line
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// Body is written verbatim
	Body string `json:"body,omitempty" yaml:"body,omitempty"`
	// JSON is serialized as an application/json body
	JSON any `json:"json,omitempty" yaml:"json,omitempty"`
	// Encoding converts Body before it is written (binary or a charset name)
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	// Echo answers with the serialized request
	Echo bool `json:"echo,omitempty" yaml:"echo,omitempty"`
	// Error makes the handler fail with this message
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Pattern returns the registered path or prefix.
func (r *RouteConfig) Pattern() string {
	if r.Prefix != "" {
		return r.Prefix
	}
	return r.Path
}

// IsPrefix reports whether the route is a prefix route.
func (r *RouteConfig) IsPrefix() bool {
	return r.Prefix != ""
}

// Validate checks a single route definition.
func (r *RouteConfig) Validate() error {
	if (r.Path == "") == (r.Prefix == "") {
		return fmt.Errorf("%w: route must set exactly one of path or prefix", ErrInvalidConfig)
	}
	if !strings.HasPrefix(r.Pattern(), "/") {
		return fmt.Errorf("%w: route %q must start with /", ErrInvalidConfig, r.Pattern())
	}
	if r.Status != 0 && (r.Status < 100 || r.Status > 999 || (r.Status < 200 && r.Status != 101)) {
		return fmt.Errorf("%w: route %q has invalid status %d", ErrInvalidConfig, r.Pattern(), r.Status)
	}

	kinds := 0
	if r.Body != "" {
		kinds++
	}
	if r.JSON != nil {
		kinds++
	}
	if r.Echo {
		kinds++
	}
	if r.Error != "" {
		kinds++
	}
	if kinds > 1 {
		return fmt.Errorf("%w: route %q sets more than one of body, json, echo, error", ErrInvalidConfig, r.Pattern())
	}
	return nil
}

// Config is the project configuration read by the CLI.
type Config struct {
	// Listen is a bare port or host:port
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`
	// EchoPrefix registers a prefix route that echoes the request as JSON (empty = disabled)
	EchoPrefix string `json:"echoPrefix,omitempty" yaml:"echoPrefix,omitempty"`

	Log     LogConfig            `json:"log,omitempty" yaml:"log,omitempty"`
	Metrics MetricsConfig        `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Server  *ServerConfiguration `json:"server,omitempty" yaml:"server,omitempty"`

	// Routes are registered in order; later routes with the same pattern win
	Routes []RouteConfig `json:"routes,omitempty" yaml:"routes,omitempty"`
	// Include lists glob patterns of additional route files
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Listen: "localhost:5001",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: DefaultServerConfiguration(),
	}
}

// Validate checks the configuration and every route.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("%w: listen address is required", ErrInvalidConfig)
	}
	if c.EchoPrefix != "" && !strings.HasPrefix(c.EchoPrefix, "/") {
		return fmt.Errorf("%w: echoPrefix %q must start with /", ErrInvalidConfig, c.EchoPrefix)
	}
	if c.Server != nil {
		if err := c.Server.Validate(); err != nil {
			return err
		}
	}
	for i := range c.Routes {
		if err := c.Routes[i].Validate(); err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
	}
	return nil
}
