package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvListen         = "WEBSERVER_LISTEN"
	EnvConfig         = "WEBSERVER_CONFIG"
	EnvLogLevel       = "WEBSERVER_LOG_LEVEL"
	EnvLogFormat      = "WEBSERVER_LOG_FORMAT"
	EnvMetricsAddr    = "WEBSERVER_METRICS_ADDR"
	EnvMaxConnections = "WEBSERVER_MAX_CONNECTIONS"
)

// LoadDotEnv loads variables from a .env file without overriding variables
// already present in the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// ConfigFileFromEnv returns the config file named by WEBSERVER_CONFIG.
func ConfigFileFromEnv() string {
	return os.Getenv(EnvConfig)
}

// ApplyEnv overrides cfg with WEBSERVER_* environment variables.
// It only sets values that are present in the environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvListen); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv(EnvMaxConnections); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			if cfg.Server == nil {
				cfg.Server = DefaultServerConfiguration()
			}
			cfg.Server.MaxConnections = n
		}
	}
}
