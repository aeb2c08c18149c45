package cli

import (
	"fmt"

	"github.com/getmockd/webserver/pkg/config"
)

// dotEnvFile is loaded from the working directory before anything else.
const dotEnvFile = ".env"

// loadConfig builds the effective configuration: defaults, then the config
// file (path, or WEBSERVER_CONFIG when empty), then WEBSERVER_* variables.
// Flags are applied by the caller.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(dotEnvFile); err != nil {
		return nil, fmt.Errorf("loading %s: %w", dotEnvFile, err)
	}

	if path == "" {
		path = config.ConfigFileFromEnv()
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	config.ApplyEnv(cfg)
	return cfg, nil
}
