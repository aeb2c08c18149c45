package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// routeFile is the content of an included route file: either a list of
// routes or a document with a routes key.
type routeFile struct {
	Routes  []RouteConfig `yaml:"routes"`
	Include []string      `yaml:"include"`
}

// UnmarshalYAML accepts both the list and the document form.
func (f *routeFile) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&f.Routes)
	}
	type plain routeFile
	return node.Decode((*plain)(f))
}

// LoadFile reads a YAML config file, expands its includes and validates it.
// Values missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	seen := map[string]bool{absPath(path): true}
	included, err := loadIncludes(cfg.Include, filepath.Dir(path), seen)
	if err != nil {
		return nil, err
	}
	cfg.Routes = append(cfg.Routes, included...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config bytes over the defaults without resolving includes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Server == nil {
		cfg.Server = DefaultServerConfiguration()
	}
	return cfg, nil
}

// LoadRoutesFile reads the routes of a single route file.
func LoadRoutesFile(path string) ([]RouteConfig, error) {
	return loadRoutesFile(path, map[string]bool{})
}

func loadRoutesFile(path string, seen map[string]bool) ([]RouteConfig, error) {
	abs := absPath(path)
	if seen[abs] {
		return nil, nil
	}
	seen[abs] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading routes %s: %w", path, err)
	}

	var content routeFile
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("parsing routes %s: %w", path, err)
	}

	nested, err := loadIncludes(content.Include, filepath.Dir(path), seen)
	if err != nil {
		return nil, err
	}
	return append(content.Routes, nested...), nil
}

// loadIncludes expands every pattern relative to baseDir and loads the
// matching files in sorted order.
func loadIncludes(patterns []string, baseDir string, seen map[string]bool) ([]RouteConfig, error) {
	var result []RouteConfig
	for _, pattern := range patterns {
		matches, err := expandGlob(ResolvePath(baseDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("expanding include %q: %w", pattern, err)
		}
		sort.Strings(matches)

		for _, match := range matches {
			routes, err := loadRoutesFile(match, seen)
			if err != nil {
				return nil, err
			}
			result = append(result, routes...)
		}
	}
	return result, nil
}

// expandGlob expands a glob pattern to a list of matching file paths.
// Uses doublestar for ** support, falls back to filepath.Glob for simple patterns.
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return doublestar.FilepathGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// ResolvePath resolves targetPath against basePath unless it is absolute.
// A leading ~/ expands to the user's home directory.
func ResolvePath(basePath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	if strings.HasPrefix(targetPath, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, targetPath[2:])
		}
	}
	return filepath.Join(basePath, targetPath)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
