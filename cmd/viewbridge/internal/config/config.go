// Package config loads the optional viewbridge.yaml of a host project.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap/zapcore"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the project root.
const FileName = "viewbridge.yaml"

// Defaults applied by Resolve.
const (
	DefaultAddr      = "127.0.0.1:7450"
	DefaultNamespace = "viewbridge"
	DefaultAppName   = "viewbridge_app"
)

// Config represents the optional viewbridge.yaml configuration.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	// Views lists the demo views the dev server registers. Empty means all.
	Views []string `yaml:"views,omitempty"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
}

// ServerConfig contains dev server settings.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string `yaml:"level,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	Namespace string `yaml:"namespace,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root       string
	ModulePath string
	AppName    string
	Addr       string
	LogLevel   zapcore.Level
	Verbose    bool
	Namespace  string
	Views      []string
}

// LoadOptional reads viewbridge.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// Resolve loads viewbridge.yaml (if present) and fills in defaults. A
// missing go.mod is not an error; the app name then falls back to the
// directory name.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	appName := strings.TrimSpace(cfg.App.Name)
	if appName == "" {
		appName = defaultAppName(modulePath, dir)
	}

	addr := strings.TrimSpace(cfg.Server.Addr)
	if addr == "" {
		addr = DefaultAddr
	}

	level := zapcore.InfoLevel
	if s := strings.TrimSpace(cfg.Log.Level); s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
	}

	namespace := strings.TrimSpace(cfg.Metrics.Namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}

	var views []string
	for _, v := range cfg.Views {
		if v = strings.TrimSpace(v); v != "" {
			views = append(views, v)
		}
	}

	return &Resolved{
		Root:       dir,
		ModulePath: modulePath,
		AppName:    appName,
		Addr:       addr,
		LogLevel:   level,
		Verbose:    cfg.Log.Verbose,
		Namespace:  namespace,
		Views:      views,
	}, nil
}

// FindProjectRoot walks up from the current directory to find go.mod.
// It returns the current directory when there is none.
func FindProjectRoot() (string, error) {
	start, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start, nil
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", err
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modulePath != "" {
		modName, _, ok := module.SplitPathVersion(modulePath)
		if ok {
			parts := strings.Split(modName, "/")
			base = parts[len(parts)-1]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return DefaultAppName
	}
	return base
}

// validateNamespace enforces the Prometheus metric name alphabet.
func validateNamespace(ns string) error {
	for i, r := range ns {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return fmt.Errorf("metrics.namespace contains invalid character %q in %q", r, ns)
		}
	}
	return nil
}
