// internal/config/config.go
//
// This package handles configuration and the .acmeblogs directory structure.
// Every directory acmeblogs runs from gets a .acmeblogs/ folder holding the
// config file and the logs.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppDir is the name of the directory we create in the project directory
	AppDir = ".acmeblogs"

	defaultBaseURL     = "https://jsonplaceholder.typicode.com"
	defaultTimeout     = "10s"
	defaultEnrichment  = "sequential"
	defaultMaxParallel = 4
	defaultEmployeeID  = 1

	// DefaultBridgeHost keeps the event bridge on loopback.
	DefaultBridgeHost = "127.0.0.1"
	// DefaultBridgePort is the event bridge's TCP port.
	DefaultBridgePort = 8766
)

const defaultProjectConfigYAML = `# acmeblogs configuration
version: 1

# Read-only JSON API serving users, posts and comments.
api:
  base_url: https://jsonplaceholder.typicode.com
  timeout: 10s

# How post lists are built. "sequential" fetches one post's author and
# comments at a time; "parallel" fans out up to max_parallel posts.
render:
  enrichment: sequential
  max_parallel: 4
  default_employee: 1

# Loopback HTTP bridge for scripted selection and toggle events.
bridge:
  enabled: false
  host: 127.0.0.1
  port: 8766
`

// APIConfig points the gateway at the blog API.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// RenderConfig tunes post list building.
type RenderConfig struct {
	Enrichment      string `yaml:"enrichment"`
	MaxParallel     int    `yaml:"max_parallel"`
	DefaultEmployee int    `yaml:"default_employee"`
}

// BridgeConfig captures event bridge preferences.
type BridgeConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// ProjectConfig models .acmeblogs/config.yaml.
type ProjectConfig struct {
	Version int          `yaml:"version"`
	API     APIConfig    `yaml:"api"`
	Render  RenderConfig `yaml:"render"`
	Bridge  BridgeConfig `yaml:"bridge"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory acmeblogs was started from
	ProjectDir string

	// AppProjectDir is ProjectDir/.acmeblogs
	AppProjectDir string

	Project ProjectConfig
}

// InitAppDir creates the .acmeblogs directory structure in projectDir and
// writes the default config file when none exists.
//
// Structure created:
// .acmeblogs/
// ├── config.yaml
// └── logs/
func InitAppDir(projectDir string) error {
	appDir := filepath.Join(projectDir, AppDir)
	if err := os.MkdirAll(filepath.Join(appDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(appDir, "config.yaml"))
}

// NewConfig loads the project config, applying defaults and environment
// overrides (ACMEBLOGS_API_URL, ACMEBLOGS_API_TIMEOUT, ACMEBLOGS_ENRICHMENT,
// ACMEBLOGS_DEFAULT_EMPLOYEE, ACMEBLOGS_BRIDGE_ENABLED/HOST/PORT). Values may also come from .acmeblogs/.env;
// the process environment wins.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:    projectDir,
		AppProjectDir: filepath.Join(projectDir, AppDir),
		Project:       defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	overrides, err := cfg.loadEnvOverrides()
	if err != nil {
		return nil, err
	}
	cfg.Project.applyEnvOverrides(overrides)
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.AppProjectDir, "logs")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.AppProjectDir, "config.yaml")
}

// APIBaseURL returns the configured API root.
func (c *Config) APIBaseURL() string {
	return c.Project.API.BaseURL
}

// APITimeout returns the per-request timeout.
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.Project.API.Timeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(defaultTimeout)
	}
	return d
}

// Enrichment returns the configured post enrichment mode.
func (c *Config) Enrichment() string {
	return c.Project.Render.Enrichment
}

// MaxParallel returns the parallel enrichment fan-out limit.
func (c *Config) MaxParallel() int {
	return c.Project.Render.MaxParallel
}

// DefaultEmployee returns the employee selected when a selection carries no id.
func (c *Config) DefaultEmployee() int {
	return c.Project.Render.DefaultEmployee
}

// BridgeEnabled reports whether the event bridge should start.
func (c *Config) BridgeEnabled() bool {
	return c.Project.Bridge.Enabled != nil && *c.Project.Bridge.Enabled
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{Version: 1}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.API.BaseURL) == "" {
		pc.API.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(pc.API.Timeout) == "" {
		pc.API.Timeout = defaultTimeout
	}
	if strings.TrimSpace(pc.Render.Enrichment) == "" {
		pc.Render.Enrichment = defaultEnrichment
	}
	if pc.Render.MaxParallel <= 0 {
		pc.Render.MaxParallel = defaultMaxParallel
	}
	if pc.Render.DefaultEmployee <= 0 {
		pc.Render.DefaultEmployee = defaultEmployeeID
	}
	if strings.TrimSpace(pc.Bridge.Host) == "" {
		pc.Bridge.Host = DefaultBridgeHost
	}
	if pc.Bridge.Port == 0 {
		pc.Bridge.Port = DefaultBridgePort
	}
}

func (pc *ProjectConfig) normalize() {
	pc.API.BaseURL = strings.TrimRight(strings.TrimSpace(pc.API.BaseURL), "/")
	pc.API.Timeout = strings.TrimSpace(pc.API.Timeout)
	pc.Render.Enrichment = strings.ToLower(strings.TrimSpace(pc.Render.Enrichment))
	pc.Bridge.Host = strings.TrimSpace(pc.Bridge.Host)
}

// envOverrides are read from the process environment layered over the
// optional .acmeblogs/.env file.
type envOverrides struct {
	APIURL          string `env:"ACMEBLOGS_API_URL"`
	APITimeout      string `env:"ACMEBLOGS_API_TIMEOUT"`
	Enrichment      string `env:"ACMEBLOGS_ENRICHMENT"`
	DefaultEmployee int    `env:"ACMEBLOGS_DEFAULT_EMPLOYEE"`
	BridgeEnabled   *bool  `env:"ACMEBLOGS_BRIDGE_ENABLED"`
	BridgeHost      string `env:"ACMEBLOGS_BRIDGE_HOST"`
	BridgePort      int    `env:"ACMEBLOGS_BRIDGE_PORT"`
}

func (c *Config) loadEnvOverrides() (envOverrides, error) {
	environment := map[string]string{}
	path := filepath.Join(c.AppProjectDir, ".env")
	if values, err := godotenv.Read(path); err == nil {
		environment = values
	} else if !errors.Is(err, fs.ErrNotExist) {
		return envOverrides{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			environment[key] = value
		}
	}
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environment}); err != nil {
		return envOverrides{}, fmt.Errorf("config: environment: %w", err)
	}
	return o, nil
}

func (pc *ProjectConfig) applyEnvOverrides(o envOverrides) {
	if value := strings.TrimSpace(o.APIURL); value != "" {
		pc.API.BaseURL = value
	}
	if value := strings.TrimSpace(o.APITimeout); value != "" {
		pc.API.Timeout = value
	}
	if value := strings.TrimSpace(o.Enrichment); value != "" {
		pc.Render.Enrichment = value
	}
	if o.DefaultEmployee > 0 {
		pc.Render.DefaultEmployee = o.DefaultEmployee
	}
	if o.BridgeEnabled != nil {
		enabled := *o.BridgeEnabled
		pc.Bridge.Enabled = &enabled
	}
	if value := strings.TrimSpace(o.BridgeHost); value != "" {
		pc.Bridge.Host = value
	}
	if o.BridgePort != 0 {
		pc.Bridge.Port = o.BridgePort
	}
	pc.normalize()
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	u, err := url.Parse(pc.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL")
	}
	if d, err := time.ParseDuration(pc.API.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("api.timeout must be a positive duration")
	}
	switch pc.Render.Enrichment {
	case "sequential", "parallel":
	default:
		return fmt.Errorf("render.enrichment must be 'sequential' or 'parallel'")
	}
	if pc.Bridge.Port < 0 || pc.Bridge.Port > 65535 {
		return fmt.Errorf("bridge.port must be between 0 and 65535")
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}
