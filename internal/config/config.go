package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the transparencia service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
	Browser BrowserConfig `yaml:"browser"`
	Portal  PortalConfig  `yaml:"portal"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds the access token allow-list.
type AuthConfig struct {
	Tokens []string `yaml:"tokens"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// BrowserConfig holds headless browser settings.
type BrowserConfig struct {
	Engine           string `yaml:"engine"` // firefox (default), chromium, webkit
	Headless         *bool  `yaml:"headless"`
	Install          bool   `yaml:"install"` // download driver and browser at boot
	MaxSessions      int    `yaml:"max_sessions"`
	ViewportWidth    int    `yaml:"viewport_width"`
	ViewportHeight   int    `yaml:"viewport_height"`
	Locale           string `yaml:"locale"`
	DefaultTimeoutMs int    `yaml:"default_timeout_ms"`
}

// IsHeadless reports the headless flag, true when unset.
func (b BrowserConfig) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}

// PortalConfig holds navigation pacing and timeouts for the portal.
type PortalConfig struct {
	BaseURL             string `yaml:"base_url"`
	NavigationTimeoutMs int    `yaml:"navigation_timeout_ms"`
	ActionTimeoutMs     int    `yaml:"action_timeout_ms"`
	ResponseTimeoutMs   int    `yaml:"response_timeout_ms"`
	TypeDelayMs         int    `yaml:"type_delay_ms"` // -1 types without delay
	ClickDelayMs        int    `yaml:"click_delay_ms"` // -1 clicks without delay
	StabilizeIntervalMs int    `yaml:"stabilize_interval_ms"`
	StabilizePolls      int    `yaml:"stabilize_polls"`
	StabilizeTimeoutMs  int    `yaml:"stabilize_timeout_ms"`
	SettleDelayMs       int    `yaml:"settle_delay_ms"` // fixed wait instead of polling when > 0
	DetailConcurrency   int    `yaml:"detail_concurrency"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// A full collection walks every detail page.
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 30
	}

	if c.Browser.Engine == "" {
		c.Browser.Engine = "firefox"
	}
	if c.Browser.MaxSessions <= 0 {
		c.Browser.MaxSessions = 2
	}
	if c.Browser.ViewportWidth <= 0 {
		c.Browser.ViewportWidth = 1280
	}
	if c.Browser.ViewportHeight <= 0 {
		c.Browser.ViewportHeight = 720
	}
	if c.Browser.Locale == "" {
		c.Browser.Locale = "pt-BR"
	}
	if c.Browser.DefaultTimeoutMs <= 0 {
		c.Browser.DefaultTimeoutMs = 30000
	}

	p := &c.Portal
	if p.BaseURL == "" {
		p.BaseURL = "https://portaldatransparencia.gov.br"
	}
	p.BaseURL = strings.TrimRight(p.BaseURL, "/")
	if p.NavigationTimeoutMs <= 0 {
		p.NavigationTimeoutMs = 60000
	}
	if p.ActionTimeoutMs <= 0 {
		p.ActionTimeoutMs = 30000
	}
	if p.ResponseTimeoutMs <= 0 {
		p.ResponseTimeoutMs = 60000
	}
	if p.TypeDelayMs < 0 {
		p.TypeDelayMs = 0
	} else if p.TypeDelayMs == 0 {
		p.TypeDelayMs = 250
	}
	if p.ClickDelayMs < 0 {
		p.ClickDelayMs = 0
	} else if p.ClickDelayMs == 0 {
		p.ClickDelayMs = 1000
	}
	if p.StabilizeIntervalMs <= 0 {
		p.StabilizeIntervalMs = 250
	}
	if p.StabilizePolls <= 0 {
		p.StabilizePolls = 3
	}
	if p.StabilizeTimeoutMs <= 0 {
		p.StabilizeTimeoutMs = 5000
	}
	if p.DetailConcurrency <= 0 {
		p.DetailConcurrency = 1
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Auth.Tokens) == 0 {
		return fmt.Errorf("auth.tokens is required")
	}
	for i, t := range c.Auth.Tokens {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("auth.tokens[%d] is empty", i)
		}
	}
	switch c.Browser.Engine {
	case "firefox", "chromium", "webkit":
		// ok
	default:
		return fmt.Errorf("browser.engine must be firefox, chromium or webkit, got %q", c.Browser.Engine)
	}
	if !strings.HasPrefix(c.Portal.BaseURL, "http://") && !strings.HasPrefix(c.Portal.BaseURL, "https://") {
		return fmt.Errorf("portal.base_url must be an http(s) URL, got %q", c.Portal.BaseURL)
	}
	if c.Portal.DetailConcurrency > MaxDetailConcurrency {
		return fmt.Errorf("portal.detail_concurrency must be at most %d, got %d",
			MaxDetailConcurrency, c.Portal.DetailConcurrency)
	}
	return nil
}

// MaxDetailConcurrency caps secondary pages open at once in one session.
const MaxDetailConcurrency = 8

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests and `go run` from subdirectories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
