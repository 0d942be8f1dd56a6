// ABOUTME: Configuration loader for the keep CLI
// ABOUTME: Merges config.yaml, .env, and environment variables with defaults

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL  = "http://localhost:8000"
	DefaultTimeout = 10 * time.Second

	appDirName     = "keep"
	configFileName = "config.yaml"
)

type Config struct {
	APIURL    string        // Backend base address, without the /api/v1 prefix
	Timeout   time.Duration // Per-request bound enforced by the API client
	ConfigDir string        // Holds session.json, config.yaml, debug.log
	LogLevel  string        // debug, info, warn, error (default: info)
	LogFormat string        // text, json (default: text)
}

// fileConfig is the on-disk shape of config.yaml
type fileConfig struct {
	APIURL    string `yaml:"api_url"`
	Timeout   string `yaml:"timeout"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load builds the configuration. Environment variables win over config.yaml,
// which wins over the defaults. A .env file in the working directory is
// loaded into the environment first without overriding variables already set.
func Load() (*Config, error) {
	return LoadDir("")
}

// LoadDir is Load with the config directory fixed to dir, as the
// --config-dir flag does. An empty dir falls back to KEEP_CONFIG_DIR.
func LoadDir(dir string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if dir == "" {
		dir = getEnv("KEEP_CONFIG_DIR", DefaultConfigDir())
	}

	fc, err := readFile(filepath.Join(dir, configFileName))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIURL:    getEnv("KEEP_API_URL", firstNonEmpty(fc.APIURL, DefaultAPIURL)),
		ConfigDir: dir,
		LogLevel:  getEnv("LOG_LEVEL", firstNonEmpty(fc.LogLevel, "info")),
		LogFormat: getEnv("LOG_FORMAT", firstNonEmpty(fc.LogFormat, "text")),
	}

	timeout, err := ParseTimeout(getEnv("KEEP_TIMEOUT", fc.Timeout))
	if err != nil {
		return nil, err
	}
	cfg.Timeout = timeout
	cfg.APIURL = NormalizeURL(cfg.APIURL)

	if cfg.ConfigDir == "" {
		return nil, fmt.Errorf("cannot determine config directory; set KEEP_CONFIG_DIR")
	}

	return cfg, nil
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/keep, or ~/.config/keep
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDirName)
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fc, nil
	}
	if err != nil {
		return fc, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("invalid %s: %w", path, err)
	}
	return fc, nil
}

// ParseTimeout accepts Go durations ("15s") or bare seconds ("15")
func ParseTimeout(value string) (time.Duration, error) {
	if value == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		d, err = time.ParseDuration(value + "s")
	}
	if err != nil {
		return 0, fmt.Errorf("timeout must be a duration, got %q", value)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", d)
	}
	return d, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// NormalizeURL adds http:// when no scheme is given and drops trailing slashes
func NormalizeURL(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	return strings.TrimRight(url, "/")
}
