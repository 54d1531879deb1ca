package internal

import (
	"fmt"
	"os"
	"strconv"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Precedence when merging:
// CLI flags > environment > config file > defaults.
type Config struct {
	MaxRetries      int    `yaml:"max_retries"`
	DefaultTimeout  int    `yaml:"timeout"` // seconds, 0 = none
	CaptchaMethod   string `yaml:"captcha_method"`
	TempDirectory   string `yaml:"temp_directory"`
	OutputDirectory string `yaml:"output_directory"`
	CookieFile      string `yaml:"cookie_file"`
	RateLimit       string `yaml:"limit_rate"`
	NoFallback      bool   `yaml:"no_fallback"`
	Workers         int    `yaml:"workers"`

	// Logging configuration
	LogLevel    string `yaml:"log_level"`
	EnableDebug bool   `yaml:"debug"`
	QuietMode   bool   `yaml:"quiet"`
	LogFile     string `yaml:"log_file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:     2,
		DefaultTimeout: 0,
		CaptchaMethod:  "prompt",
		Workers:        1,

		LogLevel:    "info",
		EnableDebug: false,
		QuietMode:   false,
		LogFile:     "", // Empty means stderr
	}
}

// ConfigFilePath returns the path of the user config file, whether or not it
// exists.
func ConfigFilePath() string {
	return xdg.ConfigHome + "/plowdown/config.yml"
}

// LoadConfigFile merges the YAML config file into c if one exists. A missing
// file is not an error.
func (c *Config) LoadConfigFile(path string) error {
	if path == "" {
		path = ConfigFilePath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if retries := os.Getenv("PLOWDOWN_MAX_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			c.MaxRetries = r
		}
	}

	if timeout := os.Getenv("PLOWDOWN_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil && t >= 0 {
			c.DefaultTimeout = t
		}
	}

	if captcha := os.Getenv("PLOWDOWN_CAPTCHA_METHOD"); captcha != "" {
		c.CaptchaMethod = captcha
	}

	if cookies := os.Getenv("PLOWDOWN_COOKIES"); cookies != "" {
		c.CookieFile = cookies
	}

	if rate := os.Getenv("PLOWDOWN_RATE_LIMIT"); rate != "" {
		c.RateLimit = rate
	}

	if workers := os.Getenv("PLOWDOWN_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			c.Workers = w
		}
	}

	// Load logging configuration from environment
	if logLevel := os.Getenv("PLOWDOWN_LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}

	if debug := os.Getenv("PLOWDOWN_DEBUG"); debug != "" {
		c.EnableDebug = debug == "true" || debug == "1"
	}

	if quiet := os.Getenv("PLOWDOWN_QUIET"); quiet != "" {
		c.QuietMode = quiet == "true" || quiet == "1"
	}

	if logFile := os.Getenv("PLOWDOWN_LOG_FILE"); logFile != "" {
		c.LogFile = logFile
	}
}

// ValidateConfig validates the configuration values
func (c *Config) ValidateConfig() error {
	if c.DefaultTimeout < 0 {
		return fmt.Errorf("invalid timeout: %d (must be >= 0)", c.DefaultTimeout)
	}

	if c.Workers < 1 || c.Workers > 16 {
		return fmt.Errorf("invalid workers: %d (must be 1-16)", c.Workers)
	}

	switch c.CaptchaMethod {
	case "prompt", "none", "online":
	default:
		return fmt.Errorf("invalid captcha method: %q (must be prompt, none, or online)", c.CaptchaMethod)
	}

	if c.TempDirectory != "" {
		if info, err := os.Stat(c.TempDirectory); err != nil || !info.IsDir() {
			return fmt.Errorf("temp directory does not exist: %s", c.TempDirectory)
		}
	}

	if c.OutputDirectory != "" {
		if info, err := os.Stat(c.OutputDirectory); err != nil || !info.IsDir() {
			return fmt.Errorf("output directory does not exist: %s", c.OutputDirectory)
		}
	}

	return nil
}
