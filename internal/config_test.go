package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxRetries != 2 {
		t.Errorf("expected 2 default retries, got %d", config.MaxRetries)
	}
	if config.CaptchaMethod != "prompt" {
		t.Errorf("expected prompt captcha method, got %q", config.CaptchaMethod)
	}
	if config.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", config.Workers)
	}
	if err := config.ValidateConfig(); err != nil {
		t.Errorf("defaults must validate, got %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("missing_file_is_not_an_error", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yml")); err != nil {
			t.Errorf("missing file must be silent, got %v", err)
		}
		if config.MaxRetries != 2 {
			t.Errorf("defaults must survive a missing file")
		}
	})

	t.Run("values_merged_over_defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		content := "max_retries: 5\nlimit_rate: 500K\nworkers: 4\ncaptcha_method: none\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config := DefaultConfig()
		if err := config.LoadConfigFile(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.MaxRetries != 5 {
			t.Errorf("expected 5 retries, got %d", config.MaxRetries)
		}
		if config.RateLimit != "500K" {
			t.Errorf("expected 500K rate, got %q", config.RateLimit)
		}
		if config.Workers != 4 {
			t.Errorf("expected 4 workers, got %d", config.Workers)
		}
		if config.CaptchaMethod != "none" {
			t.Errorf("expected none captcha method, got %q", config.CaptchaMethod)
		}
		// Untouched keys keep their defaults.
		if config.LogLevel != "info" {
			t.Errorf("expected default log level, got %q", config.LogLevel)
		}
	})

	t.Run("malformed_yaml_fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		if err := os.WriteFile(path, []byte("max_retries: [not a number\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if err := DefaultConfig().LoadConfigFile(path); err == nil {
			t.Errorf("expected a parse error")
		}
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PLOWDOWN_MAX_RETRIES", "7")
	t.Setenv("PLOWDOWN_TIMEOUT", "120")
	t.Setenv("PLOWDOWN_CAPTCHA_METHOD", "online")
	t.Setenv("PLOWDOWN_COOKIES", "/tmp/cookies.txt")
	t.Setenv("PLOWDOWN_RATE_LIMIT", "2M")
	t.Setenv("PLOWDOWN_WORKERS", "3")
	t.Setenv("PLOWDOWN_DEBUG", "1")
	t.Setenv("PLOWDOWN_QUIET", "true")

	config := DefaultConfig()
	config.LoadFromEnv()

	if config.MaxRetries != 7 {
		t.Errorf("expected 7 retries, got %d", config.MaxRetries)
	}
	if config.DefaultTimeout != 120 {
		t.Errorf("expected 120s timeout, got %d", config.DefaultTimeout)
	}
	if config.CaptchaMethod != "online" {
		t.Errorf("expected online captcha method, got %q", config.CaptchaMethod)
	}
	if config.CookieFile != "/tmp/cookies.txt" {
		t.Errorf("expected cookie file, got %q", config.CookieFile)
	}
	if config.RateLimit != "2M" {
		t.Errorf("expected 2M rate, got %q", config.RateLimit)
	}
	if config.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", config.Workers)
	}
	if !config.EnableDebug || !config.QuietMode {
		t.Errorf("expected debug and quiet enabled")
	}
}

func TestLoadFromEnv_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("PLOWDOWN_MAX_RETRIES", "many")
	t.Setenv("PLOWDOWN_WORKERS", "-2")

	config := DefaultConfig()
	config.LoadFromEnv()

	if config.MaxRetries != 2 {
		t.Errorf("bad retry value must keep the default, got %d", config.MaxRetries)
	}
	if config.Workers != 1 {
		t.Errorf("bad worker value must keep the default, got %d", config.Workers)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults_valid", func(c *Config) {}, false},
		{"negative_timeout", func(c *Config) { c.DefaultTimeout = -1 }, true},
		{"zero_workers", func(c *Config) { c.Workers = 0 }, true},
		{"too_many_workers", func(c *Config) { c.Workers = 17 }, true},
		{"bad_captcha_method", func(c *Config) { c.CaptchaMethod = "telepathy" }, true},
		{"missing_temp_directory", func(c *Config) { c.TempDirectory = "/nonexistent/tmp" }, true},
		{"missing_output_directory", func(c *Config) { c.OutputDirectory = "/nonexistent/out" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.ValidateConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("existing_directories_accepted", func(t *testing.T) {
		config := DefaultConfig()
		config.TempDirectory = t.TempDir()
		config.OutputDirectory = t.TempDir()
		if err := config.ValidateConfig(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
