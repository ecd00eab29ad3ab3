package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearSettingsEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DISCUSS_CONFIG_PORT", "DISCUSS_CONFIG_FORMAT", "DISCUSS_CONFIG_LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write settings file: %v", err)
	}
	return path
}

func TestLoadSettingsDefaults(t *testing.T) {
	clearSettingsEnv(t)

	cfg, err := LoadSettings(nil)
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.Format != "yaml" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected format/log level: %s %s", cfg.Format, cfg.LogLevel)
	}
	if !cfg.RedactSecrets {
		t.Fatalf("expected secrets to be redacted by default")
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
}

func TestLoadSettingsEnvironment(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("DISCUSS_CONFIG_PORT", "9000")
	t.Setenv("DISCUSS_CONFIG_FORMAT", "flat")
	t.Setenv("RATE_LIMIT_BURST", "5")

	cfg, err := LoadSettings(nil)
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}

	if cfg.Port != "9000" || cfg.Format != "flat" || cfg.RateLimitBurst != 5 {
		t.Fatalf("environment not applied: %+v", cfg)
	}
}

func TestLoadSettingsNormalizesNames(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("DISCUSS_CONFIG_FORMAT", "JSON")

	level := " WARN "
	cfg, err := LoadSettings(&CLIOverrides{LogLevel: &level})
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if cfg.Format != "json" || cfg.LogLevel != "warn" {
		t.Fatalf("expected normalized names, got %q %q", cfg.Format, cfg.LogLevel)
	}

	format := "Flat"
	cfg, err = LoadSettings(&CLIOverrides{Format: &format})
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if cfg.Format != "flat" {
		t.Fatalf("expected flat, got %q", cfg.Format)
	}
}

func TestLoadSettingsPrecedence(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("DISCUSS_CONFIG_PORT", "9000")
	t.Setenv("DISCUSS_CONFIG_LOG_LEVEL", "debug")

	path := writeFile(t, "settings.yaml", `
port: "9100"
format: json
redact_secrets: false
write_timeout: 3s
rate_limit:
  rps: 0
`)
	port := "9200"

	cfg, err := LoadSettings(&CLIOverrides{SettingsFile: path, Port: &port})
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}

	if cfg.Port != "9200" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.Format != "json" {
		t.Fatalf("expected file format, got %s", cfg.Format)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected env log level to survive, got %s", cfg.LogLevel)
	}
	if cfg.RedactSecrets {
		t.Fatalf("expected redaction disabled by file")
	}
	if cfg.WriteTimeout != 3*time.Second {
		t.Fatalf("unexpected write timeout: %s", cfg.WriteTimeout)
	}
	if cfg.RateLimitRPS != 0 || cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("unexpected rate limit: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadSettingsJSONCFile(t *testing.T) {
	clearSettingsEnv(t)

	path := writeFile(t, "settings.jsonc", `{
  // served on an internal port
  "port": "7070",
  "enable_request_logging": false,
}`)

	cfg, err := LoadSettings(&CLIOverrides{SettingsFile: path})
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if cfg.Port != "7070" || cfg.EnableRequestLogging {
		t.Fatalf("jsonc settings not applied: %+v", cfg)
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	clearSettingsEnv(t)

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadSettings(&CLIOverrides{SettingsFile: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeFile(t, "settings.yaml", "idle_timeout: soon\n")
		if _, err := LoadSettings(&CLIOverrides{SettingsFile: path}); err == nil {
			t.Fatalf("expected error for invalid duration")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		format := "toml"
		if _, err := LoadSettings(&CLIOverrides{Format: &format}); err == nil {
			t.Fatalf("expected error for unknown format")
		}
	})

	t.Run("unknown log level", func(t *testing.T) {
		level := "verbose"
		if _, err := LoadSettings(&CLIOverrides{LogLevel: &level}); err == nil {
			t.Fatalf("expected error for unknown log level")
		}
	})

	t.Run("negative burst in file", func(t *testing.T) {
		path := writeFile(t, "settings.yaml", "rate_limit:\n  burst: -1\n")
		if _, err := LoadSettings(&CLIOverrides{SettingsFile: path}); err == nil {
			t.Fatalf("expected error for negative burst")
		}
	})
}
