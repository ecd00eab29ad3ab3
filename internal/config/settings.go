package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultFormat         = "yaml"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

var (
	knownFormats   = []string{"yaml", "json", "flat"}
	knownLogLevels = []string{"debug", "info", "warn", "error"}
)

// Settings aggregates runtime settings of the service resolved from multiple sources.
// Precedence: CLI flags > settings file > Environment variables > Defaults
type Settings struct {
	Port                 string
	Format               string
	LogLevel             string
	RedactSecrets        bool
	EnableRequestLogging bool
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	RateLimitRPS         float64
	RateLimitBurst       int
}

// fileSettings represents the settings file structure.
type fileSettings struct {
	Port                 string        `yaml:"port"`
	Format               string        `yaml:"format"`
	LogLevel             string        `yaml:"log_level"`
	RedactSecrets        *bool         `yaml:"redact_secrets"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	RateLimit            fileRateLimit `yaml:"rate_limit"`
}

type fileRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	SettingsFile   string
	Port           *string
	Format         *string
	LogLevel       *string
	RedactSecrets  *bool
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// LoadSettings extracts settings from multiple sources with precedence:
// CLI flags > settings file > Environment variables > Defaults
func LoadSettings(overrides *CLIOverrides) (Settings, error) {
	cfg := defaultSettings()

	applyEnvSettings(&cfg)

	if overrides != nil && overrides.SettingsFile != "" {
		fileCfg, err := loadFromFile(overrides.SettingsFile)
		if err != nil {
			return Settings{}, fmt.Errorf("load settings file: %w", err)
		}
		if err := applyFileSettings(&cfg, fileCfg); err != nil {
			return Settings{}, fmt.Errorf("apply settings file: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	cfg.Format = normalizeName(cfg.Format)
	cfg.LogLevel = normalizeName(cfg.LogLevel)

	if err := validateSettings(cfg); err != nil {
		return Settings{}, err
	}

	return cfg, nil
}

func defaultSettings() Settings {
	return Settings{
		Port:                 defaultPort,
		Format:               defaultFormat,
		LogLevel:             defaultLogLevel,
		RedactSecrets:        true,
		EnableRequestLogging: true,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile reads a YAML settings file. JSON files may carry comments.
func loadFromFile(path string) (*fileSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	var fileCfg fileSettings
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	return &fileCfg, nil
}

func applyFileSettings(cfg *Settings, fileCfg *fileSettings) error {
	if fileCfg.Port != "" {
		cfg.Port = fileCfg.Port
	}
	if fileCfg.Format != "" {
		cfg.Format = fileCfg.Format
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.RedactSecrets != nil {
		cfg.RedactSecrets = *fileCfg.RedactSecrets
	}
	if fileCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *fileCfg.EnableRequestLogging
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"shutdown_grace_period", fileCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", fileCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", fileCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", fileCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = value
	}

	if fileCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *fileCfg.RateLimit.RPS
	}
	if fileCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *fileCfg.RateLimit.Burst
	}
	return nil
}

func applyEnvSettings(cfg *Settings) {
	if port := strings.TrimSpace(os.Getenv("DISCUSS_CONFIG_PORT")); port != "" {
		cfg.Port = port
	}

	if format := strings.TrimSpace(os.Getenv("DISCUSS_CONFIG_FORMAT")); format != "" {
		cfg.Format = format
	}

	if level := strings.TrimSpace(os.Getenv("DISCUSS_CONFIG_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

func applyCLIOverrides(cfg *Settings, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.Format != nil && *overrides.Format != "" {
		cfg.Format = *overrides.Format
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.RedactSecrets != nil {
		cfg.RedactSecrets = *overrides.RedactSecrets
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

func validateSettings(cfg Settings) error {
	if !slices.Contains(knownFormats, cfg.Format) {
		return fmt.Errorf("format must be one of %s, got %q", strings.Join(knownFormats, ", "), cfg.Format)
	}
	if !slices.Contains(knownLogLevels, cfg.LogLevel) {
		return fmt.Errorf("log level must be one of %s, got %q", strings.Join(knownLogLevels, ", "), cfg.LogLevel)
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	return nil
}

// normalizeName folds case and surrounding space the way render.ParseFormat does.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
