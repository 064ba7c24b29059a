// Package config loads interviewd settings from an optional YAML file with
// environment overrides layered on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr            = ":8000"
	defaultProvider        = "openai"
	defaultModel           = "gpt-4o-mini"
	defaultQuestionCount   = 2
	defaultRetryAttempts   = 3
	defaultGenerateTimeout = 30 * time.Second
)

// Duration wraps time.Duration so YAML can carry values like "30s".
type Duration time.Duration

// UnmarshalYAML accepts either a Go duration string or integer milliseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		dur, perr := time.ParseDuration(raw)
		if perr != nil {
			return fmt.Errorf("config: bad duration %q: %w", raw, perr)
		}
		*d = Duration(dur)
		return nil
	}
	var ms int64
	if err := value.Decode(&ms); err != nil {
		return fmt.Errorf("config: bad duration node: %w", err)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Telemetry configures the optional OTLP trace exporter.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

// Config is the full process configuration.
type Config struct {
	ListenAddr      string        `yaml:"listen_addr"`
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"api_key"`
	QuestionCount   int           `yaml:"question_count"`
	RetryAttempts   int           `yaml:"retry_attempts"`
	GenerateTimeout Duration      `yaml:"generate_timeout"`
	PromptDir       string        `yaml:"prompt_dir"`
	Telemetry       Telemetry     `yaml:"telemetry"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:      defaultAddr,
		Provider:        defaultProvider,
		Model:           defaultModel,
		QuestionCount:   defaultQuestionCount,
		RetryAttempts:   defaultRetryAttempts,
		GenerateTimeout: Duration(defaultGenerateTimeout),
	}
}

// Load reads path when non-empty, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.validate()
}

func (c *Config) applyEnv() {
	c.ListenAddr = getEnv("INTERVIEWD_ADDR", c.ListenAddr)
	c.Provider = getEnv("INTERVIEWD_PROVIDER", c.Provider)
	c.Model = getEnv("INTERVIEWD_MODEL", c.Model)
	c.APIKey = getEnv("INTERVIEWD_API_KEY", c.APIKey)
	c.QuestionCount = getInt("INTERVIEWD_QUESTION_COUNT", c.QuestionCount)
	c.RetryAttempts = getInt("INTERVIEWD_RETRY_ATTEMPTS", c.RetryAttempts)
	c.GenerateTimeout = Duration(getDuration("INTERVIEWD_GENERATE_TIMEOUT", c.GenerateTimeout.Std()))
	c.PromptDir = getEnv("INTERVIEWD_PROMPT_DIR", c.PromptDir)
	c.Telemetry.OTLPEndpoint = getEnv("INTERVIEWD_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)
}

func (c *Config) validate() error {
	switch c.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.QuestionCount < 1 {
		return fmt.Errorf("config: question_count must be positive, got %d", c.QuestionCount)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("config: retry_attempts must be positive, got %d", c.RetryAttempts)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return fallback
	}
	return val
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if dur, err := time.ParseDuration(raw); err == nil {
		return dur
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
