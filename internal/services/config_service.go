// Package services provides the completion clients, persistence layers and
// conversation orchestration for Esmalte. Services are plain constructed
// instances wired together by the application composition root; there is no
// global registry.
package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"esmalte/internal/data/embedded"
	"esmalte/internal/logger"
)

// Fixed completion configuration. Model selection and sampling temperature
// are constants of the product, not runtime parameters.
const (
	DefaultProvider    = "groq"
	DefaultModel       = "meta-llama/llama-4-scout-17b-16e-instruct"
	DefaultTemperature = 0.5

	// SessionQueryLimit bounds how many sessions a single history query may
	// return.
	SessionQueryLimit = 50

	// CardDelay staggers consecutive suggestion cards after the reveal
	// completes.
	CardDelay = 150 * time.Millisecond
)

// Strings holds the user-facing strings and the assistant system preamble,
// loaded from the embedded YAML asset.
type Strings struct {
	SystemPrompt     string `yaml:"system_prompt"`
	Apology          string `yaml:"apology"`
	DefaultTitle     string `yaml:"default_title"`
	SuggestionsLabel string `yaml:"suggestions_label"`
	Welcome          string `yaml:"welcome"`
}

// Config carries the resolved runtime configuration. Values are loaded in
// priority order: process environment > local .env > config-dir .env >
// defaults.
type Config struct {
	Provider    string
	Model       string
	Temperature float64

	TypewriterInterval time.Duration

	// IdentityEndpoint is the base URL of the identity provider. Empty
	// disables sign-in.
	IdentityEndpoint string

	// ConfigDir is where the local history slot, the cached identity and
	// the session database live.
	ConfigDir string

	Strings Strings

	values map[string]string
}

// LoadConfig resolves the runtime configuration. The config directory is
// created if missing.
func LoadConfig() (*Config, error) {
	logger.ServiceOperation("config", "load", "starting")

	strs := Strings{}
	if err := yaml.Unmarshal(embedded.StringsData, &strs); err != nil {
		return nil, fmt.Errorf("failed to parse embedded strings: %w", err)
	}

	configDir, err := userConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config dir %s: %w", configDir, err)
	}

	cfg := &Config{
		Provider:           DefaultProvider,
		Model:              DefaultModel,
		Temperature:        DefaultTemperature,
		TypewriterInterval: 20 * time.Millisecond,
		ConfigDir:          configDir,
		Strings:            strs,
		values:             make(map[string]string),
	}

	// Lowest priority first so later sources overwrite earlier ones.
	cfg.loadDotEnv(filepath.Join(configDir, ".env"))
	cfg.loadDotEnv(filepath.Join(".", ".env"))
	cfg.loadProcessEnv()

	cfg.applyOverrides()

	logger.ServiceOperation("config", "load", "completed")
	return cfg, nil
}

// userConfigDir returns the Esmalte configuration directory.
func userConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(base, "esmalte"), nil
}

// loadDotEnv merges a .env file into the value map. A missing or unparsable
// file is not an error.
func (c *Config) loadDotEnv(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		logger.Warn("Ignoring unparsable .env file", "path", path, "error", err)
		return
	}
	for key, value := range envMap {
		c.values[key] = value
	}
	logger.Debug("Loaded .env file", "path", path, "entries", len(envMap))
}

// loadProcessEnv merges the relevant process environment variables, which
// take precedence over .env files.
func (c *Config) loadProcessEnv() {
	keys := []string{
		"ESMALTE_PROVIDER",
		"ESMALTE_MODEL",
		"ESMALTE_TEMPERATURE",
		"ESMALTE_TYPEWRITER_MS",
		"ESMALTE_IDENTITY_ENDPOINT",
		"GROQ_API_KEY",
		"OPENAI_API_KEY",
		"OPENROUTER_API_KEY",
		"ANTHROPIC_API_KEY",
		"GOOGLE_API_KEY",
	}
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			c.values[key] = value
		}
	}
}

// applyOverrides resolves typed settings from the merged value map.
func (c *Config) applyOverrides() {
	if v, ok := c.values["ESMALTE_PROVIDER"]; ok && v != "" {
		c.Provider = v
	}
	if v, ok := c.values["ESMALTE_MODEL"]; ok && v != "" {
		c.Model = v
	}
	if v, ok := c.values["ESMALTE_TEMPERATURE"]; ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = f
		}
	}
	if v, ok := c.values["ESMALTE_TYPEWRITER_MS"]; ok && v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.TypewriterInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v, ok := c.values["ESMALTE_IDENTITY_ENDPOINT"]; ok && v != "" {
		c.IdentityEndpoint = v
	}
}

// GetValue returns a raw configuration value from the merged sources.
func (c *Config) GetValue(key string) string {
	return c.values[key]
}

// SetValue sets a configuration value. Primarily for tests.
func (c *Config) SetValue(key, value string) {
	c.values[key] = value
}

// APIKey returns the API key for the given provider, or an error when it is
// not configured.
func (c *Config) APIKey(provider string) (string, error) {
	var key string
	switch provider {
	case "groq":
		key = c.values["GROQ_API_KEY"]
	case "openai":
		key = c.values["OPENAI_API_KEY"]
	case "openrouter":
		key = c.values["OPENROUTER_API_KEY"]
	case "anthropic":
		key = c.values["ANTHROPIC_API_KEY"]
	case "gemini":
		key = c.values["GOOGLE_API_KEY"]
	default:
		return "", fmt.Errorf("unknown provider '%s'", provider)
	}
	if key == "" {
		return "", fmt.Errorf("API key not configured for provider %s", provider)
	}
	return key, nil
}

// HistoryPath is the local single-slot history file for anonymous usage.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.ConfigDir, "history.json")
}

// IdentityPath is the cached identity record for signed-in usage.
func (c *Config) IdentityPath() string {
	return filepath.Join(c.ConfigDir, "identity.json")
}

// SessionDBPath is the session store database file.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.ConfigDir, "sessions.db")
}
