// Package config loads codeforge configuration from .forge/config.yaml,
// applying defaults and FORGE_*/provider environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all codeforge configuration.
type Config struct {
	// LLM configuration (the text-generation oracle)
	LLM LLMConfig `yaml:"llm"`

	// Storage configures the record store and filesystem mirror.
	Storage StorageConfig `yaml:"storage"`

	// Sandbox configures out-of-process code execution.
	Sandbox SandboxConfig `yaml:"sandbox"`

	// Confirmations configures the pending-confirmation gate.
	Confirmations ConfirmationsConfig `yaml:"confirmations"`

	// Logging configures the category file logger.
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the text-generation oracle.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// StorageConfig configures the SQLite store and the mirror root.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	MirrorRoot   string `yaml:"mirror_root"`
}

// SandboxConfig configures the Python execution sandbox.
type SandboxConfig struct {
	PythonBinary   string `yaml:"python_binary"`
	Timeout        string `yaml:"timeout"`
	MaxOutputBytes int64  `yaml:"max_output_bytes"`
}

// ConfirmationsConfig configures pending-confirmation retention.
// MaxAge empty or "0" means entries live until explicitly resolved.
type ConfirmationsConfig struct {
	MaxAge string `yaml:"max_age"`
}

// LoggingConfig configures the category logger (read again by
// internal/logging to avoid an import cycle).
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  "60s",
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(".forge", "forge.db"),
			MirrorRoot:   filepath.Join(".forge", "workspace"),
		},
		Sandbox: SandboxConfig{
			PythonBinary:   "python3",
			Timeout:        "30s",
			MaxOutputBytes: 1 << 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Provider API keys, in priority order.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "gemini"
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if key := os.Getenv("FORGE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}

	if path := os.Getenv("FORGE_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if root := os.Getenv("FORGE_MIRROR_ROOT"); root != "" {
		c.Storage.MirrorRoot = root
	}
	if bin := os.Getenv("FORGE_PYTHON"); bin != "" {
		c.Sandbox.PythonBinary = bin
	}
}

// GetLLMTimeout returns the oracle timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// GetSandboxTimeout returns the sandbox timeout as a duration.
func (c *Config) GetSandboxTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sandbox.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetConfirmationMaxAge returns the pending-confirmation max age,
// or zero when entries never expire.
func (c *Config) GetConfirmationMaxAge() time.Duration {
	if c.Confirmations.MaxAge == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Confirmations.MaxAge)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ValidProviders lists all supported oracle providers.
var ValidProviders = []string{"gemini", "openai"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set GEMINI_API_KEY, OPENAI_API_KEY, or FORGE_API_KEY)")
	}

	valid := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	return nil
}
