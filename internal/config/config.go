// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/nidoapp/nido/internal/change"
	"github.com/nidoapp/nido/internal/slotclock"
)

// Config holds the application configuration.
type Config struct {
	Care      CareConfig      `toml:"care"`
	Apply     ApplyConfig     `toml:"apply"`
	Providers ProvidersConfig `toml:"providers"`
	LLM       LLMConfig       `toml:"llm"`
	Storage   StorageConfig   `toml:"storage"`
}

// CareConfig holds the daily care window and balance settings.
type CareConfig struct {
	WindowStart           string  `toml:"window_start"` // e.g., "07:00"
	WindowEnd             string  `toml:"window_end"`   // e.g., "19:30"
	BalanceThresholdHours float64 `toml:"balance_threshold_hours"`
}

// ApplyConfig controls how change batches are applied.
type ApplyConfig struct {
	WindowPolicy string `toml:"window_policy"` // "reject" or "clamp"
}

// ProvidersConfig maps provider tokens to display names.
type ProvidersConfig struct {
	ParentA string `toml:"parent_a"`
	ParentB string `toml:"parent_b"`
	Nanny   string `toml:"nanny"`
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	Provider string `toml:"provider"` // "openai", "ollama"
	Model    string `toml:"model"`    // e.g., "gpt-4o"
	BaseURL  string `toml:"base_url"` // e.g., "http://localhost:11434"
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Care: CareConfig{
			WindowStart:           "07:00",
			WindowEnd:             "19:30",
			BalanceThresholdHours: 4.0,
		},
		Apply: ApplyConfig{
			WindowPolicy: "reject",
		},
		Providers: ProvidersConfig{
			ParentA: "Parent A",
			ParentB: "Parent B",
			Nanny:   "Nanny",
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
			BaseURL:  "",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "nido.db"
	}
	return filepath.Join(home, ".local", "share", "nido", "nido.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "nido", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NIDO_WINDOW_START"); v != "" {
		cfg.Care.WindowStart = v
	}
	if v := os.Getenv("NIDO_WINDOW_END"); v != "" {
		cfg.Care.WindowEnd = v
	}
	if v := os.Getenv("NIDO_WINDOW_POLICY"); v != "" {
		cfg.Apply.WindowPolicy = v
	}

	if v := os.Getenv("NIDO_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("NIDO_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("NIDO_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	if v := os.Getenv("NIDO_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := slotclock.ParseSlot(c.Care.WindowStart); err != nil {
		return fmt.Errorf("window_start: %w", err)
	}
	if _, err := slotclock.ParseSlot(c.Care.WindowEnd); err != nil {
		return fmt.Errorf("window_end: %w", err)
	}
	if c.Care.WindowStart >= c.Care.WindowEnd {
		return errors.New("window_start must be before window_end")
	}
	if c.Care.BalanceThresholdHours < 0 {
		return errors.New("balance_threshold_hours must not be negative")
	}
	if !change.WindowPolicy(c.Apply.WindowPolicy).Valid() {
		return fmt.Errorf("window_policy must be %q or %q, got %q",
			change.PolicyReject, change.PolicyClamp, c.Apply.WindowPolicy)
	}
	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	return nil
}

// Window returns the configured care window as slots.
func (c *Config) Window() (slotclock.Window, error) {
	start, err := slotclock.ParseSlot(c.Care.WindowStart)
	if err != nil {
		return slotclock.Window{}, fmt.Errorf("window_start: %w", err)
	}
	end, err := slotclock.ParseSlot(c.Care.WindowEnd)
	if err != nil {
		return slotclock.Window{}, fmt.Errorf("window_end: %w", err)
	}
	return slotclock.Window{Start: start, End: end}, nil
}

// WindowPolicy returns the configured apply policy.
func (c *Config) WindowPolicy() change.WindowPolicy {
	return change.WindowPolicy(c.Apply.WindowPolicy)
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
