package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const DefaultBaseURL = "http://localhost:5001"

type Config struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
	Backend  struct {
		BaseURL        string `json:"base_url"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	} `json:"backend"`
	Transcript struct {
		Enabled bool `json:"enabled"`
	} `json:"transcript"`
	Health struct {
		RefreshSchedule string `json:"refresh_schedule"`
	} `json:"health"`
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
}

// DefaultDir is where the config file and transcripts live unless
// overridden.
func DefaultDir() string {
	return filepath.Join(os.Getenv("HOME"), ".hrassist")
}

// DefaultPath is the config file used when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.json")
}

// Defaults is the configuration used for any key the file does not set.
func Defaults() *Config {
	cfg := &Config{
		DataDir:  DefaultDir(),
		LogLevel: "info",
	}
	cfg.Backend.BaseURL = DefaultBaseURL
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := Defaults()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment (highest precedence).
func applyEnv(cfg *Config) error {
	overrides := make(map[string]any)
	for key, env := range envOverrides {
		if v := os.Getenv(env); v != "" {
			overrides[key] = v
		}
	}
	if len(overrides) == 0 {
		return nil
	}
	nested, err := Unflatten(overrides)
	if err != nil {
		return err
	}
	return decode(nested, cfg)
}

// decode merges a nested map onto cfg through JSON, so type mismatches
// surface the same way a bad file would.
func decode(m map[string]any, cfg *Config) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks values that have the right type but are unusable.
func (c *Config) Validate() error {
	if !logLevels[c.LogLevel] {
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeout_seconds must not be negative")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an http(s) URL; got %q", c.Backend.BaseURL)
	}
	return nil
}

// Timeout is the backend request timeout. Zero keeps the transport default.
func (c *Config) Timeout() time.Duration {
	if c.Backend.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func writeDefaults(path string, cfg *Config) error {
	if err := Save(path, cfg); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// Save writes cfg to path atomically, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ToMap converts cfg to its nested JSON map form.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return m, nil
}

// GetValue reads one key as stored in the config file at path, falling
// back to the default when the file does not set it. Environment overrides
// are not applied.
func GetValue(path, key string) (any, error) {
	field, ok := LookupField(key)
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	flat, err := readFlat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return field.Default, nil
	}
	if err != nil {
		return nil, err
	}
	if v, ok := flat[key]; ok {
		return v, nil
	}
	return field.Default, nil
}

// SetValue writes one key into the existing config file at path. The key
// must exist in Config and raw must parse as the key's kind. The file is
// only rewritten when the result still loads and validates.
func SetValue(path, key, raw string) error {
	field, ok := LookupField(key)
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	v, err := field.Parse(raw)
	if err != nil {
		return err
	}
	return rewrite(path, func(flat map[string]any) { flat[key] = v })
}

// ResetValue removes key from the config file at path so the default
// applies again.
func ResetValue(path, key string) error {
	if _, ok := LookupField(key); !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	return rewrite(path, func(flat map[string]any) { delete(flat, key) })
}

func rewrite(path string, edit func(flat map[string]any)) error {
	flat, err := readFlat(path)
	if err != nil {
		return err
	}
	edit(flat)

	nested, err := Unflatten(flat)
	if err != nil {
		return err
	}
	cfg := Defaults()
	if err := decode(nested, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(nested, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFile(path, data)
}

func readFlat(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return Flatten(m), nil
}
