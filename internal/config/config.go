// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/jeranaias/chatwidget/internal/util"
)

// Theme values accepted in the config file and the settings store.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// DefaultAPIURL is the service address used until the user saves another one.
const DefaultAPIURL = "http://localhost:8000"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the persisted widget configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// APIURL is the chatbot service base URL. Empty means unconfigured.
	APIURL string `toml:"api_url" json:"api_url"`

	// Theme is "light" or "dark". Empty lets the terminal background decide.
	Theme string `toml:"theme" json:"theme"`

	Window  WindowConfig  `toml:"window" json:"window"`
	Network NetworkConfig `toml:"network" json:"network"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// WindowConfig sizes the widget, in terminal cells.
type WindowConfig struct {
	Width       int  `toml:"width" json:"width"`
	Height      int  `toml:"height" json:"height"`
	AlwaysOnTop bool `toml:"always_on_top" json:"always_on_top"`
}

// NetworkConfig tunes the chatbot client.
type NetworkConfig struct {
	TimeoutSecs int     `toml:"timeout_secs" json:"timeout_secs"`
	RateLimit   float64 `toml:"rate_limit" json:"rate_limit"`
	RateBurst   int     `toml:"rate_burst" json:"rate_burst"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	// Path of the log file. Empty means ~/.chatwidget/chatwidget.log.
	Path string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",
		APIURL:  DefaultAPIURL,
		Window: WindowConfig{
			Width:       56,
			Height:      28,
			AlwaysOnTop: false,
		},
		Network: NetworkConfig{
			TimeoutSecs: 30,
			RateLimit:   2,
			RateBurst:   4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatwidget configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatwidget"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.chatwidget/config.toml, falling back to config.json and then
// to defaults. A .env file in the working directory and CHATWIDGET_*
// variables are applied on top. The returned path is where settings will be
// saved.
func Load() (*Config, string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return nil, "", err
	}

	if _, statErr := os.Stat(tomlPath); statErr == nil {
		cfg, err := LoadFromPath(tomlPath)
		return cfg, tomlPath, err
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			cfg, err := LoadFromPath(jsonPath)
			// Settings are always written back as TOML.
			return cfg, tomlPath, err
		}
	}

	cfg := Default()
	if err := finish(cfg); err != nil {
		return nil, "", err
	}
	return cfg, tomlPath, nil
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg. Keys absent from the file keep cfg's values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes path over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func finish(cfg *Config) error {
	if err := LoadDotEnv(".env"); err != nil {
		return err
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// SetDefaults fills zero values with defaults. APIURL is left alone: an
// explicit empty value means the user cleared it.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Window.Width == 0 {
		c.Window.Width = defaults.Window.Width
	}
	if c.Window.Height == 0 {
		c.Window.Height = defaults.Window.Height
	}
	if c.Network.TimeoutSecs == 0 {
		c.Network.TimeoutSecs = defaults.Network.TimeoutSecs
	}
	if c.Network.RateLimit == 0 {
		c.Network.RateLimit = defaults.Network.RateLimit
	}
	if c.Network.RateBurst == 0 {
		c.Network.RateBurst = defaults.Network.RateBurst
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	c.Theme = strings.ToLower(strings.TrimSpace(c.Theme))
	c.Log.Level = strings.ToLower(c.Log.Level)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# chatwidget configuration file")
	fmt.Fprintln(&buf, "# Written by chatwidget when settings are saved")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if err := ValidateAPIURL(c.APIURL); err != nil {
		errs = append(errs, ValidationError{Field: "api_url", Message: err.Error()})
	}
	if !ValidTheme(c.Theme) && c.Theme != "" {
		errs = append(errs, ValidationError{Field: "theme", Message: fmt.Sprintf("must be %q or %q, got %q", ThemeLight, ThemeDark, c.Theme)})
	}
	if c.Window.Width < 30 {
		errs = append(errs, ValidationError{Field: "window.width", Message: "must be at least 30 columns"})
	}
	if c.Window.Height < 10 {
		errs = append(errs, ValidationError{Field: "window.height", Message: "must be at least 10 rows"})
	}
	if c.Network.TimeoutSecs < 1 || c.Network.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{Field: "network.timeout_secs", Message: "must be between 1 and 600"})
	}
	if c.Network.RateLimit <= 0 {
		errs = append(errs, ValidationError{Field: "network.rate_limit", Message: "must be positive"})
	}
	if c.Network.RateBurst < 1 {
		errs = append(errs, ValidationError{Field: "network.rate_burst", Message: "must be at least 1"})
	}
	if !validLogLevels[c.Log.Level] {
		errs = append(errs, ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateAPIURL accepts an empty string or an absolute http(s) URL.
func ValidateAPIURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("not a valid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// ValidTheme reports whether theme is one of the stored theme values.
func ValidTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

type envOverrides struct {
	APIURL      string `env:"CHATWIDGET_API_URL"`
	Theme       string `env:"CHATWIDGET_THEME"`
	LogLevel    string `env:"CHATWIDGET_LOG_LEVEL"`
	LogPath     string `env:"CHATWIDGET_LOG_PATH"`
	TimeoutSecs int    `env:"CHATWIDGET_TIMEOUT_SECS"`
}

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CHATWIDGET_API_URL: overrides api_url
//   - CHATWIDGET_THEME: overrides theme
//   - CHATWIDGET_LOG_LEVEL: overrides log.level
//   - CHATWIDGET_LOG_PATH: overrides log.path
//   - CHATWIDGET_TIMEOUT_SECS: overrides network.timeout_secs
func (c *Config) ApplyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if o.APIURL != "" {
		c.APIURL = o.APIURL
	}
	if o.Theme != "" {
		c.Theme = o.Theme
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.LogPath != "" {
		c.Log.Path = o.LogPath
	}
	if o.TimeoutSecs != 0 {
		c.Network.TimeoutSecs = o.TimeoutSecs
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Keys lists every key accepted by Get and Set.
var Keys = []string{
	"version",
	"api_url",
	"theme",
	"window.width",
	"window.height",
	"window.always_on_top",
	"network.timeout_secs",
	"network.rate_limit",
	"network.rate_burst",
	"log.level",
	"log.path",
}

// Get retrieves a configuration value using dot notation (e.g., "window.width").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				boolVal = strings.EqualFold(strVal, "yes") || strings.EqualFold(strVal, "on")
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("cannot assign nil")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a copy of the configuration. Config holds only value
// fields, so a struct copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
