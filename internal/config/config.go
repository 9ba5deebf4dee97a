// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

// package config loads Tabula's settings with viper: defaults, YAML config
// file discovery, environment variables and cobra flags, in ascending
// precedence. It also defines the profile format that describes a browsable
// API (endpoint, parameter dialect, data path, columns).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toeirei/tabula/internal/model"
	"github.com/toeirei/tabula/internal/source"
)

// Profile describes one browsable API collection.
type Profile struct {
	// Endpoint is the collection URL, e.g. https://dummyjson.com/users.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// SearchPath is appended to the endpoint when a search is active.
	SearchPath string `mapstructure:"search_path" yaml:"search_path,omitempty"`
	// DataSrc is the dot path to the row array in the response envelope.
	DataSrc string `mapstructure:"data_src" yaml:"data_src,omitempty"`
	// TotalField is the dot path to the collection total.
	TotalField string `mapstructure:"total_field" yaml:"total_field,omitempty"`
	// Mode selects processing: "server" fetches page by page, "client"
	// fetches everything once and pages locally.
	Mode string `mapstructure:"mode" yaml:"mode,omitempty"`
	// PageSize overrides the global page size for this profile.
	PageSize int `mapstructure:"page_size" yaml:"page_size,omitempty"`
	// Params maps query state onto the API's parameter names.
	Params source.ParamMap `mapstructure:"params" yaml:"params"`
	// Columns define the table layout, including computed columns.
	Columns []model.Column `mapstructure:"columns" yaml:"columns"`
}

// RESTConfig converts the profile into the data-source configuration.
func (p Profile) RESTConfig() source.RESTConfig {
	return source.RESTConfig{
		BaseURL:    p.Endpoint,
		SearchPath: p.SearchPath,
		DataSrc:    p.DataSrc,
		TotalField: p.TotalField,
		Params:     p.Params,
	}
}

// Config is the application configuration unmarshalled by viper.
type Config struct {
	Language string `mapstructure:"language" yaml:"language"`
	Debug    bool   `mapstructure:"debug" yaml:"debug,omitempty"`
	PageSize int    `mapstructure:"page_size" yaml:"page_size"`
	Profile  string `mapstructure:"profile" yaml:"profile"`

	Database struct {
		Type string `mapstructure:"type" yaml:"type"`
		DSN  string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`

	Cache struct {
		Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
		Addr       string `mapstructure:"addr" yaml:"addr"`
		TTLSeconds int    `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
	} `mapstructure:"cache" yaml:"cache"`

	Profiles map[string]Profile `mapstructure:"profiles" yaml:"profiles"`
}

// DummyJSONProfile is the built-in demo profile: the DummyJSON users
// collection, 208 records at 10 per page.
func DummyJSONProfile() Profile {
	return Profile{
		Endpoint:   "https://dummyjson.com/users",
		SearchPath: "search",
		DataSrc:    "users",
		TotalField: "total",
		Mode:       "server",
		PageSize:   10,
		Params:     source.DummyJSONParams,
		Columns: []model.Column{
			{Key: "id", Title: "ID", Width: 5, Format: model.FormatNumber, Sortable: true},
			{Key: "fullName", Title: "Name", Width: 24, Template: "{firstName} {lastName}"},
			{Key: "age", Title: "Age", Width: 5, Format: model.FormatNumber, Sortable: true},
			{Key: "email", Title: "Email", Width: 28, Sortable: true},
			{Key: "image", Title: "Avatar", Width: 36, Format: model.FormatURL},
		},
	}
}

// ActiveProfile resolves the configured profile, falling back to the
// built-in demo profile when nothing is configured.
func (c *Config) ActiveProfile() (string, Profile, error) {
	name := c.Profile
	if name == "" {
		name = "dummyjson"
	}
	if p, ok := c.Profiles[name]; ok {
		return name, p, nil
	}
	if name == "dummyjson" {
		return name, DummyJSONProfile(), nil
	}
	return "", Profile{}, fmt.Errorf("unknown profile %q", name)
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		// System-wide configuration paths
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Tabula")
		default: // Linux, macOS, etc.
			configDir = "/etc/tabula"
		}
	} else {
		// User-specific configuration paths
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "tabula")
	}

	return filepath.Join(configDir, "tabula.yaml"), nil
}

// LoadConfig builds the configuration from defaults, discovered config
// files, TABULA_* environment variables and the command's flags.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Set up file search (tabula.yaml)
	v.SetConfigName("tabula")
	v.SetConfigType("yaml")

	// 3. An explicit --config path has the highest precedence for
	// file-based configuration.
	if additionalConfigFilePath != nil && *additionalConfigFilePath != "" {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	// 4. Add standard config locations
	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".") // Look for tabula.yaml in current dir

	// 5. Read in the primary config file.
	if err := v.ReadInConfig(); err != nil {
		// It's okay if the file is not found, but other errors are fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// 6. Read from environment variables
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("tabula")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 7. CLI flags
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return c, err
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// Defaults returns the built-in configuration defaults.
func Defaults() map[string]any {
	return map[string]any{
		"language":      "en",
		"page_size":     10,
		"profile":       "dummyjson",
		"database.type": "sqlite",
		"database.dsn":  "./tabula.db",
		"cache.enabled": false,
		"cache.addr":    "localhost:6379",
	}
}

// WriteConfigFile writes the configuration as YAML to the user or system
// config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	return os.WriteFile(path, data, 0600)
}
