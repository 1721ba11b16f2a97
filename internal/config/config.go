package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"easyserver/internal/paths"
)

// CurrentVersion is the only config schema version this build understands
const CurrentVersion = 1

// ConfigPathEnvVar points at an explicit config file
const ConfigPathEnvVar = "EASYSERVER_CONFIG_PATH"

// Config represents the complete EasyServer configuration
type Config struct {
	Version int `json:"version" mapstructure:"version" yaml:"version" toml:"version"`

	Server  ServerConfig  `json:"server" mapstructure:"server" yaml:"server" toml:"server"`
	Static  StaticConfig  `json:"static" mapstructure:"static" yaml:"static" toml:"static"`
	Session SessionConfig `json:"session" mapstructure:"session" yaml:"session" toml:"session"`
	Errors  ErrorsConfig  `json:"errors" mapstructure:"errors" yaml:"errors" toml:"errors"`
	Routes  RoutesConfig  `json:"routes" mapstructure:"routes" yaml:"routes" toml:"routes"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging" yaml:"logging" toml:"logging"`
}

// ServerConfig contains transport settings
type ServerConfig struct {
	Host           string `json:"host" mapstructure:"host" yaml:"host" toml:"host"`
	Port           int    `json:"port" mapstructure:"port" yaml:"port" toml:"port"`
	ReadTimeoutMs  int    `json:"readTimeoutMs" mapstructure:"readTimeoutMs" yaml:"readTimeoutMs" toml:"readTimeoutMs"`
	WriteTimeoutMs int    `json:"writeTimeoutMs" mapstructure:"writeTimeoutMs" yaml:"writeTimeoutMs" toml:"writeTimeoutMs"`
	IdleTimeoutMs  int    `json:"idleTimeoutMs" mapstructure:"idleTimeoutMs" yaml:"idleTimeoutMs" toml:"idleTimeoutMs"`
	MaxBodyBytes   int64  `json:"maxBodyBytes" mapstructure:"maxBodyBytes" yaml:"maxBodyBytes" toml:"maxBodyBytes"`
	Compress       bool   `json:"compress" mapstructure:"compress" yaml:"compress" toml:"compress"`
}

// StaticConfig contains the document root settings
type StaticConfig struct {
	Root       string   `json:"root" mapstructure:"root" yaml:"root" toml:"root"`
	IndexFiles []string `json:"indexFiles" mapstructure:"indexFiles" yaml:"indexFiles" toml:"indexFiles"`
}

// SessionConfig contains session cookie and store settings
type SessionConfig struct {
	CookieName string `json:"cookieName" mapstructure:"cookieName" yaml:"cookieName" toml:"cookieName"`
	Store      string `json:"store" mapstructure:"store" yaml:"store" toml:"store"` // "memory" or "sqlite"
	Path       string `json:"path,omitempty" mapstructure:"path" yaml:"path,omitempty" toml:"path,omitempty"`
}

// ErrorsConfig controls the error page
type ErrorsConfig struct {
	Verbose bool `json:"verbose" mapstructure:"verbose" yaml:"verbose" toml:"verbose"`
}

// RoutesConfig points at the route manifest
type RoutesConfig struct {
	Manifest string `json:"manifest,omitempty" mapstructure:"manifest" yaml:"manifest,omitempty" toml:"manifest,omitempty"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format" yaml:"format" toml:"format"` // "human" or "json"
	Level      string `json:"level" mapstructure:"level" yaml:"level" toml:"level"`
	File       bool   `json:"file" mapstructure:"file" yaml:"file" toml:"file"`
	MaxSize    string `json:"maxSize,omitempty" mapstructure:"maxSize" yaml:"maxSize,omitempty" toml:"maxSize,omitempty"` // e.g. "10MB"
	MaxBackups int    `json:"maxBackups,omitempty" mapstructure:"maxBackups" yaml:"maxBackups,omitempty" toml:"maxBackups,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			Host:           "localhost",
			Port:           8080,
			ReadTimeoutMs:  15000,
			WriteTimeoutMs: 15000,
			IdleTimeoutMs:  60000,
			MaxBodyBytes:   1 << 20,
			Compress:       false,
		},
		Static: StaticConfig{
			Root:       "www/",
			IndexFiles: []string{"index.html", "index.htm"},
		},
		Session: SessionConfig{
			CookieName: "EASY_SESSION_ID",
			Store:      "memory",
		},
		Errors: ErrorsConfig{
			Verbose: true,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Addr returns host:port
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// EnvOverride records one environment variable applied on top of the file
type EnvOverride struct {
	EnvVar     string `json:"envVar"`
	ConfigPath string `json:"configPath"`
	Value      string `json:"value"`
}

// LoadResult is the outcome of LoadConfigWithDetails
type LoadResult struct {
	Config       *Config
	ConfigPath   string // empty when defaults were used
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// configFileNames are tried, in order, inside .easyserver
var configFileNames = []string{"config.json", "config.yaml", "config.yml", "config.toml"}

// LoadConfig loads configuration from <baseDir>/.easyserver
func LoadConfig(baseDir string) (*Config, error) {
	result, err := LoadConfigWithDetails(baseDir)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads configuration and reports where it came from.
// Precedence: EASYSERVER_CONFIG_PATH, then <baseDir>/.easyserver/config.*,
// then defaults. EASYSERVER_* variables are applied last.
func LoadConfigWithDetails(baseDir string) (*LoadResult, error) {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		return LoadConfigFile(envPath)
	}

	for _, name := range configFileNames {
		path := filepath.Join(paths.ConfigDir(baseDir), name)
		if _, err := os.Stat(path); err == nil {
			return LoadConfigFile(path)
		}
	}

	cfg := DefaultConfig()
	return &LoadResult{
		Config:       cfg,
		UsedDefaults: true,
		EnvOverrides: applyEnvOverrides(cfg),
	}, nil
}

// LoadConfigFile loads an explicit config file and applies env overrides
func LoadConfigFile(path string) (*LoadResult, error) {
	cfg, err := loadConfigFromPath(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{
		Config:       cfg,
		ConfigPath:   path,
		EnvOverrides: applyEnvOverrides(cfg),
	}, nil
}

// loadConfigFromPath reads one file with viper; missing keys keep defaults
func loadConfigFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.readTimeoutMs", d.Server.ReadTimeoutMs)
	v.SetDefault("server.writeTimeoutMs", d.Server.WriteTimeoutMs)
	v.SetDefault("server.idleTimeoutMs", d.Server.IdleTimeoutMs)
	v.SetDefault("server.maxBodyBytes", d.Server.MaxBodyBytes)
	v.SetDefault("server.compress", d.Server.Compress)

	v.SetDefault("static.root", d.Static.Root)
	v.SetDefault("static.indexFiles", d.Static.IndexFiles)

	v.SetDefault("session.cookieName", d.Session.CookieName)
	v.SetDefault("session.store", d.Session.Store)
	v.SetDefault("session.path", d.Session.Path)

	v.SetDefault("errors.verbose", d.Errors.Verbose)
	v.SetDefault("routes.manifest", d.Routes.Manifest)

	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// Save writes the configuration to path. The encoding follows the
// extension: .yaml/.yml, .toml, anything else is JSON.
func (c *Config) Save(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := paths.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var cookieNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "must be between 0 and 65535"}
	}
	if c.Server.MaxBodyBytes <= 0 {
		return &ConfigError{Field: "server.maxBodyBytes", Message: "must be positive"}
	}
	if c.Static.Root == "" {
		return &ConfigError{Field: "static.root", Message: "must not be empty"}
	}
	if !cookieNamePattern.MatchString(c.Session.CookieName) {
		return &ConfigError{Field: "session.cookieName", Message: "must be letters, digits, '_' or '-'"}
	}
	switch c.Session.Store {
	case "memory", "sqlite":
	default:
		return &ConfigError{Field: "session.store", Message: fmt.Sprintf("unknown store %q", c.Session.Store)}
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
