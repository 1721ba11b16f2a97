package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv unsets every recognized variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for envVar := range envVarMappings {
		t.Setenv(envVar, "")
	}
	t.Setenv(ConfigPathEnvVar, "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Static.Root != "www/" {
		t.Errorf("Static.Root = %q, want www/", cfg.Static.Root)
	}
	if len(cfg.Static.IndexFiles) != 2 || cfg.Static.IndexFiles[0] != "index.html" {
		t.Errorf("Static.IndexFiles = %v", cfg.Static.IndexFiles)
	}
	if cfg.Session.CookieName != "EASY_SESSION_ID" {
		t.Errorf("Session.CookieName = %q", cfg.Session.CookieName)
	}
	if cfg.Session.Store != "memory" {
		t.Errorf("Session.Store = %q, want memory", cfg.Session.Store)
	}
	if !cfg.Errors.Verbose {
		t.Error("Errors.Verbose should default to true")
	}
	if cfg.Server.Compress {
		t.Error("Server.Compress should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Addr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 9000
	if got := cfg.Addr(); got != "0.0.0.0:9000" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad version", func(c *Config) { c.Version = 99 }, "version"},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }, "server.maxBodyBytes"},
		{"empty root", func(c *Config) { c.Static.Root = "" }, "static.root"},
		{"cookie name with space", func(c *Config) { c.Session.CookieName = "a b" }, "session.cookieName"},
		{"empty cookie name", func(c *Config) { c.Session.CookieName = "" }, "session.cookieName"},
		{"unknown store", func(c *Config) { c.Session.Store = "redis" }, "session.store"},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "server.port", Message: "bad"}
	want := "config error in field 'server.port': bad"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Port != DefaultConfig().Server.Port {
		t.Errorf("Server.Port = %d, want default", cfg.Server.Port)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, ".easyserver")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	content := `{
		"version": 1,
		"server": {"port": 9090},
		"static": {"root": "public/"},
		"errors": {"verbose": false}
	}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	cfg := result.Config

	if result.UsedDefaults {
		t.Error("UsedDefaults should be false when a file exists")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Static.Root != "public/" {
		t.Errorf("Static.Root = %q, want public/", cfg.Static.Root)
	}
	if cfg.Errors.Verbose {
		t.Error("Errors.Verbose should be false from file")
	}
	// Unset keys keep their defaults
	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, want localhost", cfg.Server.Host)
	}
	if cfg.Session.CookieName != "EASY_SESSION_ID" {
		t.Errorf("Session.CookieName = %q", cfg.Session.CookieName)
	}
	if cfg.Server.MaxBodyBytes != 1<<20 {
		t.Errorf("Server.MaxBodyBytes = %d", cfg.Server.MaxBodyBytes)
	}
}

func TestLoadConfig_YAMLAndTOML(t *testing.T) {
	clearEnv(t)

	files := map[string]string{
		"config.yaml": "version: 1\nserver:\n  port: 7001\nsession:\n  store: sqlite\n",
		"config.toml": "version = 1\n[server]\nport = 7002\n[session]\nstore = \"sqlite\"\n",
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			tmpDir := t.TempDir()
			dir := filepath.Join(tmpDir, ".easyserver")
			if err := os.MkdirAll(dir, 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
				t.Fatal(err)
			}

			cfg, err := LoadConfig(tmpDir)
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if cfg.Session.Store != "sqlite" {
				t.Errorf("Session.Store = %q, want sqlite", cfg.Session.Store)
			}
			if cfg.Server.Port != 7001 && cfg.Server.Port != 7002 {
				t.Errorf("Server.Port = %d", cfg.Server.Port)
			}
		})
	}
}

func TestConfig_Save(t *testing.T) {
	clearEnv(t)

	for _, name := range []string{"config.json", "config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			tmpDir := t.TempDir()
			path := filepath.Join(tmpDir, ".easyserver", name)

			cfg := DefaultConfig()
			cfg.Server.Port = 4321
			cfg.Routes.Manifest = "routes.toml"
			if err := cfg.Save(path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			loaded, err := LoadConfig(tmpDir)
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if loaded.Server.Port != 4321 {
				t.Errorf("Server.Port = %d, want 4321", loaded.Server.Port)
			}
			if loaded.Routes.Manifest != "routes.toml" {
				t.Errorf("Routes.Manifest = %q", loaded.Routes.Manifest)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config, overrides []EnvOverride)
	}{
		{
			name:    "logging level override",
			envVars: map[string]string{"EASYSERVER_LOG_LEVEL": "debug"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
				}
				if len(overrides) != 1 {
					t.Errorf("len(overrides) = %d, want 1", len(overrides))
				}
			},
		},
		{
			name:    "port int override",
			envVars: map[string]string{"EASYSERVER_PORT": "9999"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Server.Port != 9999 {
					t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
				}
			},
		},
		{
			name:    "verbose bool override",
			envVars: map[string]string{"EASYSERVER_VERBOSE_ERRORS": "false"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Errors.Verbose {
					t.Error("Errors.Verbose should be false")
				}
			},
		},
		{
			name: "multiple overrides",
			envVars: map[string]string{
				"EASYSERVER_SESSION_STORE":  "sqlite",
				"EASYSERVER_COMPRESS":       "true",
				"EASYSERVER_MAX_BODY_BYTES": "2048",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Session.Store != "sqlite" {
					t.Errorf("Session.Store = %q", cfg.Session.Store)
				}
				if !cfg.Server.Compress {
					t.Error("Server.Compress should be true")
				}
				if cfg.Server.MaxBodyBytes != 2048 {
					t.Errorf("Server.MaxBodyBytes = %d", cfg.Server.MaxBodyBytes)
				}
				if len(overrides) != 3 {
					t.Errorf("len(overrides) = %d, want 3", len(overrides))
				}
			},
		},
		{
			name:    "invalid int ignored",
			envVars: map[string]string{"EASYSERVER_PORT": "not-a-number"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Server.Port != 8080 {
					t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
				}
				if len(overrides) != 0 {
					t.Errorf("len(overrides) = %d, want 0", len(overrides))
				}
			},
		},
		{
			name:    "invalid bool ignored",
			envVars: map[string]string{"EASYSERVER_COMPRESS": "maybe"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Server.Compress {
					t.Error("Server.Compress should keep its default")
				}
				if len(overrides) != 0 {
					t.Errorf("len(overrides) = %d, want 0", len(overrides))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := DefaultConfig()
			overrides := applyEnvOverrides(cfg)
			tt.validate(t, cfg, overrides)
		})
	}
}

func TestLoadConfigWithDetails(t *testing.T) {
	clearEnv(t)

	result, err := LoadConfigWithDetails(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if !result.UsedDefaults {
		t.Error("UsedDefaults should be true when no config file exists")
	}
	if result.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty string", result.ConfigPath)
	}
}

func TestLoadConfigWithDetails_EnvConfigPath(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.json")
	if err := os.WriteFile(configPath, []byte(`{"version": 1, "server": {"port": 5555}}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)

	result, err := LoadConfigWithDetails(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if result.ConfigPath != configPath {
		t.Errorf("ConfigPath = %q, want %q", result.ConfigPath, configPath)
	}
	if result.Config.Server.Port != 5555 {
		t.Errorf("Server.Port = %d, want 5555", result.Config.Server.Port)
	}
}

func TestLoadConfigWithDetails_EnvOverridesApplied(t *testing.T) {
	clearEnv(t)
	t.Setenv("EASYSERVER_LOG_LEVEL", "error")
	t.Setenv("EASYSERVER_STATIC_ROOT", "/srv/www/")

	result, err := LoadConfigWithDetails(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if result.Config.Static.Root != "/srv/www/" {
		t.Errorf("Static.Root = %q", result.Config.Static.Root)
	}
	if len(result.EnvOverrides) != 2 {
		t.Errorf("len(EnvOverrides) = %d, want 2", len(result.EnvOverrides))
	}
}

func TestLoadConfigWithDetails_InvalidConfigPath(t *testing.T) {
	clearEnv(t)
	t.Setenv(ConfigPathEnvVar, "/nonexistent/config.json")

	if _, err := LoadConfigWithDetails(t.TempDir()); err == nil {
		t.Error("LoadConfigWithDetails() should fail for a missing EASYSERVER_CONFIG_PATH")
	}
}

func TestLoadConfigWithDetails_InvalidJSON(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, ".easyserver")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{ invalid }"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfigWithDetails(tmpDir); err == nil {
		t.Error("LoadConfigWithDetails() should fail for invalid JSON")
	}
}

func TestGetSupportedEnvVars(t *testing.T) {
	vars := GetSupportedEnvVars()
	if len(vars) != len(envVarMappings) {
		t.Fatalf("got %d vars, want %d", len(vars), len(envVarMappings))
	}
	for i := 1; i < len(vars); i++ {
		if vars[i-1] > vars[i] {
			t.Errorf("vars not sorted at %d: %s > %s", i, vars[i-1], vars[i])
		}
	}
	for _, v := range vars {
		if !strings.HasPrefix(v, "EASYSERVER_") {
			t.Errorf("unexpected variable %s", v)
		}
	}
	if path, ok := EnvVarPath("EASYSERVER_PORT"); !ok || path != "server.port" {
		t.Errorf("EnvVarPath(EASYSERVER_PORT) = %q, %v", path, ok)
	}
}

func TestApplyOverride_InvalidPaths(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value interface{}
	}{
		{"unknown top-level", "unknown", "value"},
		{"section only", "server", "value"},
		{"host wrong type", "server.host", 123},
		{"port wrong type", "server.port", "string"},
		{"compress wrong type", "server.compress", "yes"},
		{"verbose wrong type", "errors.verbose", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if applyOverride(DefaultConfig(), tt.path, tt.value) {
				t.Errorf("applyOverride(%q) should return false", tt.path)
			}
		})
	}
}
