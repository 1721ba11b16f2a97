package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"easyserver/internal/config"
	"easyserver/internal/paths"
)

var (
	configFormat     string
	configShowDiff   bool
	configInitFormat string
	configInitForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage EasyServer configuration",
	Long:  "View and manage EasyServer configuration stored in .easyserver/config.json",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration after file and environment overrides.

Examples:
  easyserver config show                 # Pretty-print current config
  easyserver config show --format json   # Raw JSON output
  easyserver config show --diff          # Only show non-default values`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write the default configuration to .easyserver/config.<format>.

Examples:
  easyserver config init
  easyserver config init --format yaml
  easyserver config init --format toml --force`,
	RunE: runConfigInit,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Long:  "Display all supported EASYSERVER_* environment variable overrides",
	Run:   runConfigEnv,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (json, human)")
	configShowCmd.Flags().BoolVar(&configShowDiff, "diff", false, "Only show non-default values")

	configInitCmd.Flags().StringVar(&configInitFormat, "format", "json", "File format (json, yaml, toml)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	ConfigPath   string                 `json:"configPath,omitempty"`
	UsedDefaults bool                   `json:"usedDefaults"`
	EnvOverrides []config.EnvOverride   `json:"envOverrides,omitempty"`
	Config       map[string]interface{} `json:"config"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	result, err := loadConfig(mustGetBaseDir())
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if configFormat == "json" {
		return outputConfigJSON(result, configShowDiff)
	}
	return outputConfigHuman(result, configShowDiff)
}

// configMap converts cfg to its JSON object form
func configMap(cfg *config.Config) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func outputConfigJSON(result *config.LoadResult, diffOnly bool) error {
	current, err := configMap(result.Config)
	if err != nil {
		return err
	}

	if diffOnly {
		defaults, err := configMap(config.DefaultConfig())
		if err != nil {
			return err
		}
		current = computeDiff(current, defaults)
	}

	response := ConfigShowResponse{
		ConfigPath:   result.ConfigPath,
		UsedDefaults: result.UsedDefaults,
		EnvOverrides: result.EnvOverrides,
		Config:       current,
	}

	output, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

func outputConfigHuman(result *config.LoadResult, diffOnly bool) error {
	fmt.Println("EasyServer Configuration")
	fmt.Println(strings.Repeat("─", 50))

	if result.UsedDefaults {
		fmt.Println("Source: defaults (no config file found)")
	} else if result.ConfigPath != "" {
		fmt.Printf("Source: %s\n", result.ConfigPath)
	}

	if len(result.EnvOverrides) > 0 {
		fmt.Println("\nEnvironment Overrides:")
		for _, ov := range result.EnvOverrides {
			fmt.Printf("  %s=%s → %s\n", ov.EnvVar, ov.Value, ov.ConfigPath)
		}
	}
	fmt.Println()

	current, err := configMap(result.Config)
	if err != nil {
		return err
	}
	defaults, err := configMap(config.DefaultConfig())
	if err != nil {
		return err
	}

	flatCurrent := flatten(current, "")
	flatDefaults := flatten(defaults, "")
	keys := make([]string, 0, len(flatCurrent))
	for k := range flatCurrent {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if diffOnly {
		fmt.Println("Modified Settings (differs from defaults):")
		fmt.Println()
	}

	shown := 0
	for _, k := range keys {
		value, def := flatCurrent[k], flatDefaults[k]
		if diffOnly && isEqual(value, def) {
			continue
		}
		printConfigValue(k, value, def)
		shown++
	}
	if diffOnly && shown == 0 {
		fmt.Println("  (no modifications - using all defaults)")
	}

	fmt.Println()
	fmt.Println("Use 'easyserver config show --format json' for full configuration")
	fmt.Println("Use 'easyserver config env' to see supported environment variables")
	return nil
}

func printConfigValue(name string, value, defaultValue interface{}) {
	modified := ""
	if !isEqual(value, defaultValue) {
		modified = fmt.Sprintf(" (default: %v)", defaultValue)
	}
	fmt.Printf("%s: %v%s\n", name, value, modified)
}

// flatten turns nested maps into dotted keys
func flatten(m map[string]interface{}, prefix string) map[string]interface{} {
	out := make(map[string]interface{})
	for k, v := range m {
		key := prefix + k
		if nested, ok := v.(map[string]interface{}); ok {
			for nk, nv := range flatten(nested, key+".") {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	ext := strings.ToLower(configInitFormat)
	switch ext {
	case "json", "yaml", "toml":
	default:
		return fmt.Errorf("unsupported format %q (use json, yaml or toml)", configInitFormat)
	}

	path := filepath.Join(paths.ConfigDir(mustGetBaseDir()), "config."+ext)
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runConfigEnv(cmd *cobra.Command, args []string) {
	fmt.Println("Supported EasyServer Environment Variables")
	fmt.Println(strings.Repeat("─", 50))
	fmt.Println()

	categories := map[string][]envVarInfo{
		"General": {
			{config.ConfigPathEnvVar, "Path to config file", "string"},
		},
		"Server": {
			{"EASYSERVER_HOST", "Host to bind to", "string"},
			{"EASYSERVER_PORT", "Port to listen on", "int"},
			{"EASYSERVER_MAX_BODY_BYTES", "Largest accepted POST body", "int"},
			{"EASYSERVER_COMPRESS", "Gzip responses", "bool"},
			{"EASYSERVER_STATIC_ROOT", "Static document root", "string"},
			{"EASYSERVER_ROUTES_MANIFEST", "Route manifest path", "string"},
			{"EASYSERVER_VERBOSE_ERRORS", "Stack traces in 500 pages", "bool"},
		},
		"Session": {
			{"EASYSERVER_SESSION_COOKIE", "Session cookie name", "string"},
			{"EASYSERVER_SESSION_STORE", "Session store (memory, sqlite)", "string"},
			{"EASYSERVER_SESSION_PATH", "SQLite session database path", "string"},
		},
		"Logging": {
			{"EASYSERVER_LOG_LEVEL", "Log level (debug, info, warn, error)", "string"},
			{"EASYSERVER_LOG_FORMAT", "Log format (human, json)", "string"},
			{"EASYSERVER_LOG_FILE", "Also write .easyserver/logs/server.log", "bool"},
			{"EASYSERVER_LOG_MAX_SIZE", "Rotate log file at this size (e.g. 10MB)", "string"},
			{"EASYSERVER_LOG_MAX_BACKUPS", "Rotated log files to keep", "int"},
		},
	}

	order := []string{"General", "Server", "Session", "Logging"}
	for _, cat := range order {
		fmt.Printf("%s:\n", cat)
		for _, v := range categories[cat] {
			fmt.Printf("  %-30s %s (%s)\n", v.name, v.desc, v.varType)
		}
		fmt.Println()
	}

	fmt.Println("Example usage:")
	fmt.Println("  EASYSERVER_PORT=9000 easyserver serve")
	fmt.Println("  EASYSERVER_LOG_LEVEL=debug easyserver serve")
	fmt.Println("  EASYSERVER_CONFIG_PATH=/etc/easyserver/config.yaml easyserver serve")
}

type envVarInfo struct {
	name    string
	desc    string
	varType string
}

func isEqual(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func computeDiff(current, defaults map[string]interface{}) map[string]interface{} {
	diff := make(map[string]interface{})
	for key, currentVal := range current {
		defaultVal, exists := defaults[key]
		if !exists {
			diff[key] = currentVal
			continue
		}

		currentMap, currentIsMap := currentVal.(map[string]interface{})
		defaultMap, defaultIsMap := defaultVal.(map[string]interface{})
		if currentIsMap && defaultIsMap {
			if nested := computeDiff(currentMap, defaultMap); len(nested) > 0 {
				diff[key] = nested
			}
		} else if !isEqual(currentVal, defaultVal) {
			diff[key] = currentVal
		}
	}
	return diff
}
