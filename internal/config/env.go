package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
)

type envMapping struct {
	path string
	kind valueKind
}

// envVarMappings maps EASYSERVER_* variables to config paths
var envVarMappings = map[string]envMapping{
	"EASYSERVER_HOST":            {"server.host", kindString},
	"EASYSERVER_PORT":            {"server.port", kindInt},
	"EASYSERVER_MAX_BODY_BYTES":  {"server.maxBodyBytes", kindInt},
	"EASYSERVER_COMPRESS":        {"server.compress", kindBool},
	"EASYSERVER_STATIC_ROOT":     {"static.root", kindString},
	"EASYSERVER_SESSION_COOKIE":  {"session.cookieName", kindString},
	"EASYSERVER_SESSION_STORE":   {"session.store", kindString},
	"EASYSERVER_SESSION_PATH":    {"session.path", kindString},
	"EASYSERVER_VERBOSE_ERRORS":  {"errors.verbose", kindBool},
	"EASYSERVER_ROUTES_MANIFEST": {"routes.manifest", kindString},
	"EASYSERVER_LOG_LEVEL":       {"logging.level", kindString},
	"EASYSERVER_LOG_FORMAT":      {"logging.format", kindString},
	"EASYSERVER_LOG_FILE":        {"logging.file", kindBool},
	"EASYSERVER_LOG_MAX_SIZE":    {"logging.maxSize", kindString},
	"EASYSERVER_LOG_MAX_BACKUPS": {"logging.maxBackups", kindInt},
}

// GetSupportedEnvVars returns every recognized variable, sorted
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envVarMappings))
	for k := range envVarMappings {
		vars = append(vars, k)
	}
	sort.Strings(vars)
	return vars
}

// EnvVarPath returns the config path an environment variable overrides
func EnvVarPath(envVar string) (string, bool) {
	m, ok := envVarMappings[envVar]
	return m.path, ok
}

// applyEnvOverrides applies set EASYSERVER_* variables to cfg. Values that
// do not parse for their field are skipped and not reported.
func applyEnvOverrides(cfg *Config) []EnvOverride {
	var overrides []EnvOverride
	for _, envVar := range GetSupportedEnvVars() {
		raw, ok := os.LookupEnv(envVar)
		if !ok || raw == "" {
			continue
		}
		m := envVarMappings[envVar]

		var value interface{}
		switch m.kind {
		case kindInt:
			n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				continue
			}
			value = n
		case kindBool:
			b, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				continue
			}
			value = b
		default:
			value = raw
		}

		if applyOverride(cfg, m.path, value) {
			overrides = append(overrides, EnvOverride{EnvVar: envVar, ConfigPath: m.path, Value: raw})
		}
	}
	return overrides
}

// applyOverride sets one config path. It returns false for unknown paths
// and mismatched value types.
func applyOverride(cfg *Config, path string, value interface{}) bool {
	switch path {
	case "server.host":
		return setString(&cfg.Server.Host, value)
	case "server.port":
		return setInt(&cfg.Server.Port, value)
	case "server.maxBodyBytes":
		if n, ok := asInt64(value); ok {
			cfg.Server.MaxBodyBytes = n
			return true
		}
		return false
	case "server.compress":
		return setBool(&cfg.Server.Compress, value)
	case "static.root":
		return setString(&cfg.Static.Root, value)
	case "session.cookieName":
		return setString(&cfg.Session.CookieName, value)
	case "session.store":
		return setString(&cfg.Session.Store, value)
	case "session.path":
		return setString(&cfg.Session.Path, value)
	case "errors.verbose":
		return setBool(&cfg.Errors.Verbose, value)
	case "routes.manifest":
		return setString(&cfg.Routes.Manifest, value)
	case "logging.level":
		return setString(&cfg.Logging.Level, value)
	case "logging.format":
		return setString(&cfg.Logging.Format, value)
	case "logging.file":
		return setBool(&cfg.Logging.File, value)
	case "logging.maxSize":
		return setString(&cfg.Logging.MaxSize, value)
	case "logging.maxBackups":
		return setInt(&cfg.Logging.MaxBackups, value)
	}
	return false
}

func setString(dst *string, value interface{}) bool {
	s, ok := value.(string)
	if ok {
		*dst = s
	}
	return ok
}

func setBool(dst *bool, value interface{}) bool {
	b, ok := value.(bool)
	if ok {
		*dst = b
	}
	return ok
}

func setInt(dst *int, value interface{}) bool {
	n, ok := asInt64(value)
	if ok {
		*dst = int(n)
	}
	return ok
}

func asInt64(value interface{}) (int64, bool) {
	switch n := value.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
