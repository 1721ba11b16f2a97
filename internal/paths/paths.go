package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ConfigDirName holds per-site state next to the document root
	ConfigDirName = ".easyserver"

	// ConfigFileName is the default config file inside ConfigDirName
	ConfigFileName = "config.json"

	// SessionDBName is the default SQLite session database file
	SessionDBName = "sessions.db"
)

// ConfigDir returns <base>/.easyserver
func ConfigDir(base string) string {
	return filepath.Join(base, ConfigDirName)
}

// ConfigPath returns <base>/.easyserver/config.json
func ConfigPath(base string) string {
	return filepath.Join(ConfigDir(base), ConfigFileName)
}

// LogDir returns <base>/.easyserver/logs
func LogDir(base string) string {
	return filepath.Join(ConfigDir(base), "logs")
}

// ServerLogPath returns the path of the server log file
func ServerLogPath(base string) string {
	return filepath.Join(LogDir(base), "server.log")
}

// SessionDBPath returns the default SQLite session database path
func SessionDBPath(base string) string {
	return filepath.Join(ConfigDir(base), SessionDBName)
}

// EnsureDir creates dir and its parents if missing
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// CanonicalizePath converts a path to a root-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to root
// - Converts backslashes to forward slashes
func CanonicalizePath(path string, root string) (string, error) {
	resolved, err := evalSymlinks(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	rootResolved, err := evalSymlinks(filepath.Clean(root))
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsWithinRoot reports whether path, after cleaning and symlink
// resolution, stays inside root
func IsWithinRoot(path string, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// evalSymlinks resolves symlinks in the part of path that can be walked.
// A tail that cannot be resolved (missing, below a regular file, or in an
// unreadable directory) is kept as written on top of its resolved parent,
// so such paths still canonicalize and fail later when opened.
func evalSymlinks(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir, base := filepath.Split(path)
	dir = filepath.Clean(dir)
	if dir == path || base == "" {
		return path, nil
	}
	parent, err := evalSymlinks(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, base), nil
}
