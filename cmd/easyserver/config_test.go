package main

import (
	"os"
	"path/filepath"
	"testing"

	"easyserver/internal/config"
)

func TestIsEqual(t *testing.T) {
	tests := []struct {
		name string
		a    interface{}
		b    interface{}
		want bool
	}{
		{"equal strings", "hello", "hello", true},
		{"different strings", "hello", "world", false},
		{"equal ints", 42, 42, true},
		{"different ints", 42, 43, false},
		{"different bools", true, false, false},
		{"int vs string representation", 42, "42", true},
		{"nil values", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("isEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestComputeDiff(t *testing.T) {
	defaults, err := configMap(config.DefaultConfig())
	if err != nil {
		t.Fatalf("configMap: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Server.Port = 9000
	cfg.Session.Store = "sqlite"
	current, err := configMap(cfg)
	if err != nil {
		t.Fatalf("configMap: %v", err)
	}

	diff := computeDiff(current, defaults)
	if len(diff) != 2 {
		t.Fatalf("expected 2 changed sections, got %v", diff)
	}
	server, ok := diff["server"].(map[string]interface{})
	if !ok || len(server) != 1 {
		t.Fatalf("server diff = %v", diff["server"])
	}
	if server["port"] != float64(9000) {
		t.Errorf("server.port = %v, want 9000", server["port"])
	}
	if _, ok := diff["static"]; ok {
		t.Error("unchanged section should not appear in diff")
	}
}

func TestComputeDiff_NoChanges(t *testing.T) {
	defaults, _ := configMap(config.DefaultConfig())
	current, _ := configMap(config.DefaultConfig())

	if diff := computeDiff(current, defaults); len(diff) != 0 {
		t.Errorf("expected empty diff, got %v", diff)
	}
}

func TestFlatten(t *testing.T) {
	m := map[string]interface{}{
		"version": 1,
		"server": map[string]interface{}{
			"host": "localhost",
			"port": 8080,
		},
	}

	flat := flatten(m, "")
	if len(flat) != 3 {
		t.Fatalf("expected 3 keys, got %v", flat)
	}
	if flat["server.port"] != 8080 {
		t.Errorf("server.port = %v", flat["server.port"])
	}
	if flat["version"] != 1 {
		t.Errorf("version = %v", flat["version"])
	}
}

func TestRunConfigInit(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	configInitFormat = "yaml"
	configInitForce = false
	t.Cleanup(func() { configInitFormat = "json" })

	if err := runConfigInit(configInitCmd, nil); err != nil {
		t.Fatalf("runConfigInit: %v", err)
	}

	path := filepath.Join(dir, ".easyserver", "config.yaml")
	result, err := config.LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if result.Config.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", result.Config.Server.Port)
	}

	if err := runConfigInit(configInitCmd, nil); err == nil {
		t.Error("expected error when config already exists")
	}

	configInitFormat = "xml"
	if err := runConfigInit(configInitCmd, nil); err == nil {
		t.Error("expected error for unsupported format")
	}
}
