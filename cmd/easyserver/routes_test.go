package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunRoutes(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "routes.toml")
	data := `
[[route]]
method = "GET"
path = "/api/test"
body = "API1: {{ param \"a\" }}"
description = "echo a"

[[route]]
method = "post"
path = "/api/test2"
body = "API2: {{ param \"b\" }}"
`
	if err := os.WriteFile(manifest, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	routesManifest = manifest
	t.Cleanup(func() { routesManifest = "" })

	for _, format := range []string{"human", "json"} {
		routesFormat = format
		if err := runRoutes(routesCmd, nil); err != nil {
			t.Errorf("runRoutes(%s): %v", format, err)
		}
	}
	routesFormat = "human"
}

func TestRunRoutes_InvalidManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "routes.toml")
	data := `
[[route]]
method = "GET"
path = "/broken"
body = "{{ param "
`
	if err := os.WriteFile(manifest, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	routesManifest = manifest
	t.Cleanup(func() { routesManifest = "" })

	if err := runRoutes(routesCmd, nil); err == nil {
		t.Error("expected error for template that does not parse")
	}
}
