package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"easyserver/internal/router"
)

var (
	routesManifest string
	routesFormat   string
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List routes declared in the route manifest",
	Long: `Validate the route manifest and list its routes.

Examples:
  easyserver routes                      # Manifest from config or ./routes.toml
  easyserver routes --manifest api.toml
  easyserver routes --format json`,
	RunE: runRoutes,
}

func init() {
	routesCmd.Flags().StringVar(&routesManifest, "manifest", "", "Route manifest (default from config, then ./"+router.ManifestFile+")")
	routesCmd.Flags().StringVar(&routesFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	path := routesManifest
	if path == "" {
		result, err := loadConfig(mustGetBaseDir())
		if err != nil {
			return err
		}
		path = result.Config.Routes.Manifest
	}
	if path == "" {
		path = router.ManifestFile
	}

	manifest, err := router.LoadManifest(path)
	if err != nil {
		return err
	}

	// Compile every body so template errors surface here, not at serve time
	table := router.NewTable()
	if err := manifest.Apply(table); err != nil {
		return err
	}

	if routesFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest.Routes)
	}

	fmt.Printf("Routes in %s\n\n", path)
	for _, r := range manifest.Routes {
		if r.Description != "" {
			fmt.Printf("  %-5s %-30s %s\n", r.Method, r.Path, r.Description)
		} else {
			fmt.Printf("  %-5s %s\n", r.Method, r.Path)
		}
	}
	fmt.Printf("\n%d route(s)\n", len(table.Routes()))
	return nil
}
