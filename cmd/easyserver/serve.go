package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"easyserver/internal/config"
	"easyserver/internal/httpd"
	"easyserver/internal/paths"
	"easyserver/internal/router"
	"easyserver/internal/session"
	"easyserver/internal/slogutil"
)

var (
	serveHost          string
	servePort          int
	serveRoot          string
	serveRoutes        string
	serveVerboseErrors bool
	serveSessionStore  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server. Routes come from the route manifest, everything
else is served from the static root.

Examples:
  easyserver serve                          # Serve www/ on localhost:8080
  easyserver serve --root public/ --port 9000
  easyserver serve --routes routes.toml --session-store sqlite`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config: localhost)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config: 8080)")
	serveCmd.Flags().StringVar(&serveRoot, "root", "", "Static document root")
	serveCmd.Flags().StringVar(&serveRoutes, "routes", "", "Route manifest (TOML)")
	serveCmd.Flags().BoolVar(&serveVerboseErrors, "verbose-errors", true, "Include stack traces in 500 pages")
	serveCmd.Flags().StringVar(&serveSessionStore, "session-store", "", "Session store: memory or sqlite")
}

// applyServeFlags copies explicitly set flags over the loaded config
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = serveHost
	}
	if flags.Changed("port") {
		cfg.Server.Port = servePort
	}
	if flags.Changed("root") {
		cfg.Static.Root = serveRoot
	}
	if flags.Changed("routes") {
		cfg.Routes.Manifest = serveRoutes
	}
	if flags.Changed("verbose-errors") {
		cfg.Errors.Verbose = serveVerboseErrors
	}
	if flags.Changed("session-store") {
		cfg.Session.Store = serveSessionStore
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	baseDir := mustGetBaseDir()

	result, err := loadConfig(baseDir)
	if err != nil {
		return err
	}
	cfg := result.Config
	applyServeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	factory := slogutil.NewLoggerFactory(baseDir, cfg, cliLevel())
	defer func() { _ = factory.Close() }()

	logger, err := factory.ServerLogger()
	if err != nil {
		logger.Warn("Log file unavailable, logging to stderr only", "error", err.Error())
	}
	for _, ov := range result.EnvOverrides {
		logger.Debug("Environment override", "env", ov.EnvVar, "path", ov.ConfigPath)
	}

	store, err := openSessionStore(cfg, baseDir, logger)
	if err != nil {
		return err
	}

	server, err := httpd.NewServer(httpd.OptionsFromConfig(cfg), store, logger)
	if err != nil {
		_ = store.Close()
		return err
	}

	if cfg.Routes.Manifest != "" {
		manifest, err := router.LoadManifest(cfg.Routes.Manifest)
		if err != nil {
			_ = store.Close()
			return err
		}
		if err := manifest.Apply(server.Routes()); err != nil {
			_ = store.Close()
			return err
		}
		logger.Info("Loaded route manifest",
			"path", cfg.Routes.Manifest,
			"routes", len(manifest.Routes),
		)
	}

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("EasyServer listening on http://%s\n", cfg.Addr())
		fmt.Println("Press Ctrl+C to stop")
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		_ = store.Close()
		if err != nil {
			logger.Error("Server error", "error", err.Error())
			return err
		}
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", "error", err.Error())
			return err
		}
		logger.Info("Server stopped gracefully")
	}

	return nil
}

// openSessionStore builds the store named by session.store
func openSessionStore(cfg *config.Config, baseDir string, logger *slog.Logger) (session.Store, error) {
	switch cfg.Session.Store {
	case "sqlite":
		path := cfg.Session.Path
		if path == "" {
			path = paths.SessionDBPath(baseDir)
		} else if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		logger.Info("Using SQLite session store", "path", path)
		return session.OpenSQLiteStore(path, logger)
	default:
		return session.NewMemoryStore(), nil
	}
}
