// Package httpd is the HTTP front of the server: it owns the route table,
// the session store and the static resolver, and dispatches every request
// to one of them.
package httpd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"easyserver/internal/config"
	"easyserver/internal/router"
	"easyserver/internal/session"
	"easyserver/internal/static"
	"easyserver/internal/version"
)

// Options configures a Server
type Options struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxBodyBytes  int64
	Compress      bool
	StaticRoot    string
	IndexFiles    []string
	CookieName    string
	VerboseErrors bool
}

// OptionsFromConfig maps the config file onto server options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Addr:          cfg.Addr(),
		ReadTimeout:   time.Duration(cfg.Server.ReadTimeoutMs) * time.Millisecond,
		WriteTimeout:  time.Duration(cfg.Server.WriteTimeoutMs) * time.Millisecond,
		IdleTimeout:   time.Duration(cfg.Server.IdleTimeoutMs) * time.Millisecond,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		Compress:      cfg.Server.Compress,
		StaticRoot:    cfg.Static.Root,
		IndexFiles:    cfg.Static.IndexFiles,
		CookieName:    cfg.Session.CookieName,
		VerboseErrors: cfg.Errors.Verbose,
	}
}

// Server represents the HTTP server
type Server struct {
	routes     *router.Table
	sessions   session.Store
	dispatcher *Dispatcher
	server     *http.Server
	addr       string
	logger     *slog.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(opts Options, store session.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if store == nil {
		store = session.NewMemoryStore()
	}
	if opts.CookieName == "" {
		opts.CookieName = session.DefaultCookieName
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = config.DefaultConfig().Server.MaxBodyBytes
	}

	resolver, err := static.NewResolver(opts.StaticRoot, opts.IndexFiles)
	if err != nil {
		return nil, err
	}

	s := &Server{
		routes:   router.NewTable(),
		sessions: store,
		addr:     opts.Addr,
		logger:   logger,
	}
	s.dispatcher = &Dispatcher{
		routes:       s.routes,
		sessions:     store,
		static:       resolver,
		cookieName:   opts.CookieName,
		maxBodyBytes: opts.MaxBodyBytes,
		verbose:      opts.VerboseErrors,
		logger:       logger,
	}

	handler := s.applyMiddleware(s.dispatcher, opts.Compress)
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}

	return s, nil
}

// HandleGet registers fn for GET requests to path
func (s *Server) HandleGet(path string, fn router.HandlerFunc) error {
	return s.routes.HandleGet(path, fn)
}

// HandlePost registers fn for POST requests to path
func (s *Server) HandlePost(path string, fn router.HandlerFunc) error {
	return s.routes.HandlePost(path, fn)
}

// Handle registers h for method and path
func (s *Server) Handle(method, path string, h router.Handler) error {
	return s.routes.Register(method, path, h)
}

// Routes returns the route table
func (s *Server) Routes() *router.Table {
	return s.routes
}

// Sessions returns the session store
func (s *Server) Sessions() session.Store {
	return s.sessions
}

// Start starts the HTTP server
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server",
		"addr", ln.Addr().String(),
		"routes", len(s.routes.Routes()),
		"staticRoot", s.dispatcher.static.Root(),
	)

	if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and closes the session store
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if err := s.sessions.Close(); err != nil {
		return fmt.Errorf("failed to close session store: %w", err)
	}

	s.logger.Info("Server shut down successfully")
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps the handler with middleware in the correct order
func (s *Server) applyMiddleware(handler http.Handler, compress bool) http.Handler {
	// Apply middleware in reverse order (last one wraps first)
	if compress {
		handler = CompressionMiddleware()(handler)
	}
	handler = RecoveryMiddleware(s.logger)(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = ServerHeaderMiddleware(version.ServerHeader())(handler)
	return handler
}
