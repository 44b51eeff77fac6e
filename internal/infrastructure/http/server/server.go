package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	empresahandler "github.com/leonardou92/validarPago/internal/adapters/http/empresa"
	healthhandler "github.com/leonardou92/validarPago/internal/adapters/http/health"
	wizardhandler "github.com/leonardou92/validarPago/internal/adapters/http/wizard"
	"github.com/leonardou92/validarPago/internal/infrastructure/http/middleware"
)

// Server wires the wizard, company and health endpoints behind the
// shared middleware stack.
type Server struct {
	log        *slog.Logger
	httpServer *http.Server
}

// Options holds everything the server needs to be assembled.
type Options struct {
	Addr            string
	Logger          *slog.Logger
	Wizard          *wizardhandler.Handler
	Health          *healthhandler.Handler
	Empresa         *empresahandler.Handler
	Authenticator   *middleware.JWTAuthenticator // optional, nil disables inbound auth
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// New creates the HTTP server with all routes mounted.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Wizard == nil {
		return nil, errors.New("wizard handler is required")
	}
	if opts.Health == nil {
		return nil, errors.New("health handler is required")
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(opts.Logger))
	if opts.Authenticator != nil {
		r.Use(opts.Authenticator.Middleware)
	}

	r.Get("/health", opts.Health.Status)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/sesion", opts.Wizard.Routes())
		if opts.Empresa != nil {
			r.Get("/empresa", opts.Empresa.GetInfo)
		}
	})

	httpServer := &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}

	return &Server{
		log:        opts.Logger,
		httpServer: httpServer,
	}, nil
}

// Run starts the server and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		_ = s.httpServer.Shutdown(context.Background())
		return nil
	case err := <-errCh:
		return err
	}
}
