package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	auditpg "github.com/leonardou92/validarPago/internal/adapters/audit/postgres"
	"github.com/leonardou92/validarPago/internal/adapters/billing/portal"
	"github.com/leonardou92/validarPago/internal/adapters/company"
	empresahandler "github.com/leonardou92/validarPago/internal/adapters/http/empresa"
	healthhandler "github.com/leonardou92/validarPago/internal/adapters/http/health"
	wizardhandler "github.com/leonardou92/validarPago/internal/adapters/http/wizard"
	apphealth "github.com/leonardou92/validarPago/internal/application/health"
	appsession "github.com/leonardou92/validarPago/internal/application/session"
	"github.com/leonardou92/validarPago/internal/core/audit"
	"github.com/leonardou92/validarPago/internal/infrastructure/config"
	"github.com/leonardou92/validarPago/internal/infrastructure/database"
	infrahttp "github.com/leonardou92/validarPago/internal/infrastructure/http"
	"github.com/leonardou92/validarPago/internal/infrastructure/http/middleware"
	"github.com/leonardou92/validarPago/internal/infrastructure/http/server"
	"github.com/leonardou92/validarPago/internal/infrastructure/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Audit trail is optional: the wizard works without a database, it just
	// loses the payment attempt history.
	var auditRepo audit.Repository
	if cfg.Database.Enabled && cfg.Audit.Enabled {
		pool, err := database.NewPool(ctx, database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Database,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			log.Warn("database unavailable, payment attempt audit disabled", "error", err)
		} else {
			defer pool.Close()
			if err := database.RunMigrations(ctx, pool, log); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			auditRepo = auditpg.NewRepository(pool, log)
			log.Info("payment attempt audit enabled", "database", cfg.Database.Database)
		}
	}

	portalHTTP := infrahttp.NewTracedClient(infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: cfg.Portal.APITimeout}), log)
	gateway := portal.NewClient(cfg.Portal.BaseURL, cfg.Portal.Token, portalHTTP, log)

	orch := appsession.NewOrchestrator(appsession.Config{
		Gateway:      gateway,
		AuditRepo:    auditRepo,
		Logger:       log,
		PollInterval: cfg.Push.PollInterval,
		SettleDelay:  cfg.Push.SettleDelay,
	})
	defer orch.Close()

	healthSvc := apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, orch)

	var empresa *empresahandler.Handler
	if cfg.CompanyInfo.BaseURL != "" {
		companyClient := company.NewClient(cfg.CompanyInfo.BaseURL, cfg.CompanyInfo.Token, cfg.CompanyInfo.APITimeout, log)
		empresa = empresahandler.NewHandler(companyClient, log)
	} else {
		log.Info("company info endpoint not configured")
	}

	var authenticator *middleware.JWTAuthenticator
	if cfg.Auth.Enabled {
		authenticator, err = middleware.NewJWTAuthenticator(cfg.Auth, log)
		if err != nil {
			return fmt.Errorf("init jwt authenticator: %w", err)
		}
		defer authenticator.Close()
	}

	srv, err := server.New(server.Options{
		Addr:            cfg.HTTP.Address(),
		Logger:          log,
		Wizard:          wizardhandler.NewHandler(orch, log),
		Health:          healthhandler.NewHandler(healthSvc),
		Empresa:         empresa,
		Authenticator:   authenticator,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	log.Info("starting payment validation service",
		"addr", cfg.HTTP.Address(),
		"environment", cfg.App.Environment,
		"auth_enabled", cfg.Auth.Enabled)

	return srv.Run(ctx)
}
