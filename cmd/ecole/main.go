// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/olegiv/ecole-go/internal/api"
	"github.com/olegiv/ecole-go/internal/config"
	"github.com/olegiv/ecole-go/internal/handler"
	"github.com/olegiv/ecole-go/internal/i18n"
	"github.com/olegiv/ecole-go/internal/imaging"
	"github.com/olegiv/ecole-go/internal/logging"
	"github.com/olegiv/ecole-go/internal/metrics"
	"github.com/olegiv/ecole-go/internal/middleware"
	"github.com/olegiv/ecole-go/internal/model"
	"github.com/olegiv/ecole-go/internal/portal"
	"github.com/olegiv/ecole-go/internal/render"
	"github.com/olegiv/ecole-go/internal/scheduler"
	"github.com/olegiv/ecole-go/internal/session"
	"github.com/olegiv/ecole-go/internal/store"
	"github.com/olegiv/ecole-go/internal/validation"
	"github.com/olegiv/ecole-go/internal/version"
	"github.com/olegiv/ecole-go/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   string
	appGitCommit string
	appBuildTime string
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "École des Génies - web portal\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ECOLE_SESSION_SECRET        Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ECOLE_API_URL               Remote API base URL (default: http://localhost:8001)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ECOLE_DB_PATH               SQLite database path (default: ./data/ecole.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ECOLE_SERVER_PORT           Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ECOLE_ENV                   Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ECOLE_REDIS_URL             Redis URL for the session store (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ECOLE_ADMIN_RESET_SHORTCUT  email:password for the admin reset shortcut (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Printf("ecole %s\n", info)
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func run(info version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(textHandler))

	if err := i18n.Init(slog.Default()); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Upgrade logger to also write WARN and ERROR logs to the event log
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("starting ecole", info.Fields()...)

	queries := store.New(db)

	// Sessions
	var sessionManager *scs.SessionManager
	if cfg.UseRedisSessions() {
		opts := session.DefaultRedisOptions()
		opts.URL = cfg.RedisURL
		opts.Prefix = cfg.RedisPrefix
		redisStore, err := session.NewRedisStore(opts)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisStore.Close() }()
		sessionManager = session.NewWithStore(redisStore, cfg.IsDevelopment())
		slog.Info("session manager initialized", "backend", "redis")
	} else {
		sessionManager = session.New(db, cfg.IsDevelopment())
		slog.Info("session manager initialized", "backend", "sqlite")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Remote API
	client, err := api.New(cfg.APIURL,
		api.WithTimeout(cfg.APITimeoutDuration()),
		api.WithRecorder(collector),
	)
	if err != nil {
		return fmt.Errorf("creating api client: %w", err)
	}
	slog.Info("remote api configured", "url", client.BaseURL())

	validator, err := validation.New()
	if err != nil {
		return fmt.Errorf("initializing validator: %w", err)
	}

	// Background jobs
	schedCfg := scheduler.Config{
		Events:    queries,
		Recorder:  collector,
		Retention: cfg.EventRetention(),
		Logger:    logger,
	}
	if cfg.APIProbe {
		schedCfg.Health = client
	}
	sched := scheduler.New(schedCfg)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Templates
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS: templatesFS,
		IsDev:       cfg.IsDevelopment(),
		Version:     info.Label(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	// Portal controller options applied on every request
	portalOpts := []portal.Option{
		portal.WithValidator(validator),
		portal.WithImageNormalizer(imaging.NewNormalizer()),
		portal.WithLogger(logger),
		portal.WithNoticeTTL(cfg.NoticeTTLDuration()),
		portal.WithMaxUpload(cfg.MaxUploadBytes()),
		portal.WithNoticeObserver(func(s model.Severity) { collector.ObserveNotice(string(s)) }),
	}
	shortcutEmail, shortcutPassword, shortcut := cfg.ResetShortcut()
	if shortcut {
		portalOpts = append(portalOpts, portal.WithResetShortcut(shortcutEmail, shortcutPassword))
	}

	csrfKey, err := cfg.CSRFKey()
	if err != nil {
		return err
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()

	// Handlers
	pagesHandler := handler.NewPagesHandler(renderer, validator, queries)
	authHandler := handler.NewAuthHandler(renderer, loginProtection)
	accountHandler := handler.NewAccountHandler(renderer, cfg.MaxUploadBytes())
	adminHandler := handler.NewAdminHandler(renderer, queries)
	languageHandler := handler.NewLanguageHandler(sessionManager)
	var probe handler.ProbeSource
	if cfg.APIProbe {
		probe = sched
	}
	healthHandler := handler.NewHealthHandler(db, probe, info.Label())

	// Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Metrics(collector))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	// Probes, metrics and assets do not touch the session
	r.Get(handler.RouteHealth, healthHandler.Health)
	r.Get(handler.RouteHealthLive, healthHandler.Liveness)
	r.Get(handler.RouteHealthReady, healthHandler.Readiness)
	r.Handle(handler.RouteMetrics, metrics.Handler(registry))

	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	// Static assets: cache for 1 day
	r.Handle(handler.RouteStatic, middleware.StaticCache(86400)(http.StripPrefix("/static/dist/", http.FileServer(http.FS(staticFS)))))

	r.Group(func(r chi.Router) {
		r.Use(middleware.TimeoutExcept(30*time.Second, handler.RouteDownload))
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.Language(sessionManager))
		r.Use(middleware.Device)
		csrfCfg := middleware.DefaultCSRFConfig(csrfKey, cfg.IsDevelopment())
		csrfCfg.ErrorHandler = http.HandlerFunc(pagesHandler.CSRFFailed)
		r.Use(middleware.CSRF(csrfCfg))
		r.Use(middleware.Portal(middleware.PortalConfig{
			Sessions:   sessionManager,
			API:        client,
			Options:    portalOpts,
			ProfileTTL: cfg.ProfileTTLDuration(),
			Logger:     logger,
		}))
		r.Use(middleware.NoStore)

		r.Get(handler.RouteRoot, pagesHandler.Home)
		r.Get(handler.RouteAbout, pagesHandler.About)
		r.Get(handler.RouteContact, pagesHandler.Contact)
		r.Get(handler.RoutePremium, pagesHandler.Premium)
		r.Post(handler.RouteLanguage, languageHandler.SetLanguage)

		r.Get(handler.RouteAuth, authHandler.AuthForm)
		r.Get(handler.RouteResetPassword, authHandler.ResetPasswordForm)
		r.Post(handler.RouteLogout, authHandler.Logout)

		// Form submissions reachable without an account are rate limited per IP
		r.Group(func(r chi.Router) {
			r.Use(loginProtection.Middleware(http.HandlerFunc(pagesHandler.TooManyRequests)))
			r.Post(handler.RouteLogin, authHandler.Login)
			r.Post(handler.RouteRegister, authHandler.Register)
			r.Post(handler.RouteForgotPassword, authHandler.ForgotPassword)
			r.Post(handler.RouteResetPassword, authHandler.ResetPassword)
			r.Post(handler.RouteContact, pagesHandler.ContactSubmit)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Get(handler.RouteDashboard, accountHandler.Dashboard)
			r.Get(handler.RouteDownload, accountHandler.Download)
			r.Post(handler.RouteSubscription, accountHandler.Subscribe)
			r.Post(handler.RouteVerification, accountHandler.UploadVerification)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(http.HandlerFunc(pagesHandler.Forbidden)))
				r.Get(handler.RouteAdmin, adminHandler.Dashboard)
				r.Post(handler.RouteAdminSheets, adminHandler.CreateSheet)
				r.Get(handler.RouteAdminSheetDelete, adminHandler.DeleteConfirm)
				r.Post(handler.RouteAdminSheetDelete, adminHandler.Delete)
				r.Post(handler.RouteAdminResetPassword, adminHandler.ResetPassword)
				if shortcut {
					r.Post(handler.RouteAdminResetShortcut, adminHandler.ResetShortcut)
				}
			})
		})

		r.NotFound(pagesHandler.NotFound)
		r.MethodNotAllowed(pagesHandler.MethodNotAllowed)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for uploads and slow downloads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
