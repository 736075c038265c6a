// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/olegiv/vetpl-go/internal/apiclient"
	"github.com/olegiv/vetpl-go/internal/auth"
	"github.com/olegiv/vetpl-go/internal/cache"
	"github.com/olegiv/vetpl-go/internal/config"
	"github.com/olegiv/vetpl-go/internal/content"
	"github.com/olegiv/vetpl-go/internal/demo"
	"github.com/olegiv/vetpl-go/internal/forms"
	"github.com/olegiv/vetpl-go/internal/geoip"
	"github.com/olegiv/vetpl-go/internal/handler"
	"github.com/olegiv/vetpl-go/internal/logging"
	"github.com/olegiv/vetpl-go/internal/metrics"
	"github.com/olegiv/vetpl-go/internal/middleware"
	"github.com/olegiv/vetpl-go/internal/render"
	"github.com/olegiv/vetpl-go/internal/scheduler"
	"github.com/olegiv/vetpl-go/internal/service"
	"github.com/olegiv/vetpl-go/internal/session"
	"github.com/olegiv/vetpl-go/web"
)

// Form submissions allowed per client: one every two seconds, bursts of five.
const (
	submitRPS   = 0.5
	submitBurst = 5
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	// Running the binary without a subcommand serves.
	rootCmd.RunE = serveCmd.RunE
}

// app holds everything the router needs.
type app struct {
	cfg            *config.Config
	db             *sql.DB
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	metrics        *metrics.Metrics
	auth           *auth.Service
	views          *handler.Views
	events         *service.EventService
	api            *apiclient.Client
	careers        *service.CareersService
	engine         *forms.Engine
	registry       *scheduler.Registry
	throttle       *middleware.LoginThrottle
	library        *content.Library
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(newLogHandler(cfg, os.Stdout))
	slog.SetDefault(logger)
	slog.Info("starting", "version", versionInfo().String(), "env", cfg.Env)

	wiped, err := demo.ResetIfDue(cfg.DBPath, filepath.Dir(cfg.DBPath), cfg.DemoResetInterval, logger)
	if err != nil {
		return fmt.Errorf("demo reset: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	// Upgrade logger to also write WARN and ERROR logs to the event log
	logger = slog.New(logging.NewEventLogHandler(newLogHandler(cfg, os.Stdout), db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.DoSeed || wiped {
		if err := seedUsers(ctx, db, logger); err != nil {
			return err
		}
	}

	a := &app{cfg: cfg, db: db, logger: logger}

	a.sessionManager = session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip database unavailable, countries will not be recorded", "error", err)
	}
	defer func() { _ = resolver.Close() }()

	a.events = service.NewEventService(db, logger)

	if err := a.initAuth(resolver); err != nil {
		return err
	}

	cacher, err := cache.New(cache.Config{
		Type:            cfg.CacheType,
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.ListingTTL,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() {
		if err := cacher.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	a.careers = service.NewCareersService(a.api, cacher, cfg.ListingTTL, logger)
	a.engine = forms.NewEngine(forms.EngineOptions{
		Claims:  cacher,
		Logger:  logger,
		Metrics: a.metrics,
	})

	if err := a.initViews(); err != nil {
		return err
	}

	a.registry = scheduler.NewRegistry(db, logger)
	sched := scheduler.New(scheduler.Options{
		Registry:       a.registry,
		Listings:       a.careers,
		Events:         a.events,
		EventRetention: cfg.EventRetention,
		GeoIP:          geoIPReloader(resolver),
		Logger:         logger,
	})
	if err := sched.Start(context.Background()); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	throttleCfg := middleware.DefaultLoginThrottleConfig()
	throttleCfg.Logger = logger
	throttleCfg.Metrics = a.metrics
	a.throttle = middleware.NewLoginThrottle(throttleCfg)
	defer a.throttle.Close()

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           a.routes(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("server listening", "addr", cfg.ServerAddr(), "backend", a.api.BaseURL(), "identity", cfg.IdentityBackend)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("server stopped gracefully")
	}
	return nil
}

// initAuth builds the backend client and the identity provider picked by
// configuration. The client reads tokens through the auth service, which
// is assigned before any request is served.
func (a *app) initAuth(countries auth.CountryResolver) error {
	api, err := apiclient.New(apiclient.Options{
		BaseURL:       a.cfg.APIBaseURL,
		Timeout:       a.cfg.APITimeout,
		MaxRetries:    a.cfg.APIRetries,
		RetryInterval: 500 * time.Millisecond,
		TokenSource: func(ctx context.Context) (string, bool) {
			st := middleware.StoreFromContext(ctx)
			if st == nil {
				return "", false
			}
			return a.auth.Token(ctx, st)
		},
		OnUnauthorized: func(ctx context.Context) {
			if st := middleware.StoreFromContext(ctx); st != nil {
				a.auth.Expire(ctx, st)
			}
		},
		Logger:    a.logger,
		Metrics:   a.metrics,
		UserAgent: "vetpl/" + appVersion,
	})
	if err != nil {
		return fmt.Errorf("initializing API client: %w", err)
	}
	a.api = api

	var (
		provider auth.IdentityProvider
		verify   = true
	)
	switch a.cfg.IdentityBackend {
	case config.BackendSQL:
		provider = auth.NewSQLProvider(a.db, a.logger)
	case config.BackendHTTP:
		provider = auth.NewHTTPProvider(api)
		verify = false
	default:
		provider = auth.NewDemoProvider()
	}

	a.auth = auth.NewService(auth.Options{
		Provider:     provider,
		Issuer:       auth.NewTokenIssuer([]byte(a.cfg.SessionSecret), "vetpl", a.cfg.TokenTTL),
		VerifyTokens: verify,
		Logger:       a.logger,
		Events:       a.events,
		Countries:    countries,
		Metrics:      a.metrics,
	})
	return nil
}

// initViews parses the templates and loads the markdown pages.
func (a *app) initViews() error {
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: a.sessionManager,
		SiteName:       "Vetpl",
		IsDev:          a.cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	if a.cfg.ContentDir != "" {
		a.library, err = content.Load(os.DirFS(a.cfg.ContentDir))
	} else {
		a.library, err = content.Default()
	}
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}
	slog.Info("content loaded", "pages", a.library.Len())

	a.views = handler.NewViews(renderer, a.library)
	return nil
}

func (a *app) routes() http.Handler {
	cfg := a.cfg
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.Metrics(a.metrics))

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	health := handler.NewHealthHandler(a.db, a.api, versionInfo())
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if a.metrics != nil {
		r.Handle("/metrics", a.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(a.sessionManager.LoadAndSave)
		r.Use(middleware.Session(a.sessionManager, a.auth, cfg.SessionNamespace, a.logger))
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerPort)))
		r.NotFound(a.views.NotFound().ServeHTTP)

		a.publicRoutes(r, health)
		a.authRoutes(r)
		a.dashboardRoutes(r)

		seoH := handler.NewSEOHandler(a.library, a.careers, cfg.SiteURL, !cfg.IsProduction(), a.logger)
		r.Get("/robots.txt", seoH.Robots)
		r.Get("/sitemap.xml", seoH.Sitemap)

		pages := handler.NewPagesHandler(a.views, a.library, a.logger)
		r.Get("/", pages.Home)
		r.Get("/{slug}", pages.Page)
	})

	return r
}

func (a *app) publicRoutes(r chi.Router, health *handler.HealthHandler) {
	formsH := handler.NewFormsHandler(a.views, a.engine, a.api, a.events, a.logger)
	careersH := handler.NewCareersHandler(a.views, a.careers, a.api, a.events, a.cfg.MaxUploadBytes(), a.logger)
	submitLimit := middleware.NewSubmitRateLimiter(submitRPS, submitBurst).Middleware()

	r.Get("/health", health.Health)

	r.Get("/contact", formsH.Contact)
	r.Get("/forms/{kind}", formsH.Show)
	r.Get("/careers", careersH.List)
	r.Get("/careers/{id}/apply", careersH.ApplyForm)

	r.Group(func(r chi.Router) {
		r.Use(submitLimit)
		r.Post("/contact", formsH.SubmitContact)
		r.Post("/forms/{kind}", formsH.Submit)
		r.Post("/careers/{id}/apply", careersH.Apply)
	})
}

func (a *app) authRoutes(r chi.Router) {
	var demoAccounts []auth.DemoAccount
	if a.cfg.IdentityBackend == config.BackendDemo || a.cfg.DoSeed {
		demoAccounts = auth.DemoAccounts()
	}
	authH := handler.NewAuthHandler(handler.AuthHandlerConfig{
		Views:          a.views,
		Auth:           a.auth,
		SessionManager: a.sessionManager,
		Throttle:       a.throttle,
		DemoAccounts:   demoAccounts,
		Logger:         a.logger,
	})

	r.Get("/login", authH.LoginForm)
	r.Get("/admin/login", authH.AdminLoginForm)
	r.Get("/register", authH.RegisterForm)
	r.Post("/logout", authH.Logout)

	r.Group(func(r chi.Router) {
		r.Use(a.throttle.Middleware())
		r.Post("/login", authH.Login)
		r.Post("/admin/login", authH.AdminLogin)
		r.Post("/register", authH.Register)
	})
}

func (a *app) dashboardRoutes(r chi.Router) {
	guard := middleware.NewGuard(middleware.GuardConfig{
		Auth:    a.auth,
		Events:  a.events,
		Metrics: a.metrics,
		Loading: a.views.Loading(),
		Denied:  a.views.Denied(),
	})
	dashH := handler.NewDashboardHandler(a.views, a.auth, a.logger)
	adminH := handler.NewAdminHandler(a.views, a.auth, a.api, a.careers, a.events, a.logger)
	jobsH := handler.NewSchedulerHandler(a.views, a.registry, a.events, a.logger)
	eventsH := handler.NewEventsHandler(a.views, a.events)

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(guard.RequireAuth())
		r.Get("/", dashH.Home)
		r.Get("/profile", dashH.Profile)
		r.Post("/profile", dashH.UpdateProfile)
		r.Get("/settings", dashH.Settings)
		r.Post("/settings", dashH.ChangePassword)
		r.Post("/sidebar", dashH.ToggleSidebar)

		r.Route("/admin", func(r chi.Router) {
			r.Use(guard.RequireAdmin())
			r.Get("/users", adminH.Users)

			r.Get("/applications", adminH.Applications)
			r.Get("/applications/stats", adminH.Stats)
			r.Get("/applications/{id}", adminH.Application)
			r.Post("/applications/{id}", adminH.UpdateApplication)
			r.Post("/applications/{id}/delete", adminH.DeleteApplication)

			r.Get("/jobs", jobsH.List)
			r.Post("/jobs/update", jobsH.UpdateSchedule)
			r.Post("/jobs/reset", jobsH.ResetSchedule)
			r.Post("/jobs/trigger/{name}", jobsH.Trigger)

			r.Get("/events", eventsH.List)
		})
	})
}

// geoIPReloader returns nil unless a database is loaded, which keeps the
// reload job off the schedule.
func geoIPReloader(r *geoip.Resolver) scheduler.Reloader {
	if r == nil || !r.Enabled() {
		return nil
	}
	return r
}
