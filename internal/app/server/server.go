package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"sitelabor/internal/domain/attendance"
	"sitelabor/internal/domain/audit"
	"sitelabor/internal/domain/auth"
	"sitelabor/internal/domain/payroll"
	"sitelabor/internal/domain/registry"
	"sitelabor/internal/domain/reports"
	"sitelabor/internal/platform/config"
	cryptoutil "sitelabor/internal/platform/crypto"
	"sitelabor/internal/platform/db"
	"sitelabor/internal/platform/logging"
	"sitelabor/internal/platform/metrics"
	"sitelabor/internal/transport/http/api"
	attendancehandler "sitelabor/internal/transport/http/handlers/attendance"
	audithandler "sitelabor/internal/transport/http/handlers/audit"
	authhandler "sitelabor/internal/transport/http/handlers/auth"
	payrollhandler "sitelabor/internal/transport/http/handlers/payroll"
	registryhandler "sitelabor/internal/transport/http/handlers/registry"
	reportshandler "sitelabor/internal/transport/http/handlers/reports"
	"sitelabor/internal/transport/http/middleware"
)

const shutdownTimeout = 30 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services is everything the router needs, already wired to storage.
type Services struct {
	Auth        *auth.Service
	Attendance  *attendance.Service
	Registry    *registry.Service
	Payroll     *payroll.Service
	Reports     *reports.Service
	Audit       audit.Recorder
	AuditLog    audithandler.Reader
	Idempotency *middleware.IdempotencyStore
	Perms       middleware.PermissionStore
	Metrics     *metrics.Collector
	Ready       Pinger
}

type App struct {
	Config config.Config
	DB     *db.Pool
	Router http.Handler
}

// NewServices builds the stores and services over pool.
func NewServices(cfg config.Config, pool *db.Pool) (Services, error) {
	cipher, err := cryptoutil.NewFieldCipher(cfg.DataEncryptionKey)
	if err != nil {
		return Services{}, err
	}
	collector := metrics.New()
	recorder := audit.New(pool)

	attendanceSvc := attendance.NewService(attendance.NewStore(pool), collector)
	registrySvc := registry.NewService(registry.NewStore(pool, cipher))
	return Services{
		Auth:        auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.AccessTokenTTL),
		Attendance:  attendanceSvc,
		Registry:    registrySvc,
		Payroll:     payroll.NewService(payroll.NewStore(pool), attendanceSvc, registrySvc, collector),
		Reports:     reports.NewService(attendanceSvc, registrySvc),
		Audit:       recorder,
		AuditLog:    recorder,
		Idempotency: middleware.NewIdempotencyStore(pool),
		Perms:       auth.StaticPermissions{},
		Metrics:     collector,
		Ready:       pool,
	}, nil
}

// NewRouter mounts the middleware chain, the health endpoints and the /api/v1 routes.
func NewRouter(cfg config.Config, s Services) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.Logger(s.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if s.Ready != nil {
			if err := s.Ready.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, s.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(s.Auth, s.Audit, cfg.AllowSelfSignup).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			attendancehandler.NewHandler(s.Attendance, s.Audit, s.Idempotency, s.Perms).RegisterRoutes(r)
			registryhandler.NewHandler(s.Registry, s.Audit, s.Perms).RegisterRoutes(r)
			payrollhandler.NewHandler(s.Payroll, s.Reports, s.Audit, s.Perms).RegisterRoutes(r)
			reportshandler.NewHandler(s.Reports, s.Perms).RegisterRoutes(r)
			if s.AuditLog != nil {
				audithandler.NewHandler(s.AuditLog, s.Perms).RegisterRoutes(r)
			}
		})
	})

	return router
}

func Run() {
	log := logging.Get()
	cfg := config.Load()
	logging.Configure(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.WithField("module", "server").Fatal(err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.WithField("module", "server").Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			log.WithField("module", "server").Fatalf("migrations failed: %v", err)
		}
	}

	services, err := NewServices(cfg, pool)
	if err != nil {
		log.WithField("module", "server").Fatalf("service setup failed: %v", err)
	}

	if cfg.RunSeed {
		if err := db.Seed(ctx, services.Auth, cfg); err != nil {
			log.WithField("module", "server").Fatalf("seed failed: %v", err)
		}
	}

	app := App{Config: cfg, DB: pool, Router: NewRouter(cfg, services)}
	srv := &http.Server{
		Addr:              app.Config.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"module": "server", "addr": cfg.Addr}).Info("site labor server listening")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithField("module", "server").Errorf("server stopped unexpectedly: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithField("module", "server").Errorf("graceful shutdown failed: %v", err)
	}
}
