package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	shttp "github.com/shogunhq/shogun/internal/adapter/http"
	"github.com/shogunhq/shogun/internal/adapter/memory"
	snats "github.com/shogunhq/shogun/internal/adapter/nats"
	"github.com/shogunhq/shogun/internal/adapter/natskv"
	"github.com/shogunhq/shogun/internal/adapter/otel"
	"github.com/shogunhq/shogun/internal/adapter/postgres"
	"github.com/shogunhq/shogun/internal/adapter/ristretto"
	"github.com/shogunhq/shogun/internal/adapter/tiered"
	"github.com/shogunhq/shogun/internal/config"
	"github.com/shogunhq/shogun/internal/domain/accounting"
	"github.com/shogunhq/shogun/internal/logger"
	"github.com/shogunhq/shogun/internal/middleware"
	"github.com/shogunhq/shogun/internal/port/cache"
	"github.com/shogunhq/shogun/internal/port/database"
	"github.com/shogunhq/shogun/internal/port/messagequeue"
	"github.com/shogunhq/shogun/internal/resilience"
	"github.com/shogunhq/shogun/internal/secrets"
	"github.com/shogunhq/shogun/internal/service"
	"github.com/shogunhq/shogun/internal/throttle"
)

// envAPIKey is re-read from the environment on SIGHUP so the API key can be
// rotated without a restart.
const envAPIKey = "SHOGUN_API_KEY"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
	if err := run(flags); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(flags config.CLIFlags) error {
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"file", cfgPath,
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
		"log_level", cfg.Logging.Level,
		"nats", cfg.NATS.Enabled,
		"otel", cfg.OTEL.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	otelShutdown, err := otel.Init(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	checks := make(map[string]shttp.HealthCheck)

	store, closeStore, err := openStore(ctx, cfg, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	var queue *snats.Queue
	if cfg.NATS.Enabled {
		queue, err = snats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		breaker := resilience.NewBreaker(cfg.NATS.BreakerMaxFailures, cfg.NATS.BreakerTimeout)
		queue.SetBreaker(breaker)
		defer func() {
			if err := queue.Drain(); err != nil {
				slog.Error("nats drain", "error", err)
			}
		}()
		checks["nats"] = func(context.Context) error {
			if !queue.IsConnected() {
				return errors.New("disconnected")
			}
			if breaker.State() == resilience.StateOpen {
				return errors.New("publish circuit open")
			}
			return nil
		}
	}

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()

	var l2, idempotencyStore cache.Cache
	if queue != nil {
		kv, err := queue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return fmt.Errorf("l2 cache: %w", err)
		}
		l2 = natskv.New(kv)

		idemKV, err := queue.KeyValue(ctx, cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
		if err != nil {
			return fmt.Errorf("idempotency store: %w", err)
		}
		idempotencyStore = natskv.New(idemKV)
	}
	tenantCache := tiered.New(l1, l2, cfg.Cache.TenantTTL)

	// --- Services ---

	books, err := service.NewAccountingBootstrap(accounting.Options{
		Method:       accounting.Method(cfg.Accounting.Method),
		FYStartMonth: cfg.Accounting.FYStartMonth,
	})
	if err != nil {
		return fmt.Errorf("accounting: %w", err)
	}

	identitySvc := service.NewIdentityService(store)
	onboardingSvc := service.NewOnboardingService(store)
	onboardingSvc.SetMetrics(metrics)
	promotionSvc := service.NewPromotionService(store,
		service.NewTenantRegistry(cfg.Tenancy.DomainSuffix, cfg.Tenancy.BaseCurrency),
		service.NewMembershipLedger(),
		books,
	)
	promotionSvc.SetMetrics(metrics)
	promotionSvc.SetPool(throttle.NewPool(cfg.Tenancy.MaxConcurrentPromotions))
	tenantSvc := service.NewTenantService(store)
	tenantSvc.SetCache(tenantCache, cfg.Cache.TenantTTL)

	if queue != nil {
		onboardingSvc.SetQueue(queue)
		promotionSvc.SetQueue(queue)

		cancelSub, err := queue.Subscribe(ctx, messagequeue.SubjectTenantProvisioned, tenantProvisionedHandler(tenantSvc))
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", messagequeue.SubjectTenantProvisioned, err)
		}
		defer cancelSub()
	}

	// --- HTTP ---

	handlers := &shttp.Handlers{
		Identity:     identitySvc,
		Onboarding:   onboardingSvc,
		Promotion:    promotionSvc,
		Tenants:      tenantSvc,
		HealthChecks: checks,
	}

	vault, err := secrets.NewVault(secrets.EnvLoader(envAPIKey))
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	apiKey := func() string {
		if k := vault.Get(envAPIKey); k != "" {
			return k
		}
		return cfg.Server.APIKey
	}
	if k := vault.Redacted(envAPIKey); k != "" {
		slog.Info("api key loaded from environment", "key", k)
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(shttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(otel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(shttp.SecurityHeaders)
	r.Use(shttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.APIKey(apiKey))
	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
		r.Use(limiter.Handler)
	}
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	if idempotencyStore != nil {
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL))
	}

	shttp.MountRoutes(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		reloadSecretsOnHUP(gctx, vault)
		return nil
	})
	if limiter != nil {
		g.Go(func() error {
			limiter.Run(gctx, time.Minute, 10*time.Minute)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// reloadSecretsOnHUP reloads the vault on every SIGHUP until ctx is done.
func reloadSecretsOnHUP(ctx context.Context, vault *secrets.Vault) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := vault.Reload(); err != nil {
				slog.Error("secret reload failed", "error", err)
				continue
			}
			slog.Info("secrets reloaded")
		}
	}
}

// openStore selects the persistence backend and registers its health check.
func openStore(ctx context.Context, cfg *config.Config, checks map[string]shttp.HealthCheck) (database.Store, func(), error) {
	if cfg.Store.Backend == config.BackendMemory {
		slog.Warn("using in-memory store; data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	slog.Info("postgres connected")

	if cfg.Postgres.AutoMigrate {
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		slog.Info("migrations applied")
	}

	store := postgres.NewStore(pool)
	checks["postgres"] = store.Ping
	return store, pool.Close, nil
}

// tenantProvisionedHandler drops stale tenant cache entries on every
// instance when a tenant is provisioned.
func tenantProvisionedHandler(tenants *service.TenantService) messagequeue.Handler {
	return func(ctx context.Context, _ string, data []byte) error {
		var p messagequeue.TenantProvisionedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("decode %s: %w", messagequeue.SubjectTenantProvisioned, err)
		}
		tenants.Invalidate(ctx, p.TenantID)
		slog.DebugContext(ctx, "tenant cache invalidated", "tenant_id", p.TenantID)
		return nil
	}
}
