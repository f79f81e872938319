package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	mfahttp "github.com/dmitrymomot/mfakit/modules/mfa"
	"github.com/dmitrymomot/mfakit/pkg/clientip"
	"github.com/dmitrymomot/mfakit/pkg/config"
	"github.com/dmitrymomot/mfakit/pkg/httpserver"
	"github.com/dmitrymomot/mfakit/pkg/jwt"
	"github.com/dmitrymomot/mfakit/pkg/logger"
	"github.com/dmitrymomot/mfakit/pkg/pg"
	"github.com/dmitrymomot/mfakit/pkg/qrcode"
	"github.com/dmitrymomot/mfakit/pkg/redis"
	"github.com/dmitrymomot/mfakit/pkg/secrets"
	mfasvc "github.com/dmitrymomot/mfakit/svc/mfa"
	"github.com/dmitrymomot/mfakit/svc/mfa/memstore"
	"github.com/dmitrymomot/mfakit/svc/mfa/pgstore"
	"github.com/dmitrymomot/mfakit/svc/mfa/redisledger"
)

const (
	backendPostgres = "postgres"
	backendRedis    = "redis"
	backendMemory   = "memory"
)

type appConfig struct {
	Env            string `env:"APP_ENV" envDefault:"development"`
	Name           string `env:"APP_NAME" envDefault:"mfakit"`
	StoreBackend   string `env:"MFA_STORE_BACKEND" envDefault:"postgres"`
	AttemptBackend string `env:"MFA_ATTEMPT_BACKEND" envDefault:"postgres"`
	QRCode         bool   `env:"MFA_QR_CODE" envDefault:"true"`

	Log     logger.Config
	HTTP    httpserver.Config
	Secrets secrets.Config
	JWT     jwt.Config
	MFA     mfasvc.Config
}

var errUnknownBackend = errors.New("unknown backend")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load[appConfig]()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithConfig(cfg.Log),
		logger.WithContextValue("request_id", middleware.RequestIDKey),
	)
	logger.SetAsDefault(log)

	var (
		storage  mfasvc.Storage
		attempts mfasvc.AttemptStorage
		checks   []httpserver.CheckFunc
	)

	switch cfg.StoreBackend {
	case backendPostgres:
		pgCfg, err := config.Load[pg.Config]()
		if err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pgstore.Migrate(ctx, pool, pgCfg, log); err != nil {
			return err
		}
		store := pgstore.New(pool)
		storage, attempts = store, store
		checks = append(checks, pg.Healthcheck(pool))
	case backendMemory:
		store := memstore.New()
		storage, attempts = store, store
		log.WarnContext(ctx, "using in-memory storage, state is lost on restart")
	default:
		return fmt.Errorf("%w: MFA_STORE_BACKEND=%q", errUnknownBackend, cfg.StoreBackend)
	}

	switch cfg.AttemptBackend {
	case backendPostgres:
		if cfg.StoreBackend != backendPostgres {
			return fmt.Errorf("%w: MFA_ATTEMPT_BACKEND=postgres requires MFA_STORE_BACKEND=postgres", errUnknownBackend)
		}
	case backendRedis:
		redisCfg, err := config.Load[redis.Config]()
		if err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()

		opts := []redisledger.Option{
			redisledger.WithPrefix(redisCfg.KeyPrefix),
			redisledger.WithRetention(cfg.MFA.RateLimitWindow),
		}
		if cfg.StoreBackend == backendPostgres {
			opts = append(opts, redisledger.WithArchive(attempts))
		}
		attempts = redisledger.New(client, opts...)
		checks = append(checks, redis.Healthcheck(client))
	case backendMemory:
		attempts = memstore.New()
	default:
		return fmt.Errorf("%w: MFA_ATTEMPT_BACKEND=%q", errUnknownBackend, cfg.AttemptBackend)
	}

	cipher, err := secrets.NewCipher(cfg.Secrets)
	if err != nil {
		return errors.Join(mfasvc.ErrConfiguration, err)
	}
	tokens, err := jwt.New(cfg.JWT)
	if err != nil {
		return errors.Join(mfasvc.ErrConfiguration, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []mfasvc.Option{
		mfasvc.WithLogger(log),
		mfasvc.WithMetrics(mfasvc.NewMetrics(registry)),
	}
	if cfg.QRCode {
		opts = append(opts, mfasvc.WithQRRenderer(qrcode.New()))
	}
	svc, err := mfasvc.New(cfg.MFA, storage, attempts, cipher, opts...)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, checks...))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Mount("/mfa", mfahttp.NewHandler(svc, tokens,
		mfahttp.WithLogger(log),
		mfahttp.WithIPResolver(clientip.NewResolver()),
	).Handle())

	server := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx, r) })
	g.Go(func() error { return svc.RunSweeper(gctx) })

	log.InfoContext(ctx, "mfa server starting",
		slog.String("addr", cfg.HTTP.Addr),
		slog.String("store", cfg.StoreBackend),
		slog.String("attempts", cfg.AttemptBackend))

	return g.Wait()
}
