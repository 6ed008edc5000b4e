package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	mfnats "github.com/Strob0t/MenuForge/internal/adapter/nats"
	"github.com/Strob0t/MenuForge/internal/adapter/natskv"
	mfotel "github.com/Strob0t/MenuForge/internal/adapter/otel"
	"github.com/Strob0t/MenuForge/internal/adapter/postgres"
	"github.com/Strob0t/MenuForge/internal/adapter/qrcode"
	"github.com/Strob0t/MenuForge/internal/adapter/ristretto"
	"github.com/Strob0t/MenuForge/internal/adapter/tiered"
	"github.com/Strob0t/MenuForge/internal/config"
	"github.com/Strob0t/MenuForge/internal/logger"
	"github.com/Strob0t/MenuForge/internal/port/cache"
	"github.com/Strob0t/MenuForge/internal/port/messagequeue"
	"github.com/Strob0t/MenuForge/internal/port/qrencoder"
	"github.com/Strob0t/MenuForge/internal/service"
)

// app carries the wired dependencies shared by every subcommand.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	pool    *pgxpool.Pool
	store   *postgres.Store
	queue   *mfnats.Queue // nil when NATS is disabled
	cache   cache.Cache   // nil when caching is disabled
	metrics *mfotel.Metrics

	qr      *service.QRService
	public  *service.PublicService
	catalog *service.CatalogService
	prov    *service.Provisioner

	closers []func()
}

type appOptions struct {
	migrate bool // apply pending migrations before use
	cache   bool // build the public menu cache
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)

	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, logCloser.Close)

	if err := a.wire(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, opts appOptions) error {
	cfg := a.cfg

	metrics, err := mfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	a.metrics = metrics

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	a.pool = pool
	a.closers = append(a.closers, pool.Close)
	a.log.Info("postgres connected")

	if opts.migrate {
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		a.log.Info("migrations applied")
	}
	a.store = postgres.NewStore(pool)

	var queue messagequeue.Queue
	if cfg.NATS.Enabled {
		q, err := mfnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream, a.log)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		a.queue = q
		queue = q
		a.closers = append(a.closers, func() {
			if err := q.Drain(); err != nil {
				a.log.Warn("nats drain failed", "error", err)
			}
		})
	}

	if opts.cache && cfg.Cache.Enabled {
		c, err := a.buildCache(ctx)
		if err != nil {
			return err
		}
		a.cache = c
	}

	qrOpts, err := qrOptions(cfg.QR)
	if err != nil {
		return err
	}

	a.qr = service.NewQRService(qrcode.New(), qrOpts, cfg.Public.BaseURL, a.log, metrics)
	a.public = service.NewPublicService(a.store, a.cache, cfg.Cache.L2TTL, a.log, metrics)
	a.catalog = service.NewCatalogService(a.store, a.qr, service.NewAuditRecorder(a.log, metrics),
		a.public, service.NewPublisher(queue, a.log), a.log)
	a.prov = service.NewProvisioner(a.store, a.catalog, service.NewBcryptHasher(cfg.Auth.BcryptCost),
		cfg.TenantDefaults, cfg.Auth.MinPasswordLength, a.log, metrics)
	return nil
}

// buildCache returns the ristretto L1, fronting the NATS KV L2 when NATS is
// enabled so that instances share rendered documents.
func (a *app) buildCache(ctx context.Context) (cache.Cache, error) {
	cfg := a.cfg.Cache
	l1, err := ristretto.New(cfg.L1MaxSizeMB)
	if err != nil {
		return nil, fmt.Errorf("l1 cache: %w", err)
	}
	a.closers = append(a.closers, l1.Close)

	if a.queue == nil {
		a.log.Info("public cache enabled", "tiers", "l1")
		return l1, nil
	}

	l2, err := natskv.Open(ctx, a.queue.JetStream(), cfg.L2Bucket, cfg.L2TTL)
	if err != nil {
		return nil, fmt.Errorf("l2 cache: %w", err)
	}
	a.log.Info("public cache enabled", "tiers", "l1+l2", "bucket", cfg.L2Bucket)
	return tiered.New(l1, l2, cfg.L1TTL, a.log), nil
}

func qrOptions(cfg config.QR) (qrencoder.Options, error) {
	opts := qrencoder.Options{Size: cfg.Size, Margin: cfg.Margin}
	var err error
	if cfg.Foreground != "" {
		if opts.Foreground, err = qrcode.ParseHexColor(cfg.Foreground); err != nil {
			return opts, fmt.Errorf("qr foreground: %w", err)
		}
	}
	if cfg.Background != "" {
		if opts.Background, err = qrcode.ParseHexColor(cfg.Background); err != nil {
			return opts, fmt.Errorf("qr background: %w", err)
		}
	}
	if opts.Recovery, err = qrcode.ParseRecovery(cfg.Recovery); err != nil {
		return opts, fmt.Errorf("qr recovery: %w", err)
	}
	return opts, nil
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
