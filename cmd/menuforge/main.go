// Command menuforge serves public restaurant menus and administers the catalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mfhttp "github.com/Strob0t/MenuForge/internal/adapter/http"
	"github.com/Strob0t/MenuForge/internal/adapter/ipgeo"
	mfotel "github.com/Strob0t/MenuForge/internal/adapter/otel"
	"github.com/Strob0t/MenuForge/internal/middleware"
	"github.com/Strob0t/MenuForge/internal/port/geoip"
	"github.com/Strob0t/MenuForge/internal/resilience"
	"github.com/Strob0t/MenuForge/internal/service"
)

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(args []string) error {
	if len(args) == 0 {
		return runServe()
	}
	switch args[0] {
	case "serve":
		return runServe()
	case "migrate":
		return runMigrate(args[1:])
	case "seed":
		return runSeed(args[1:])
	case "admin":
		return runAdmin(args[1:])
	case "help", "--help", "-h":
		printHelp()
		return nil
	default:
		printHelp()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: menuforge <command> [options]

Commands:
  serve                         Serve the public menu API (default)
  migrate up|down [n]|version   Manage the database schema
  seed [--demo] [file.yaml...]  Provision tenants from descriptions
  admin <command>               Platform administration (see "admin help")
  help                          Show this help message
`)
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{migrate: true, cache: true})
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	otelShutdown, err := mfotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			a.log.Warn("otel shutdown", "error", err)
		}
	}()

	if a.queue != nil && a.cache != nil {
		unsubscribe, err := a.public.Subscribe(ctx, a.queue)
		if err != nil {
			return fmt.Errorf("subscribe catalog changes: %w", err)
		}
		defer unsubscribe()
	}

	var resolver geoip.Resolver
	if cfg.Geo.LookupURL != "" {
		resolver = ipgeo.New(cfg.Geo.LookupURL)
	}
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	country := service.NewCountryDetector(resolver, breaker, cfg.Geo, a.log, a.metrics)

	limiter := middleware.NewRateLimiter(cfg.Server.PublicRate, cfg.Server.PublicBurst)
	limiter.StartCleanup(ctx, time.Minute, 10*time.Minute)

	checks := map[string]mfhttp.HealthCheck{
		"postgres": a.pool.Ping,
	}
	if a.queue != nil {
		q := a.queue
		checks["nats"] = func(context.Context) error {
			if !q.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}
	}

	h := &mfhttp.Handlers{
		Menus:       a.public,
		Country:     country,
		Checks:      checks,
		CacheMaxAge: cfg.Cache.L1TTL,
	}
	opts := mfhttp.RouterOptions{
		CORSOrigin: cfg.Server.CORSOrigin,
		Limiter:    limiter,
		Log:        a.log,
	}
	if cfg.OTEL.Enabled {
		opts.ServiceName = cfg.OTEL.ServiceName
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mfhttp.NewRouter(h, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", "addr", srv.Addr, "base_url", cfg.Public.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
