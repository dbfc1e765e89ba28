package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/webhook-guard/config"
	"github.com/marcelsud/webhook-guard/dependency"
	internalchi "github.com/marcelsud/webhook-guard/internal/http/chi"
	"github.com/marcelsud/webhook-guard/metrics"
	"github.com/marcelsud/webhook-guard/outbound"
	"github.com/marcelsud/webhook-guard/ratelimit"
	"github.com/marcelsud/webhook-guard/webhook"
	webhookredis "github.com/marcelsud/webhook-guard/webhook/redis"
	"github.com/marcelsud/webhook-guard/webhook/replay"
	"github.com/marcelsud/webhook-guard/webhook/signature"
)

const TIMEOUT = 30 * time.Second

/* main wires the guard components together: every guard is an explicitly
 * constructed instance injected into the handlers, never a package-level
 * singleton, so tests get isolated state and the in-memory stores can later
 * be swapped for shared ones without touching call sites
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println(err)
		return
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	repo, err := webhookredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer repo.Close(ctx)

	service := webhook.NewService(repo)
	validator := signature.NewValidator(cfg.WebhookSecret, cfg.WebhookSecretSandbox, logger)
	guard := replay.NewGuard(repo, replay.WithMaxEventAge(cfg.ReplayMaxEventAge()))

	limiter := ratelimit.NewEnvironmentLimiter(
		ratelimit.NewLimiter(cfg.RateLimitProductionMax, cfg.RateLimitWindow()),
		ratelimit.NewLimiter(cfg.RateLimitSandboxMax, cfg.RateLimitWindow()),
	)
	defer limiter.Close()

	loader := dependency.NewLoader()
	if err := loader.Load(cfg.DependenciesFile); err != nil {
		fmt.Println(err)
		return
	}
	registry := outbound.NewRegistry(loader)

	collector := metrics.NewGuardCollector(registry, limiter, repo)
	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer exporter.Shutdown(ctx)

	r := internalchi.Handlers(ctx, service, validator, guard, limiter, registry, exporter.Handler())
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	fmt.Printf("Listening on port %s\n", cfg.Port)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	default:
		errShutdown <- fmt.Errorf("forcing closing the server")
	}
}
