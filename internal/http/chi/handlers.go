package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-guard/outbound"
	"github.com/marcelsud/webhook-guard/ratelimit"
	"github.com/marcelsud/webhook-guard/webhook"
	"github.com/marcelsud/webhook-guard/webhook/replay"
	"github.com/marcelsud/webhook-guard/webhook/signature"
)

// Handlers sets up the webhook gateway API routes
func Handlers(
	ctx context.Context,
	service webhook.UseCase,
	validator *signature.Validator,
	guard *replay.Guard,
	limiter *ratelimit.EnvironmentLimiter,
	registry *outbound.Registry,
	metricsHandler http.Handler,
) *chi.Mux {
	logger := httplog.NewLogger("webhook-guard", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Prometheus metrics
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// Gateway API routes
	r.Route("/v1", func(r chi.Router) {
		// Inbound webhook deliveries
		r.Post("/webhooks", postWebhook(service, validator, guard, limiter).ServeHTTP)

		// Diagnostic signature verification (never use for production validation)
		r.Post("/webhooks/debug/signature", debugSignature(validator).ServeHTTP)

		// Guarded upstream dependencies with breaker stats
		r.Get("/dependencies", getDependencies(registry).ServeHTTP)
	})

	return r
}
