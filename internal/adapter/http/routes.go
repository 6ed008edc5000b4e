package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	mfotel "github.com/Strob0t/MenuForge/internal/adapter/otel"
	"github.com/Strob0t/MenuForge/internal/middleware"
)

// RouterOptions configures the global middleware stack.
type RouterOptions struct {
	CORSOrigin  string
	ServiceName string // enables otelhttp spans when non-empty
	Limiter     *middleware.RateLimiter
	Log         *slog.Logger
}

// NewRouter builds the chi router with the global middleware stack and
// every route mounted.
func NewRouter(h *Handlers, opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.ServiceName != "" {
		r.Use(mfotel.HTTPMiddleware(opts.ServiceName))
	}
	r.Use(Logger(opts.Log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(15 * time.Second))
	r.Use(SecurityHeaders)
	if opts.CORSOrigin != "" {
		r.Use(CORS(opts.CORSOrigin))
	}
	MountRoutes(r, h, opts.Limiter)
	return r
}

// MountRoutes registers all routes on the given chi router. The public
// catalog routes are rate limited per client when limiter is non-nil.
func MountRoutes(r chi.Router, h *Handlers, limiter *middleware.RateLimiter) {
	r.Get("/health", h.Health)

	r.Route("/r/{restaurantSlug}", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Handler)
		}
		r.Get("/", h.GetRestaurantMenu)
		r.Get("/qr.png", h.GetQRImage)
		r.Get("/{menuSlug}", h.GetMenu)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})
		r.Get("/country", h.GetCountry)
	})
}
