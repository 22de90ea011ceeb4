package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kumaruseru/owls/pkg/health"
	"github.com/kumaruseru/owls/pkg/middleware"
)

// RouterConfig carries the HTTP-level settings the router needs.
type RouterConfig struct {
	ServiceName string
	Cookies     CookieConfig
	CORS        middleware.CORSConfig

	// RateLimitRPS of 0 disables rate limiting.
	RateLimitRPS   int
	RateLimitBurst int

	// CatalogCacheMaxAge is the Cache-Control max-age (seconds) on the public
	// catalog and site config reads.
	CatalogCacheMaxAge int
}

// Handlers bundles the route handlers the router wires up.
type Handlers struct {
	Auth    *AuthHandler
	Cart    *CartHandler
	Catalog *CatalogHandler
	Orders  *OrdersHandler
	Reviews *ReviewsHandler
	Config  *SiteConfigHandler
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	cfg RouterConfig,
	h Handlers,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
	}

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Session(cfg.Cookies))
		r.Use(Tokens(cfg.Cookies))
		r.Use(ContentTypeJSON)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/register", h.Auth.Register)
			r.Post("/logout", h.Auth.Logout)
			r.Post("/forgot-password", h.Auth.ForgotPassword)
			r.Post("/reset-password/{uid}/{token}", h.Auth.ResetPassword)
			r.Post("/resend-verification", h.Auth.ResendVerification)
		})

		r.Get("/session", h.Auth.Session)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", h.Auth.Profile)
			r.Patch("/", h.Auth.UpdateProfile)
			r.Put("/password", h.Auth.ChangePassword)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.Get)
			r.Get("/snapshot", h.Cart.Snapshot)
			r.Post("/add", h.Cart.Add)
			r.Post("/update", h.Cart.Update)
			r.Post("/remove", h.Cart.Remove)
			r.Post("/clear", h.Cart.Clear)
			r.Post("/bulk-update", h.Cart.BulkUpdate)
		})

		// Public catalog reads are cacheable; everything above is per-session.
		r.Group(func(r chi.Router) {
			if cfg.CatalogCacheMaxAge > 0 {
				r.Use(middleware.CacheControl(cfg.CatalogCacheMaxAge))
			}

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.Catalog.Products)
				r.Get("/featured", h.Catalog.Featured)
				r.Get("/{slug}", h.Catalog.Product)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Catalog.Categories)
				r.Get("/{slug}", h.Catalog.Category)
				r.Get("/{slug}/products", h.Catalog.CategoryProducts)
			})

			r.Get("/config", h.Config.Get)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", h.Reviews.List)
			r.Post("/", h.Reviews.Create)
			r.Get("/my", h.Reviews.Mine)
			r.Get("/product/{id}", h.Reviews.ForProduct)
			r.Get("/{id}", h.Reviews.Get)
			r.Patch("/{id}", h.Reviews.Update)
			r.Delete("/{id}", h.Reviews.Delete)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Orders.List)
			r.Post("/checkout", h.Orders.Checkout)
			r.Get("/{number}", h.Orders.Detail)
			r.Post("/{number}/cancel", h.Orders.Cancel)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders.AdminList)
				r.Get("/stats", h.Orders.AdminStats)
				r.Get("/{number}", h.Orders.AdminDetail)
				r.Patch("/{number}", h.Orders.AdminUpdate)
			})

			r.Patch("/config", h.Config.Update)
		})
	})

	return r
}
