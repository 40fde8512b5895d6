package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/veggiepos-backend/api/controllers"
	"github.com/angelmondragon/veggiepos-backend/api/middleware"
	"github.com/angelmondragon/veggiepos-backend/internal/auth"
	"github.com/angelmondragon/veggiepos-backend/internal/checkout"
	"github.com/angelmondragon/veggiepos-backend/internal/pricing"
	"github.com/angelmondragon/veggiepos-backend/internal/sales"
	"github.com/angelmondragon/veggiepos-backend/pkg/auth/session"
	"github.com/angelmondragon/veggiepos-backend/pkg/config"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
	"github.com/angelmondragon/veggiepos-backend/pkg/redis"
)

type redisStore interface {
	redis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Params bundles everything the HTTP surface needs.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Metrics  prometheus.Gatherer

	Auth     auth.Service
	Register auth.RegisterService
	Pricing  pricing.Service
	Checkout checkout.Service
	Sales    sales.Service

	Scale    controllers.ScaleReader
	Tarer    controllers.Tarer
	Oracle   controllers.Labeler
	TillCart controllers.TillCart
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUserLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterUserLimit,
	)

	// Keep a missing client as a nil interface so the middleware can skip it.
	var store redisStore
	pingers := map[string]controllers.Pinger{"db": p.DB}
	if p.Redis != nil {
		store = p.Redis
		pingers["redis"] = p.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	if p.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, store, logg)).Post("/token", controllers.AuthLogin(p.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, store, logg)).Post("/register", controllers.AuthRegister(p.Register, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, p.Sessions, logg)).Post("/logout", controllers.AuthLogout(p.Auth, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RateLimit(store, cfg.APIRateLimit.Limit, cfg.APIRateLimit.Window, logg))
		r.Use(middleware.Idempotency(store, logg))

		r.Get("/status", controllers.ScaleStatus(p.Scale, p.Pricing, logg))
		r.Post("/scale/tare", controllers.ScaleTare(p.Tarer, logg))
		r.Post("/predict", controllers.Predict(p.Oracle, cfg.Classifier.MaxMB, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(p.Pricing, logg))
			r.Post("/", controllers.ProductCreate(p.Pricing, logg))
			r.Put("/{name}", controllers.ProductSetPrice(p.Pricing, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.TillCart, logg))
			r.Delete("/", controllers.CartAbandon(p.TillCart, logg))
			r.Post("/items", controllers.CartAddItem(p.TillCart, p.Scale, p.Pricing, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(p.TillCart, logg))
			r.Post("/checkout", controllers.CheckoutCart(p.Checkout, logg))
		})
		r.Post("/checkout", controllers.CheckoutSubmit(p.Checkout, logg))

		r.Get("/daily", controllers.SalesDaily(p.Sales, logg))
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.SalesList(p.Sales, logg))
			r.Get("/{saleId}", controllers.SalesDetail(p.Sales, logg))
		})
	})

	return r
}
