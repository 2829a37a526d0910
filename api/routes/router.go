package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/users"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/types"
)

type sessionManager interface {
	session.Resolver
	Create(ctx context.Context, userID int64) (string, error)
	Revoke(ctx context.Context, token string) error
	TTL() time.Duration
}

type rateLimiter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type userService interface {
	Authenticate(ctx context.Context, email, password string) (*users.UserDTO, error)
	Get(ctx context.Context, id int64) (*users.UserDTO, error)
}

type productService interface {
	List(ctx context.Context) ([]types.Product, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	limiter rateLimiter,
	sessions sessionManager,
	userSvc userService,
	productSvc productService,
	cartSvc cart.Service,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	optionalSession := middleware.Session(cfg.Session.CookieName, sessions, false, logg)
	requiredSession := middleware.Session(cfg.Session.CookieName, sessions, true, logg)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", controllers.ProductList(productSvc, logg))

		r.Route("/auth/session", func(r chi.Router) {
			login := controllers.SessionLogin(userSvc, sessions, cfg.Session, logg)
			if limiter != nil {
				r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/", login)
			} else {
				r.Post("/", login)
			}
			r.With(optionalSession).Get("/", controllers.SessionShow(userSvc, logg))
			r.Delete("/", controllers.SessionLogout(sessions, cfg.Session, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(requiredSession)
			r.Get("/", controllers.CartFetch(cartSvc, logg))
			r.Delete("/", controllers.CartClear(cartSvc, logg))
			r.Post("/items", controllers.CartAddItem(cartSvc, logg))
			r.Put("/items/{itemId}", controllers.CartUpdateItem(cartSvc, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartSvc, logg))
		})
	})

	return r
}
