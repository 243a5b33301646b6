package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bazaar-backend/api/controllers"
	"github.com/angelmondragon/bazaar-backend/api/middleware"
	"github.com/angelmondragon/bazaar-backend/internal/auth"
	"github.com/angelmondragon/bazaar-backend/internal/categories"
	"github.com/angelmondragon/bazaar-backend/internal/likes"
	"github.com/angelmondragon/bazaar-backend/internal/orders"
	"github.com/angelmondragon/bazaar-backend/internal/principals"
	"github.com/angelmondragon/bazaar-backend/internal/products"
	"github.com/angelmondragon/bazaar-backend/pkg/config"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/angelmondragon/bazaar-backend/pkg/logger"
	"github.com/angelmondragon/bazaar-backend/pkg/metrics"
	"github.com/angelmondragon/bazaar-backend/pkg/storage"
)

// rateCounter is the shared fixed-window counter, normally the redis client.
type rateCounter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies is everything the HTTP surface is wired to.
type Dependencies struct {
	Config     *config.Config
	Logger     *logger.Logger
	Registry   *prometheus.Registry
	HTTP       *metrics.HTTPMetrics
	DB         controllers.Pinger
	Redis      controllers.Pinger
	RateLimits rateCounter
	ImagesDir  string

	Auth       auth.Service
	Principals principals.Service
	Categories categories.Service
	Products   products.Service
	Orders     orders.Service
	Likes      likes.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	maxUpload := int64(cfg.Storage.MaxUploadMB) << 20

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTP),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}
	if deps.ImagesDir != "" {
		r.Handle(storage.PublicPrefix+"*", http.StripPrefix(storage.PublicPrefix, http.FileServer(http.Dir(deps.ImagesDir))))
	}

	throttle := authThrottles(cfg.AuthRateLimit, deps.RateLimits, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(throttle.local)
			r.Post("/reset-password/token", controllers.AuthResetPasswordWithToken(deps.Auth, logg))
			r.Route("/{role}", func(r chi.Router) {
				r.With(throttle.register).Post("/register", controllers.AuthRegister(deps.Auth, logg))
				r.With(throttle.login).Post("/login", controllers.AuthLogin(deps.Auth, logg))
				r.With(throttle.otp).Post("/request-otp", controllers.AuthRequestOTP(deps.Auth, logg))
				r.With(throttle.login).Post("/confirm-signin", controllers.AuthConfirmSignin(deps.Auth, logg))
				r.With(throttle.otp).Post("/forgot-password", controllers.AuthForgotPassword(deps.Auth, logg))
				r.With(throttle.login).Post("/reset-password", controllers.AuthResetPassword(deps.Auth, logg))
				r.With(throttle.otp).Post("/reset-link", controllers.AuthRequestResetLink(deps.Auth, logg))
			})
		})

		r.Get("/categories", controllers.CategoryList(deps.Categories, logg))
		r.Get("/categories/{id}", controllers.CategoryGet(deps.Categories, logg))
		r.Get("/products", controllers.ProductList(deps.Products, logg))
		r.Get("/products/{id}", controllers.ProductGet(deps.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/me", controllers.Me(deps.Principals, logg))
			r.With(middleware.SelfOrAdmin(enums.RoleUser, "id", logg)).Patch("/users/{id}", controllers.UpdateProfile(deps.Principals, enums.RoleUser, logg))
			r.With(middleware.SelfOrAdmin(enums.RoleSaller, "id", logg)).Patch("/sallers/{id}", controllers.UpdateProfile(deps.Principals, enums.RoleSaller, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleSaller, enums.RoleAdmin))
				r.Post("/products", controllers.ProductCreate(deps.Products, maxUpload, logg))
				r.Patch("/products/{id}", controllers.ProductUpdate(deps.Products, maxUpload, logg))
				r.Delete("/products/{id}", controllers.ProductDelete(deps.Products, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(middleware.RequireRole(logg, enums.RoleUser, enums.RoleAdmin)).Post("/", controllers.OrderCreate(deps.Orders, logg))
				r.Get("/", controllers.OrderList(deps.Orders, logg))
				r.Get("/{id}", controllers.OrderGet(deps.Orders, logg))
				r.Patch("/{id}/status", controllers.OrderUpdateStatus(deps.Orders, logg))
				r.With(middleware.RequireRole(logg, enums.RoleAdmin)).Delete("/{id}", controllers.OrderDelete(deps.Orders, logg))
			})

			r.With(middleware.RequireRole(logg, enums.RoleUser)).Post("/products/{id}/like", controllers.LikeToggle(deps.Likes, logg))
			r.With(middleware.RequireRole(logg, enums.RoleUser)).Get("/likes", controllers.LikeList(deps.Likes, logg))
			r.With(middleware.SelfOrAdmin(enums.RoleUser, "id", logg)).Get("/users/{id}/likes", controllers.LikeList(deps.Likes, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(logg, enums.RoleAdmin))

			r.Post("/categories", controllers.CategoryCreate(deps.Categories, logg))
			r.Patch("/categories/{id}", controllers.CategoryUpdate(deps.Categories, logg))
			r.Delete("/categories/{id}", controllers.CategoryDelete(deps.Categories, logg))

			r.Post("/{role}", controllers.AdminCreatePrincipal(deps.Auth, logg))
			r.Get("/{role}", controllers.AdminListPrincipals(deps.Principals, logg))
			r.Delete("/{role}/{id}", controllers.AdminDeletePrincipal(deps.Principals, logg))
		})
	})

	return r
}

type throttles struct {
	local, login, register, otp func(http.Handler) http.Handler
}

// authThrottles uses the shared counter when one is configured and falls back
// to an in-process per-IP limiter otherwise.
func authThrottles(cfg config.AuthRateLimitConfig, counter rateCounter, logg *logger.Logger) throttles {
	passthrough := func(next http.Handler) http.Handler { return next }
	t := throttles{local: passthrough, login: passthrough, register: passthrough, otp: passthrough}
	if counter == nil {
		if logg != nil {
			logg.Warn(context.Background(), "auth.rate_limit.local_only")
		}
		t.local = middleware.NewIPRateLimiter(cfg.LocalPerSecond, cfg.LocalBurst).Middleware()
		return t
	}
	t.login = middleware.AuthRateLimit(middleware.AuthRateLimitPolicy{
		Name: "login", Window: cfg.LoginWindow, IPLimit: cfg.LoginIPLimit, EmailLimit: cfg.LoginEmailLimit,
	}, counter, logg)
	t.register = middleware.AuthRateLimit(middleware.AuthRateLimitPolicy{
		Name: "register", Window: cfg.RegisterWindow, IPLimit: cfg.RegisterIPLimit, EmailLimit: cfg.RegisterEmailLimit,
	}, counter, logg)
	t.otp = middleware.AuthRateLimit(middleware.AuthRateLimitPolicy{
		Name: "otp", Window: cfg.OTPWindow, IPLimit: cfg.OTPIPLimit, EmailLimit: cfg.OTPEmailLimit,
	}, counter, logg)
	return t
}
