// AngelaMos | 2026
// routes.go

package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/storefront/internal/address"
	"github.com/carterperez-dev/storefront/internal/admin"
	"github.com/carterperez-dev/storefront/internal/auth"
	"github.com/carterperez-dev/storefront/internal/cart"
	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/health"
	"github.com/carterperez-dev/storefront/internal/metrics"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/newsletter"
	"github.com/carterperez-dev/storefront/internal/order"
	"github.com/carterperez-dev/storefront/internal/profile"
	"github.com/carterperez-dev/storefront/internal/review"
	"github.com/carterperez-dev/storefront/internal/storage"
	"github.com/carterperez-dev/storefront/internal/user"
	"github.com/carterperez-dev/storefront/internal/wishlist"
)

type deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *core.Database
	Redis    *core.Redis
	JWT      *auth.JWTManager
	Store    storage.Store
	Mailer   auth.Mailer
	Payments order.PaymentIntents
	Users    user.Repository
	Tokens   auth.Repository
	Profiles profile.Repository
	Health   *health.Handler
	// SendMail overrides how confirmation mail is dispatched; nil sends in
	// the background.
	SendMail func(func())
}

//nolint:funlen // wiring reads best in one place
func mountRoutes(router chi.Router, d deps) {
	cfg := d.Config
	logger := d.Logger
	db := d.DB.DB
	rdb := d.Redis.Client

	cookies := middleware.NewSessionCookies(cfg.Session)

	userSvc := user.NewService(d.Users)
	authSvc := auth.NewService(auth.ServiceConfig{
		Repo:     d.Tokens,
		JWT:      d.JWT,
		Users:    userSvc,
		Redis:    rdb,
		Mailer:   d.Mailer,
		BaseURL:  cfg.App.BaseURL,
		CodeTTL:  cfg.Session.CodeTTL,
		Logger:   logger,
		SendMail: d.SendMail,
	})

	resolver := profile.NewResolver(d.Profiles, logger)
	guard := middleware.NewGuard(middleware.GuardConfig{
		Sessions: authSvc,
		Roles:    resolver.For("guard"),
		Cookies:  cookies,
		Logger:   logger,
	})

	authHandler := auth.NewHandler(auth.HandlerConfig{
		Service:       authSvc,
		Cookies:       cookies,
		LoginRoles:    resolver.For("login"),
		CallbackRoles: resolver.For("callback"),
		Logger:        logger,
	})

	orderRepo := order.NewRepository(db)
	orderCache := order.NewListCache(rdb, cfg.Cache.OrderListTTL, logger)
	addressRepo := address.NewRepository(db)
	reviewRepo := review.NewRepository(db)
	wishlistRepo := wishlist.NewRepository(db)

	catalogSvc := catalog.NewService(catalog.ServiceConfig{
		Repo:     catalog.NewRepository(db),
		Uploader: catalog.NewUploader(d.Store, cfg.Storage.MaxUploadBytes),
		Reviews:  reviewRepo,
		Wishlist: wishlistRepo,
		Logger:   logger,
	})
	catalogHandler := catalog.NewHandler(catalogSvc, logger)

	cartStore := cart.NewStore(rdb, cfg.Cart.TTL)
	cartHandler := cart.NewHandler(cartStore, catalogSvc)

	checkout := order.NewCheckout(order.CheckoutConfig{
		DB:        db,
		Repo:      orderRepo,
		Addresses: addressRepo,
		Prices:    catalogSvc,
		Payments:  d.Payments,
		Cache:     orderCache,
		Logger:    logger,
	})
	orderHandler := order.NewHandler(order.HandlerConfig{
		Repo:     orderRepo,
		Checkout: checkout,
		Cache:    orderCache,
		Cart:     cartStore,
		Logger:   logger,
	})

	profileHandler := profile.NewHandler(profile.HandlerConfig{
		Repo:     d.Profiles,
		Identity: userSvc,
		Orders:   orderRepo,
		Logger:   logger,
	})

	adminRepo := admin.NewRepository(db)
	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Service:    admin.NewService(adminRepo, orderRepo),
		Repo:       adminRepo,
		DBStats:    d.DB.Stats,
		RedisStats: d.Redis.PoolStats,
		DBPing:     d.DB.Ping,
		RedisPing:  d.Redis.Ping,
		Logger:     logger,
	})

	addressHandler := address.NewHandler(addressRepo)
	reviewHandler := review.NewHandler(reviewRepo, orderRepo, logger)
	wishlistHandler := wishlist.NewHandler(wishlistRepo)
	newsletterHandler := newsletter.NewHandler(newsletter.NewRepository(db))

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(
		middleware.NewRateLimiter(rdb, middleware.RateLimitConfig{
			Limit: middleware.Per(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(guard.Handler)

	d.Health.RegisterRoutes(router)
	router.Handle("/metrics", metrics.Handler())
	router.Get("/.well-known/jwks.json", d.JWT.GetJWKSHandler())

	authLimiter := middleware.NewRateLimiter(rdb, middleware.RateLimitConfig{
		Limit: middleware.Per(
			cfg.AuthRateLimit.Requests,
			cfg.AuthRateLimit.Burst,
			cfg.AuthRateLimit.Window,
		),
		KeyFunc:    middleware.KeyByIPAndEndpoint,
		FailOpen:   true,
		BypassFunc: notCredentialPost,
	})
	router.Group(func(r chi.Router) {
		r.Use(authLimiter.Handler)
		authHandler.RegisterRoutes(r)
	})

	catalogHandler.RegisterRoutes(router)
	reviewHandler.RegisterRoutes(router)
	newsletterHandler.RegisterRoutes(router)

	router.Route("/user", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		profileHandler.RegisterRoutes(r)
		addressHandler.RegisterRoutes(r)
		cartHandler.RegisterRoutes(r)
		orderHandler.RegisterRoutes(r)
		wishlistHandler.RegisterRoutes(r)
		reviewHandler.RegisterUserRoutes(r)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)

		adminHandler.RegisterAdminRoutes(r)
		catalogHandler.RegisterAdminRoutes(r)
		orderHandler.RegisterAdminRoutes(r)
		profileHandler.RegisterAdminRoutes(r)
	})
}

// notCredentialPost limits the auth limiter to password submissions.
func notCredentialPost(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return true
	}
	return r.URL.Path != middleware.LoginPath && r.URL.Path != middleware.SignupPath
}
