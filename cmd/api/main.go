package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/bazaar-backend/api/routes"
	"github.com/angelmondragon/bazaar-backend/internal/auth"
	"github.com/angelmondragon/bazaar-backend/internal/categories"
	"github.com/angelmondragon/bazaar-backend/internal/likes"
	"github.com/angelmondragon/bazaar-backend/internal/orders"
	"github.com/angelmondragon/bazaar-backend/internal/otp"
	"github.com/angelmondragon/bazaar-backend/internal/principals"
	"github.com/angelmondragon/bazaar-backend/internal/products"
	"github.com/angelmondragon/bazaar-backend/pkg/config"
	"github.com/angelmondragon/bazaar-backend/pkg/db"
	"github.com/angelmondragon/bazaar-backend/pkg/email"
	"github.com/angelmondragon/bazaar-backend/pkg/logger"
	"github.com/angelmondragon/bazaar-backend/pkg/metrics"
	"github.com/angelmondragon/bazaar-backend/pkg/migrate"
	"github.com/angelmondragon/bazaar-backend/pkg/redis"
	"github.com/angelmondragon/bazaar-backend/pkg/security"
	"github.com/angelmondragon/bazaar-backend/pkg/storage"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics := metrics.NewDomainMetrics(registry)

	deps := routes.Dependencies{
		Config:    cfg,
		Logger:    logg,
		Registry:  registry,
		HTTP:      metrics.NewHTTPMetrics(registry),
		DB:        dbClient,
		ImagesDir: cfg.Storage.ImagesDir,
	}

	var otpStore otp.Store
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		otpStore = otp.NewRedisStore(redisClient)
		deps.Redis = redisClient
		deps.RateLimits = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; otp codes are kept in process memory")
		memoryStore := otp.NewMemoryStore(time.Now)
		go memoryStore.SweepEvery(ctx, time.Minute)
		otpStore = memoryStore
	}

	otpService, err := otp.NewService(otp.ServiceParams{
		Store:   otpStore,
		OTP:     cfg.OTP,
		Reset:   cfg.Reset,
		Metrics: domainMetrics,
	})
	requireResource(ctx, logg, "otp service", err)

	hasher, err := security.NewHasher(cfg.Password)
	requireResource(ctx, logg, "password hasher", err)

	files, err := storage.NewLocalStore(cfg.Storage.ImagesDir, cfg.App.PublicBaseURL)
	requireResource(ctx, logg, "image storage", err)

	deps.Auth, err = auth.NewService(auth.ServiceParams{
		DB:        dbClient,
		OTP:       otpService,
		Mailer:    email.NewSender(cfg.Mail, logg),
		Hasher:    hasher,
		JWT:       cfg.JWT,
		ResetURL:  cfg.Reset.PasswordURL,
		ExposeOTP: cfg.App.IsDev(),
		Logger:    logg,
	})
	requireResource(ctx, logg, "auth service", err)

	deps.Principals, err = principals.NewService(principals.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "principals service", err)

	deps.Categories, err = categories.NewService(categories.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "categories service", err)

	deps.Products, err = products.NewService(products.ServiceParams{
		DB:            dbClient,
		Repo:          products.NewRepository(dbClient.DB()),
		Files:         files,
		Logger:        logg,
		MaxImageCount: cfg.Storage.MaxImageCount,
	})
	requireResource(ctx, logg, "products service", err)

	deps.Orders, err = orders.NewService(orders.ServiceParams{
		DB:      dbClient,
		Repo:    orders.NewRepository(dbClient.DB()),
		Metrics: domainMetrics,
		Logger:  logg,
	})
	requireResource(ctx, logg, "orders service", err)

	deps.Likes, err = likes.NewService(likes.ServiceParams{
		DB:   dbClient,
		Repo: likes.NewRepository(dbClient.DB()),
	})
	requireResource(ctx, logg, "likes service", err)

	if cfg.FeatureFlags.SeedAdmin {
		if err := deps.Auth.SeedAdmin(ctx, cfg.Admin); err != nil {
			logg.Error(ctx, "failed to seed admin", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
