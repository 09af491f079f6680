package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/storefront-service/internal/api/http"
	"github.com/spec-kit/storefront-service/internal/api/http/handlers"
	"github.com/spec-kit/storefront-service/internal/auth"
	"github.com/spec-kit/storefront-service/internal/cache"
	"github.com/spec-kit/storefront-service/internal/config"
	"github.com/spec-kit/storefront-service/internal/filestore"
	"github.com/spec-kit/storefront-service/internal/notify"
	"github.com/spec-kit/storefront-service/internal/observability"
	"github.com/spec-kit/storefront-service/internal/persistence"
	"github.com/spec-kit/storefront-service/internal/repository"
	"github.com/spec-kit/storefront-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	healthDeps := map[string]handlers.Pinger{"postgres": pg}
	var cooldown cache.Cooldown
	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable; using in-process OTP cooldown", zap.Error(err))
		cooldown = cache.NewMemoryCooldown()
	} else {
		defer redis.Close()
		cooldown = cache.NewRedisCooldown(redis.Client, cfg.App.Name+":")
		healthDeps["redis"] = redis
	}

	store, err := filestore.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init file store", zap.Error(err))
	}
	uploadsDir := ""
	if local, ok := store.(*filestore.LocalStore); ok {
		uploadsDir = local.Dir()
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	productRepo := repository.NewProductRepository(pool)

	authService := service.NewAuthService(*cfg, tokens, service.AuthDependencies{
		UserRepo: userRepo,
		Mailer:   notify.NewMailer(cfg.Mail, logger),
		Cooldown: cooldown,
		Logger:   logger,
	})
	userService := service.NewUserService(userRepo, logger)
	adminService := service.NewAdminService(*cfg, tokens, adminRepo, logger)
	productService := service.NewProductService(productRepo, store, cfg.Upload, logger)

	if err := adminService.BootstrapSuperAdmin(ctx, cfg.Auth); err != nil {
		logger.Fatal("failed to bootstrap superadmin", zap.Error(err))
	}

	metrics := observability.NewMetrics("storefront")
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    int(cfg.Upload.MaxFileBytes)*cfg.Upload.MaxFiles + 1<<20,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, healthDeps),
		Users:          handlers.NewUsersHandler(authService, userService, metrics),
		Admins:         handlers.NewAdminsHandler(adminService),
		Products:       handlers.NewProductsHandler(productService, cfg.App.PublicURL),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
		UploadsDir:     uploadsDir,
	})

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
