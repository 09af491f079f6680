package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/storefront-service/internal/api/http/handlers"
	"github.com/spec-kit/storefront-service/internal/auth"
	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Admins         *handlers.AdminsHandler
	Products       *handlers.ProductsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	// UploadsDir is served at /uploads when set.
	UploadsDir string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}
	if cfg.UploadsDir != "" {
		app.Static("/uploads", cfg.UploadsDir)
	}

	protect := cfg.AuthMiddleware.Handle
	adminOnly := auth.RequireAdmin()
	superAdminOnly := auth.RequireRole(domain.RoleSuperAdmin)

	api := app.Group("/api")
	api.Get("/me", protect, cfg.Users.Me)

	users := api.Group("/users")
	users.Post("/", cfg.Users.Signup)
	users.Post("/signin", cfg.Users.Signin)
	users.Post("/verify-otp", cfg.Users.VerifyOTP)
	users.Post("/resend-otp", cfg.Users.ResendOTP)
	users.Get("/", protect, adminOnly, cfg.Users.List)
	users.Get("/:id", protect, adminOnly, cfg.Users.Get)
	users.Delete("/:id", protect, adminOnly, cfg.Users.Delete)

	admins := api.Group("/admins")
	admins.Post("/signin", cfg.Admins.Signin)
	admins.Post("/", protect, superAdminOnly, cfg.Admins.Create)
	admins.Get("/", protect, adminOnly, cfg.Admins.List)
	admins.Put("/:id", protect, adminOnly, cfg.Admins.Update)
	admins.Delete("/:id", protect, adminOnly, cfg.Admins.Delete)

	products := api.Group("/products")
	products.Get("/", cfg.Products.List)
	products.Get("/:id", cfg.Products.Get)
	products.Post("/", protect, adminOnly, cfg.Products.Create)
	products.Post("/import", protect, adminOnly, cfg.Products.Import)
	products.Put("/:id", protect, adminOnly, cfg.Products.Update)
	products.Delete("/:id", protect, adminOnly, cfg.Products.Delete)
}
