// Package server assembles the fiber application: middleware chain, repositories, services,
// handlers and the API router.
package server

import (
	"io"
	"os"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/docstore"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/payload"
	"storefront/internal/repositories"
	"storefront/internal/request"
	"storefront/internal/router"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Deps are the process-wide collaborators the app is built from.
type Deps struct {
	Config   config.Config
	Store    docstore.Store
	Verifier auth.Verifier
	// Publisher receives order events. Leave nil to disable them.
	Publisher services.Publisher
	// Clock defaults to time.Now.
	Clock models.Clock
	// AccessLog receives the access log. Defaults to stdout.
	AccessLog io.Writer
}

// New builds the fiber app.
func New(d Deps) *fiber.App {
	cfg := d.Config
	accessLog := d.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}

	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: handlers.ErrorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		Output: accessLog,
	}))
	// Browser preflights stop here; bare OPTIONS requests fall through to the router.
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type, Authorization",
		MaxAge:       600,
	}))
	app.Use(middleware.NoStore())

	// --- Repositories ---
	productRepo := repositories.NewDocProductRepository(d.Store)
	orderRepo := repositories.NewDocOrderRepository(d.Store)

	// --- Services ---
	productService := services.NewProductService(productRepo, services.ProductOptions{
		DefaultLimit: cfg.ProductsDefaultLimit,
		MaxLimit:     cfg.ProductsMaxLimit,
		Clock:        d.Clock,
	})
	orderService := services.NewOrderService(orderRepo, productRepo, d.Publisher, services.OrderOptions{
		Statuses:       models.NewStatusSet(cfg.OrderStatuses),
		RecomputeTotal: cfg.RecomputeOrderTotal,
		DeliveryFee:    cfg.OrderDeliveryFee,
		DefaultLimit:   cfg.OrdersDefaultLimit,
		MaxLimit:       cfg.OrdersMaxLimit,
		Clock:          d.Clock,
	})

	// --- Handlers ---
	healthHandler := handlers.NewHealthHandler(d.Clock)
	productHandler := handlers.NewProductHandler(productService, payload.ImageLimits{
		MaxImages: cfg.UploadMaxImages,
		MaxBytes:  cfg.UploadMaxImageBytes,
	})
	orderHandler := handlers.NewOrderHandler(orderService)

	// --- API Routes ---
	gate := middleware.NewGate(d.Verifier, cfg.AuthTimeout, cfg.AuthRequireAdmin)
	api := router.New(cfg.APIPrefix, gate)
	healthHandler.RegisterRoutes(api)
	productHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)

	app.Get("/health", func(c *fiber.Ctx) error {
		return healthHandler.HandleHealth(c, request.Parsed{})
	})
	if cfg.APIPrefix == "" {
		app.Use(api.Dispatch)
	} else {
		app.Use(cfg.APIPrefix, api.Dispatch)
	}
	app.Use(func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return apperr.NotFound("Not Found", nil)
	})

	return app
}
