package web

import (
	"errors"
	"log"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/retailops/procurement/config"
	"github.com/retailops/procurement/database"
	"github.com/retailops/procurement/orders"
	"github.com/retailops/procurement/web/handlers"
	"github.com/retailops/procurement/web/middleware"
)

// Server represents the web server
type Server struct {
	app *fiber.App
}

// statusForKind maps the order error taxonomy to HTTP status codes.
func statusForKind(kind orders.Kind) int {
	switch kind {
	case orders.KindValidationFailed:
		return fiber.StatusBadRequest
	case orders.KindNotFound:
		return fiber.StatusNotFound
	case orders.KindInvalidState, orders.KindInvalidTransition, orders.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// NewServer creates a new Fiber server
func NewServer(cfg *config.AppConfig) *Server {
	app := fiber.New(fiber.Config{
		AppName: "procurement-admin",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var orderErr *orders.Error
			if errors.As(err, &orderErr) {
				return c.Status(statusForKind(orderErr.Kind)).JSON(fiber.Map{
					"error": orderErr,
				})
			}

			code := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
			}

			log.Printf("ERROR [%s %s]: %v", c.Method(), c.Path(), err)
			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"kind":    "Internal",
					"message": err.Error(),
				},
			})
		},
	})

	// Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(cors.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${error}\n",
	}))
	app.Use(middleware.Prometheus())
	app.Use(middleware.CurrentUser(cfg.JWTSecret))

	handlers.SetOrderService(orders.NewService(database.DB))

	setupRoutes(app)

	return &Server{app: app}
}

// Start starts the server
func (s *Server) Start(port string) error {
	log.Printf("Server starting on http://localhost:%s", port)
	return s.app.Listen(":" + port)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// setupRoutes configures all application routes
func setupRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Debug endpoint for SQL logs
	api.Get("/debug/sql", handlers.GetSQLLogs)
	api.Delete("/debug/sql", handlers.ClearSQLLogs)

	// Purchase order management (order matters: specific routes before ":id")
	purchaseOrders := api.Group("/purchase-orders")
	purchaseOrders.Get("/stats", handlers.PurchaseOrderStats)
	purchaseOrders.Get("/export", handlers.PurchaseOrderExport)
	purchaseOrders.Get("/", handlers.PurchaseOrderList)
	purchaseOrders.Post("/", handlers.PurchaseOrderCreate)
	purchaseOrders.Get("/:id", handlers.PurchaseOrderView)
	purchaseOrders.Put("/:id", handlers.PurchaseOrderUpdate)
	purchaseOrders.Patch("/:id/status", handlers.PurchaseOrderChangeStatus)
	purchaseOrders.Post("/:id/duplicate", handlers.PurchaseOrderDuplicate)
	purchaseOrders.Delete("/:id", handlers.PurchaseOrderDelete)

	// Supplier directory
	suppliers := api.Group("/suppliers")
	suppliers.Get("/", handlers.SupplierList)
	suppliers.Post("/", handlers.SupplierCreate)
	suppliers.Get("/:id", handlers.SupplierView)

	// Catalog data for order-item entry
	api.Get("/products", handlers.ProductList)
	api.Get("/categories", handlers.CategoryList)
}
