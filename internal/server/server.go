package server

import (
	"errors"
	"strings"
	"time"

	"factory-backend/internal/admin"
	"factory-backend/internal/audit"
	"factory-backend/internal/auth"
	"factory-backend/internal/config"
	"factory-backend/internal/dashboard"
	"factory-backend/internal/inventory"
	"factory-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const HeaderRequestID = "X-Request-ID"

type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Log       *logrus.Logger
	Inventory *inventory.Service
	Policy    auth.Policy
}

func errorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var e *fiber.Error
		if errors.As(err, &e) {
			return c.Status(e.Code).JSON(fiber.Map{
				"error": e.Message,
			})
		}
		log.WithField("request_id", c.Locals("request_id")).WithError(err).Error("unexpected error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}

// requestLogger tags every request with an id and logs its outcome.
func requestLogger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals("request_id", id)
		c.Set(HeaderRequestID, id)

		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the error handler write the response before we read the status
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"latency_ms": time.Since(start).Milliseconds(),
		}).Info("request")
		return nil
	}
}

func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(d.Log),
	})

	corsOrigins := strings.Split(d.Config.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(requestLogger(d.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(corsOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + HeaderRequestID,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: HeaderRequestID,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	svc := d.Inventory
	p := d.Policy
	allow := func(a auth.Action) fiber.Handler { return auth.Authorize(p, a) }

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(d.DB))
	api.Post("/auth/login", auth.LoginHandler(d.DB, d.Config.JWTSecret))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(d.Config.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(d.DB))

	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))
	adminRoutes.Post("/users", auth.CreateUserHandler(d.DB))
	adminRoutes.Get("/users", admin.ListUsersHandler(d.DB))
	adminRoutes.Put("/users/:id/role", admin.UpdateUserRoleHandler(d.DB))
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler(d.DB))
	adminRoutes.Get("/consistency", allow(auth.ActionCheckLedger), inventory.ConsistencyHandler(svc))

	// Catalog
	protected.Post("/lines", allow(auth.ActionManageCatalog), inventory.CreateLineHandler(svc))
	protected.Get("/lines", allow(auth.ActionViewCatalog), inventory.ListLinesHandler(svc))
	protected.Post("/products", allow(auth.ActionManageCatalog), inventory.CreateProductHandler(svc))
	protected.Get("/products", allow(auth.ActionViewCatalog), inventory.ListProductsHandler(svc))
	protected.Post("/materials", allow(auth.ActionManageMaterials), inventory.CreateMaterialHandler(svc))
	protected.Put("/materials/:id", allow(auth.ActionManageMaterials), inventory.RenameMaterialHandler(svc))
	protected.Get("/materials", allow(auth.ActionViewCatalog), inventory.ListMaterialsHandler(svc))
	protected.Post("/product-materials", allow(auth.ActionManageBOM), inventory.CreateBOMLineHandler(svc))
	protected.Get("/product-materials", allow(auth.ActionViewCatalog), inventory.ListBOMLinesHandler(svc))
	protected.Post("/counterparties", allow(auth.ActionManageParties), inventory.CreateCounterpartyHandler(svc))
	protected.Get("/counterparties", allow(auth.ActionViewShipments), inventory.ListCounterpartiesHandler(svc))

	// Material stock
	protected.Put("/stocks", allow(auth.ActionManageStock), inventory.SetStockHandler(svc))
	protected.Get("/stocks", allow(auth.ActionViewStock), inventory.ListStocksHandler(svc))
	protected.Post("/stocks/import", allow(auth.ActionManageStock), inventory.ImportStockHandler(svc))
	protected.Get("/stocks/:materialID", allow(auth.ActionViewStock), inventory.GetStockHandler(svc))
	protected.Post("/stocks/:materialID/credit", allow(auth.ActionManageStock), inventory.CreditStockHandler(svc))
	protected.Post("/stocks/:materialID/debit", allow(auth.ActionManageStock), inventory.DebitStockHandler(svc))
	protected.Get("/reports/stock.xlsx", allow(auth.ActionViewStock), inventory.ExportStockHandler(svc))

	// Production
	protected.Post("/batches", allow(auth.ActionCreateBatch), inventory.CreateBatchHandler(svc))
	protected.Get("/batches", allow(auth.ActionViewBatches), inventory.ListBatchesHandler(svc))
	protected.Get("/batches/:id", allow(auth.ActionViewBatches), inventory.GetBatchHandler(svc))
	protected.Post("/batches/:id/release", allow(auth.ActionReleaseBatch), inventory.ReleaseBatchHandler(svc))
	protected.Get("/finished-goods", allow(auth.ActionViewGoods), inventory.ListFinishedGoodsHandler(svc))

	// Shipments
	protected.Post("/shipments", allow(auth.ActionShip), inventory.CreateShipmentHandler(svc))
	protected.Get("/shipments", allow(auth.ActionViewShipments), inventory.ListShipmentsHandler(svc))
	protected.Get("/shipments/:id", allow(auth.ActionViewShipments), inventory.GetShipmentHandler(svc))
	protected.Post("/shipments/:id/items", allow(auth.ActionShip), inventory.AddShipmentItemHandler(svc))

	protected.Get("/dashboard/production-chart", allow(auth.ActionViewGoods), dashboard.ProductionChartHandler(d.DB))

	// Audit logs
	protected.Get("/audit-logs", allow(auth.ActionViewAudit), audit.ListAuditLogsHandler(d.DB))

	return app
}
