package server

import (
	"strings"

	"matstock-backend/internal/audit"
	"matstock-backend/internal/auth"
	"matstock-backend/internal/config"
	"matstock-backend/internal/importer"
	"matstock-backend/internal/inventory"
	"matstock-backend/internal/ledger"
	"matstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

type Deps struct {
	Config   *config.Config
	Ledger   *ledger.Service
	Importer *importer.Importer
	Log      *zap.Logger
}

// New tüm API route'larını kurulu bir Fiber uygulaması döner.
func New(d Deps) *fiber.App {
	cfg := d.Config
	log := d.Log.Named("http")
	db := d.Ledger.DB()
	svc := d.Ledger

	app := fiber.New(fiber.Config{
		AppName:      "matstock",
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(requestLogger(log))

	// CORS origins virgülle ayrılmış string olarak gelir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db_unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public auth
	api.Post("/auth/login", auth.LoginHandler(db, cfg.JWTSecret))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(db))

	// Tüm kullanıcılar: stok, geçmiş, düzeltme, hazır filmler
	protected.Get("/materials/stock", inventory.StockHandler(svc))
	protected.Get("/materials/stock.xlsx", inventory.StockExportHandler(svc))
	protected.Get("/materials/:id/history", inventory.HistoryHandler(svc))
	protected.Patch("/materials/:id/adjust", inventory.AdjustHandler(svc, log))
	protected.Get("/films", inventory.ListFilmsHandler(svc))

	// Admin
	admin := protected.Group("", auth.RequireRole(models.RoleAdmin))

	admin.Get("/materials", inventory.ListMaterialsHandler(svc))
	admin.Post("/materials", inventory.CreateMaterialHandler(svc, log))
	admin.Put("/materials/:id", inventory.UpdateMaterialHandler(svc, log))
	admin.Delete("/materials/:id", inventory.DeleteMaterialHandler(svc, log))
	admin.Patch("/materials/:id/min", inventory.UpdateMinQtyHandler(svc, log))

	admin.Get("/rules", inventory.ListRulesHandler(svc))
	admin.Post("/rules", inventory.CreateRulesHandler(svc, log))
	admin.Delete("/rules/:id", inventory.DeleteRuleHandler(svc, log))

	admin.Get("/orders", inventory.ListOrdersHandler(svc))
	admin.Post("/orders/import", inventory.ImportOrdersHandler(svc, d.Importer, log))
	admin.Delete("/orders/:id", inventory.IgnoreOrderHandler(svc, log))
	admin.Patch("/orders/:id/enable", inventory.EnableOrderHandler(svc, log))
	admin.Get("/import/status", inventory.ImportStatusHandler(d.Importer))

	admin.Get("/stats/totals", inventory.TotalsHandler(svc))

	admin.Get("/users", auth.ListUsersHandler(db))
	admin.Post("/users", auth.CreateUserHandler(db))
	admin.Patch("/users/:id/state", auth.ToggleUserStateHandler(db))
	admin.Patch("/users/:id/role", auth.ChangeRoleHandler(db))
	admin.Patch("/users/:id/password", auth.ChangePasswordHandler(db))

	admin.Get("/audit-logs", audit.ListAuditLogsHandler(db))

	return app
}
