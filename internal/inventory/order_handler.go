package inventory

import (
	"errors"

	"matstock-backend/internal/audit"
	"matstock-backend/internal/importer"
	"matstock-backend/internal/insales"
	"matstock-backend/internal/ledger"
	"matstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GET /api/orders (admin)
func ListOrdersHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := svc.ListOrders(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}
		return c.JSON(orders)
	}
}

// POST /api/orders/import (admin). InSales erişilemezse 502 döner.
func ImportOrdersHandler(svc *ledger.Service, im *importer.Importer, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := im.ImportRecent(c.UserContext())
		if err != nil {
			var se *insales.StatusError
			switch {
			case errors.Is(err, insales.ErrUpstreamUnavailable):
				return fiber.NewError(fiber.StatusBadGateway, "InSales API erişilemiyor")
			case errors.As(err, &se):
				return fiber.NewError(fiber.StatusBadGateway, "InSales hatası: "+se.Error())
			}
			log.Error("Manuel import başarısız", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler işlenemedi")
		}

		writeAudit(c, svc, log, audit.LogOptions{
			EntityType:  "order",
			Action:      models.AuditActionImport,
			Description: "Manuel import",
			After:       fiber.Map{"imported": n},
		})
		return c.JSON(fiber.Map{"imported": n})
	}
}

// DELETE /api/orders/:id (admin): siparişi stok etkisinden çıkarır.
func IgnoreOrderHandler(svc *ledger.Service, log *zap.Logger) fiber.Handler {
	return setIgnoredHandler(svc, log, true)
}

// PATCH /api/orders/:id/enable (admin): siparişi geri alır.
func EnableOrderHandler(svc *ledger.Service, log *zap.Logger) fiber.Handler {
	return setIgnoredHandler(svc, log, false)
}

func setIgnoredHandler(svc *ledger.Service, log *zap.Logger, ignore bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramInt64(c, "id")
		if err != nil {
			return err
		}
		changed, err := svc.SetIgnored(c.UserContext(), id, ignore)
		if err != nil {
			return toHTTPError(err, "Sipariş bulunamadı", "Sipariş güncellenemedi")
		}

		if changed {
			action, desc := models.AuditActionRestore, "Sipariş geri alındı"
			if ignore {
				action, desc = models.AuditActionIgnore, "Sipariş yok sayıldı"
			}
			writeAudit(c, svc, log, audit.LogOptions{
				EntityType:  "order",
				EntityID:    id,
				Action:      action,
				Description: desc,
				Before:      fiber.Map{"ignored": !ignore},
				After:       fiber.Map{"ignored": ignore},
			})
		}
		return c.JSON(fiber.Map{"ok": true, "changed": changed})
	}
}

// GET /api/import/status (admin)
func ImportStatusHandler(im *importer.Importer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(im.Status())
	}
}
