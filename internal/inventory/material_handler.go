package inventory

import (
	"fmt"

	"matstock-backend/internal/audit"
	"matstock-backend/internal/auth"
	"matstock-backend/internal/ledger"
	"matstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type MaterialRequest struct {
	Name    string          `json:"name"`
	Unit    string          `json:"unit"`
	BaseQty decimal.Decimal `json:"base_qty"`
	MinQty  decimal.Decimal `json:"min_qty"`
}

func (r MaterialRequest) input() ledger.MaterialInput {
	return ledger.MaterialInput{Name: r.Name, Unit: r.Unit, BaseQty: r.BaseQty, MinQty: r.MinQty}
}

// GET /api/materials (admin)
func ListMaterialsHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mats, err := svc.ListMaterials(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzemeler listelenemedi")
		}
		return c.JSON(mats)
	}
}

// POST /api/materials (admin). Aynı isimde malzeme varsa base_qty'ye eklenir.
func CreateMaterialHandler(svc *ledger.Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body MaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		mat, err := svc.CreateOrMergeMaterial(c.UserContext(), body.input())
		if err != nil {
			return toHTTPError(err, "Malzeme bulunamadı", "Malzeme kaydedilemedi")
		}

		writeAudit(c, svc, log, audit.LogOptions{
			EntityType:  "material",
			EntityID:    int64(mat.ID),
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Malzeme eklendi: %s (+%s)", mat.Name, body.BaseQty),
			After:       mat,
		})
		return c.Status(fiber.StatusCreated).JSON(mat)
	}
}

// PUT /api/materials/:id (admin)
func UpdateMaterialHandler(svc *ledger.Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUint(c, "id")
		if err != nil {
			return err
		}
		var body MaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		before, err := svc.GetMaterial(c.UserContext(), id)
		if err != nil {
			return toHTTPError(err, "Malzeme bulunamadı", "Malzeme okunamadı")
		}
		mat, err := svc.UpdateMaterial(c.UserContext(), id, body.input())
		if err != nil {
			return toHTTPError(err, "Malzeme bulunamadı", "Malzeme güncellenemedi")
		}

		writeAudit(c, svc, log, audit.LogOptions{
			EntityType:  "material",
			EntityID:    int64(id),
			Action:      models.AuditActionUpdate,
			Description: "Malzeme güncellendi: " + mat.Name,
			Before:      before,
			After:       mat,
		})
		return c.JSON(mat)
	}
}

// DELETE /api/materials/:id (admin). Hareketler ve kurallar da silinir.
func DeleteMaterialHandler(svc *ledger.Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUint(c, "id")
		if err != nil {
			return err
		}
		before, err := svc.GetMaterial(c.UserContext(), id)
		if err != nil {
			return toHTTPError(err, "Malzeme bulunamadı", "Malzeme okunamadı")
		}
		if err := svc.DeleteMaterial(c.UserContext(), id); err != nil {
			return toHTTPError(err, "Malzeme bulunamadı", "Malzeme silinemedi")
		}

		writeAudit(c, svc, log, audit.LogOptions{
			EntityType:  "material",
			EntityID:    int64(id),
			Action:      models.AuditActionDelete,
			Description: "Malzeme silindi: " + before.Name,
			Before:      before,
		})
		return c.JSON(fiber.Map{"ok": true})
	}
}

// PATCH /api/materials/:id/min?value=5 (admin)
func UpdateMinQtyHandler(svc *ledger.Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUint(c, "id")
		if err != nil {
			return err
		}
		value, err := decimalValue(c, "value")
		if err != nil {
			return err
		}
		if value.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "Minimum miktar negatif olamaz")
		}

		before, err := svc.GetMaterial(c.UserContext(), id)
		if err != nil {
			return toHTTPError(err, "Malzeme bulunamadı", "Malzeme okunamadı")
		}
		mat, err := svc.UpdateMinQty(c.UserContext(), id, value)
		if err != nil {
			return toHTTPError(err, "Malzeme bulunamadı", "Minimum miktar güncellenemedi")
		}

		writeAudit(c, svc, log, audit.LogOptions{
			EntityType:  "material",
			EntityID:    int64(id),
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Minimum miktar %s → %s", before.MinQty, value),
			Before:      fiber.Map{"min_qty": before.MinQty},
			After:       fiber.Map{"min_qty": mat.MinQty, "alerted": mat.Alerted},
		})
		return c.JSON(fiber.Map{"ok": true, "min_qty": mat.MinQty, "alerted": mat.Alerted})
	}
}

// PATCH /api/materials/:id/adjust?delta=-2.5 (tüm kullanıcılar)
func AdjustHandler(svc *ledger.Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUint(c, "id")
		if err != nil {
			return err
		}
		delta, err := decimalValue(c, "delta")
		if err != nil {
			return err
		}
		if delta.IsZero() {
			return fiber.NewError(fiber.StatusBadRequest, "delta sıfır olamaz")
		}

		mv, err := svc.AddAdjustment(c.UserContext(), id, delta)
		if err != nil {
			return toHTTPError(err, "Malzeme bulunamadı", "Düzeltme kaydedilemedi")
		}
		qty, err := svc.CurrentQty(c.UserContext(), id)
		if err != nil {
			return toHTTPError(err, "Malzeme bulunamadı", "Miktar hesaplanamadı")
		}

		writeAudit(c, svc, log, audit.LogOptions{
			EntityType:  "material",
			EntityID:    int64(id),
			Action:      models.AuditActionAdjust,
			Description: "Manuel düzeltme: " + delta.String(),
			After:       mv,
		})
		return c.JSON(fiber.Map{"ok": true, "qty": qty})
	}
}

// GET /api/materials/:id/history?limit=50 (tüm kullanıcılar)
func HistoryHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUint(c, "id")
		if err != nil {
			return err
		}
		entries, err := svc.History(c.UserContext(), id, c.QueryInt("limit", 50))
		if err != nil {
			return toHTTPError(err, "Malzeme bulunamadı", "Geçmiş okunamadı")
		}
		return c.JSON(entries)
	}
}

// writeAudit audit kaydını yazar; hata isteği bozmaz, sadece loglanır.
func writeAudit(c *fiber.Ctx, svc *ledger.Service, log *zap.Logger, opts audit.LogOptions) {
	opts.UserID, opts.UserName = auth.CurrentUser(c)
	if err := audit.WriteLog(c.UserContext(), svc.DB(), opts); err != nil {
		log.Warn("Audit log yazılamadı",
			zap.String("entity", opts.EntityType),
			zap.Int64("entity_id", opts.EntityID),
			zap.Error(err))
	}
}
