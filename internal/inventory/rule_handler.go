package inventory

import (
	"fmt"

	"matstock-backend/internal/audit"
	"matstock-backend/internal/ledger"
	"matstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RuleRequest struct {
	Pattern    string          `json:"pattern"`
	MaterialID uint            `json:"material_id"`
	Qty        decimal.Decimal `json:"qty"`
}

// GET /api/rules (admin)
func ListRulesHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rules, err := svc.ListRules(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kurallar listelenemedi")
		}
		return c.JSON(rules)
	}
}

// POST /api/rules (admin). Gövde tek kural ya da kural listesi olabilir.
func CreateRulesHandler(svc *ledger.Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var items []RuleRequest
		if err := c.BodyParser(&items); err != nil {
			var single RuleRequest
			if err := c.BodyParser(&single); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
			}
			items = []RuleRequest{single}
		}

		inputs := make([]ledger.RuleInput, 0, len(items))
		for _, it := range items {
			inputs = append(inputs, ledger.RuleInput{Pattern: it.Pattern, MaterialID: it.MaterialID, Qty: it.Qty})
		}

		rules, err := svc.CreateRules(c.UserContext(), inputs)
		if err != nil {
			return toHTTPError(err, "Malzeme bulunamadı", "Kurallar kaydedilemedi")
		}

		for _, r := range rules {
			writeAudit(c, svc, log, audit.LogOptions{
				EntityType:  "material_rule",
				EntityID:    int64(r.ID),
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Kural eklendi: %q → %s ×%s", r.Pattern, r.Material.Name, r.Qty),
				After:       r,
			})
		}
		return c.Status(fiber.StatusCreated).JSON(rules)
	}
}

// DELETE /api/rules/:id (admin). Mevcut hareketlere dokunmaz.
func DeleteRuleHandler(svc *ledger.Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramUint(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteRule(c.UserContext(), id); err != nil {
			return toHTTPError(err, "Kural bulunamadı", "Kural silinemedi")
		}

		writeAudit(c, svc, log, audit.LogOptions{
			EntityType:  "material_rule",
			EntityID:    int64(id),
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Kural silindi: #%d", id),
		})
		return c.JSON(fiber.Map{"ok": true})
	}
}
