package inventory

import (
	"time"

	"matstock-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
)

// GET /api/stats/totals?year=2025&month=3 (admin)
// Parametre yoksa son 12 ay.
func TotalsHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year := c.QueryInt("year", 0)
		month := c.QueryInt("month", 0)
		if (year == 0) != (month == 0) {
			return fiber.NewError(fiber.StatusBadRequest, "year ve month birlikte verilmeli")
		}
		if month != 0 && (month < 1 || month > 12) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ay")
		}

		from, to := ledger.StatsWindow(time.Now(), year, month)
		totals, err := svc.Totals(c.UserContext(), from, to)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstatistik hesaplanamadı")
		}
		return c.JSON(totals)
	}
}
