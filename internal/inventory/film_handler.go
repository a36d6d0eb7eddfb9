package inventory

import (
	"matstock-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
)

// GET /api/films (tüm kullanıcılar)
func ListFilmsHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		films, err := svc.ListReadyFilms(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hazır filmler listelenemedi")
		}
		return c.JSON(films)
	}
}
