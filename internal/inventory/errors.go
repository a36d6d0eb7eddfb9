package inventory

import (
	"errors"
	"strconv"

	"matstock-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// toHTTPError defter hatalarını HTTP durum kodlarına çevirir.
func toHTTPError(err error, notFoundMsg, failMsg string) error {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, notFoundMsg)
	case errors.Is(err, ledger.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, failMsg)
	}
}

func paramUint(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz ID")
	}
	return uint(id), nil
}

func paramInt64(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz ID")
	}
	return id, nil
}

// decimalValue miktarı önce query'den (?value=), yoksa JSON gövdesinden okur.
func decimalValue(c *fiber.Ctx, key string) (decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		var body map[string]decimal.Decimal
		if err := c.BodyParser(&body); err == nil {
			if v, ok := body[key]; ok {
				return v, nil
			}
		}
		return decimal.Zero, fiber.NewError(fiber.StatusBadRequest, key+" zorunlu")
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fiber.NewError(fiber.StatusBadRequest, "Geçersiz "+key)
	}
	return v, nil
}
