package inventory

import (
	"fmt"
	"time"

	"matstock-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// GET /api/materials/stock (tüm kullanıcılar)
func StockHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		levels, err := svc.StockLevels(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok hesaplanamadı")
		}
		return c.JSON(levels)
	}
}

// GET /api/materials/stock.xlsx (tüm kullanıcılar)
func StockExportHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		levels, err := svc.StockLevels(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok hesaplanamadı")
		}

		f, err := StockWorkbook(levels)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel oluşturulamadı")
		}
		defer f.Close()

		filename := fmt.Sprintf("stok_%s.xlsx", time.Now().UTC().Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
		return f.Write(c.Response().BodyWriter())
	}
}

// StockWorkbook stok listesini tek sayfalık bir çalışma kitabına yazar.
func StockWorkbook(levels []ledger.StockLevel) (*excelize.File, error) {
	const sheet = "Stok"

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, err
	}
	lowStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000", Bold: true},
	})
	if err != nil {
		return nil, err
	}

	headers := []string{"ID", "Malzeme", "Birim", "Miktar", "Minimum"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A1", "E1", headerStyle)

	for i, lv := range levels {
		row := i + 2
		qty, _ := lv.Qty.Float64()
		minQty, _ := lv.MinQty.Float64()
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), lv.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), lv.Name)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), lv.Unit)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), qty)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), minQty)
		if lv.Qty.LessThanOrEqual(lv.MinQty) {
			f.SetCellStyle(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), lowStyle)
		}
	}

	widths := []float64{8, 36, 10, 12, 12}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return f, nil
}
