package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"matstock-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultUnit = "adet"

type MaterialInput struct {
	Name    string
	Unit    string
	BaseQty decimal.Decimal
	MinQty  decimal.Decimal
}

type RuleInput struct {
	Pattern    string
	MaterialID uint
	Qty        decimal.Decimal
}

func (s *Service) ListMaterials(ctx context.Context) ([]models.Material, error) {
	var out []models.Material
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetMaterial(ctx context.Context, id uint) (*models.Material, error) {
	var m models.Material
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// CreateOrMergeMaterial aynı isimde malzeme varsa base_qty'sine ekler,
// yoksa yenisini oluşturur.
func (s *Service) CreateOrMergeMaterial(ctx context.Context, in MaterialInput) (*models.Material, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: malzeme adı boş", ErrInvalidInput)
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = defaultUnit
	}

	var mat models.Material
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("name = ?", name).Take(&mat).Error
		switch {
		case err == nil:
			return tx.Model(&models.Material{}).Where("id = ?", mat.ID).
				Update("base_qty", gorm.Expr("base_qty + ?", in.BaseQty)).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			mat = models.Material{
				Name:    name,
				Unit:    unit,
				BaseQty: in.BaseQty,
				MinQty:  in.MinQty,
			}
			return tx.Create(&mat).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("malzeme kaydedilemedi: %w", err)
	}

	s.checkAlertsQuietly(ctx, mat.ID)
	return s.GetMaterial(ctx, mat.ID)
}

// UpdateMaterial ad, birim, başlangıç ve minimum miktarı günceller.
func (s *Service) UpdateMaterial(ctx context.Context, id uint, in MaterialInput) (*models.Material, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: malzeme adı boş", ErrInvalidInput)
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = defaultUnit
	}

	res := s.db.WithContext(ctx).Model(&models.Material{}).Where("id = ?", id).Updates(map[string]any{
		"name":     name,
		"unit":     unit,
		"base_qty": in.BaseQty,
		"min_qty":  in.MinQty,
	})
	if res.Error != nil {
		return nil, fmt.Errorf("malzeme güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	s.checkAlertsQuietly(ctx, id)
	return s.GetMaterial(ctx, id)
}

// UpdateMinQty eşiği değiştirir ve alarm kontrolünü hemen çalıştırır.
func (s *Service) UpdateMinQty(ctx context.Context, id uint, min decimal.Decimal) (*models.Material, error) {
	res := s.db.WithContext(ctx).Model(&models.Material{}).Where("id = ?", id).Update("min_qty", min)
	if res.Error != nil {
		return nil, fmt.Errorf("minimum miktar güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	if err := s.CheckAlerts(ctx, id); err != nil {
		return nil, err
	}
	return s.GetMaterial(ctx, id)
}

// DeleteMaterial malzemeyi hareketleri ve kurallarıyla birlikte siler.
func (s *Service) DeleteMaterial(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("material_id = ?", id).Delete(&models.StockMovement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("material_id = ?", id).Delete(&models.MaterialRule{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Material{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Service) ListRules(ctx context.Context) ([]models.MaterialRule, error) {
	var out []models.MaterialRule
	if err := s.db.WithContext(ctx).Preload("Material").Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRules kuralları toplu ekler. material_id'si boş olanlar atlanır;
// geriye geçerli kural kalmazsa ErrInvalidInput döner.
func (s *Service) CreateRules(ctx context.Context, items []RuleInput) ([]models.MaterialRule, error) {
	rules := make([]models.MaterialRule, 0, len(items))
	for _, it := range items {
		if it.MaterialID == 0 {
			continue
		}
		pattern := strings.TrimSpace(it.Pattern)
		if pattern == "" {
			return nil, fmt.Errorf("%w: kural deseni boş", ErrInvalidInput)
		}
		qty := it.Qty
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		rules = append(rules, models.MaterialRule{Pattern: pattern, MaterialID: it.MaterialID, Qty: qty})
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: geçerli kural yok", ErrInvalidInput)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rules {
			var count int64
			if err := tx.Model(&models.Material{}).Where("id = ?", rules[i].MaterialID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("%w: malzeme %d", ErrNotFound, rules[i].MaterialID)
			}
			if err := tx.Omit(clause.Associations).Create(&rules[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	var out []models.MaterialRule
	if err := s.db.WithContext(ctx).Preload("Material").Where("id IN ?", ids).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) DeleteRule(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MaterialRule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
