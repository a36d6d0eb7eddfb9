package ledger

import (
	"context"
	"errors"
	"fmt"

	"matstock-backend/internal/models"

	"gorm.io/gorm"
)

func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ?", id).
		Take(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// ReplaceReadyFilms hazır film tablosunu verilen satırlarla tamamen değiştirir.
func (s *Service) ReplaceReadyFilms(ctx context.Context, lines []LineSnapshot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ReadyFilm{}).Error; err != nil {
			return fmt.Errorf("hazır filmler silinemedi: %w", err)
		}
		if len(lines) == 0 {
			return nil
		}
		now := s.now()
		films := make([]models.ReadyFilm, 0, len(lines))
		for _, ln := range lines {
			films = append(films, models.ReadyFilm{
				SKU:       ln.SKU,
				Title:     ln.Title,
				Quantity:  ln.Quantity,
				UpdatedAt: now,
			})
		}
		return tx.Create(&films).Error
	})
}

func (s *Service) ListReadyFilms(ctx context.Context) ([]models.ReadyFilm, error) {
	var out []models.ReadyFilm
	if err := s.db.WithContext(ctx).Order("title").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ReadyTitles hazır stokta bulunan ürün başlıklarının kümesi.
func (s *Service) ReadyTitles(ctx context.Context) (map[string]struct{}, error) {
	var titles []string
	if err := s.db.WithContext(ctx).Model(&models.ReadyFilm{}).Pluck("title", &titles).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		set[t] = struct{}{}
	}
	return set, nil
}
