package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"matstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func LoginHandler(db *gorm.DB, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Username = strings.TrimSpace(strings.ToLower(body.Username))

		var user models.User
		if err := db.Where("username = ? AND is_active = ?", body.Username, true).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı adı veya şifre hatalı")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı adı veya şifre hatalı")
		}

		token, err := GenerateToken(secret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.JSON(fiber.Map{
			"access_token": token,
			"token_type":   "bearer",
			"user": fiber.Map{
				"id":       user.ID,
				"username": user.Username,
				"role":     user.Role,
			},
		})
	}
}

func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := CurrentUser(c)

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı bulunamadı")
		}

		return c.JSON(fiber.Map{
			"user_id":  user.ID,
			"username": user.Username,
			"role":     user.Role,
		})
	}
}

// UpsertUser kullanıcıyı oluşturur; varsa şifresini ve rolünü günceller.
func UpsertUser(ctx context.Context, db *gorm.DB, username, password string, role models.UserRole) (*models.User, bool, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return nil, false, errors.New("kullanıcı adı ve şifre zorunlu")
	}
	switch role {
	case models.RoleAdmin, models.RoleCollector:
	default:
		return nil, false, fmt.Errorf("geçersiz rol: %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("şifre hashlenemedi: %w", err)
	}

	var user models.User
	err = db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		user.PasswordHash = string(hash)
		user.Role = role
		user.IsActive = true
		if err := db.WithContext(ctx).Save(&user).Error; err != nil {
			return nil, false, fmt.Errorf("kullanıcı güncellenemedi: %w", err)
		}
		return &user, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Username:     username,
			PasswordHash: string(hash),
			Role:         role,
			IsActive:     true,
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, false, fmt.Errorf("kullanıcı oluşturulamadı: %w", err)
		}
		return &user, true, nil
	default:
		return nil, false, err
	}
}
