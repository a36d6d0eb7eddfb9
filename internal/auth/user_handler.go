package auth

import (
	"errors"
	"strings"

	"matstock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserResponse struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
	IsActive bool            `json:"is_active"`
}

type CreateUserRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Role: u.Role, IsActive: u.IsActive}
}

// GET /api/users (admin)
func ListUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := db.Order("username").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcılar listelenemedi")
		}
		res := make([]UserResponse, 0, len(users))
		for _, u := range users {
			res = append(res, toUserResponse(u))
		}
		return c.JSON(res)
	}
}

// POST /api/users (admin)
func CreateUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		body.Username = strings.TrimSpace(strings.ToLower(body.Username))
		if body.Role == "" {
			body.Role = models.RoleCollector
		}
		if body.Username == "" || len(body.Password) < 6 {
			return fiber.NewError(fiber.StatusBadRequest, "Kullanıcı adı zorunlu, şifre en az 6 karakter olmalı")
		}
		if !validRole(body.Role) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz rol")
		}

		var count int64
		db.Model(&models.User{}).Where("username = ?", body.Username).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu kullanıcı adı zaten kullanılıyor")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		user := models.User{
			Username:     body.Username,
			PasswordHash: string(hash),
			Role:         body.Role,
			IsActive:     true,
		}
		if err := db.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// PATCH /api/users/:id/state (admin): aktif/pasif arasında geçiş yapar.
func ToggleUserStateHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := findUser(db, c)
		if err != nil {
			return err
		}
		if selfID, _ := CurrentUser(c); selfID == user.ID {
			return fiber.NewError(fiber.StatusBadRequest, "Kendi hesabınızı pasifleştiremezsiniz")
		}
		user.IsActive = !user.IsActive
		if err := db.Model(&user).Update("is_active", user.IsActive).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı güncellenemedi")
		}
		return c.JSON(fiber.Map{"ok": true, "is_active": user.IsActive})
	}
}

// PATCH /api/users/:id/role?role=admin (admin)
func ChangeRoleHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := models.UserRole(c.Query("role"))
		if role == "" {
			var body struct {
				Role models.UserRole `json:"role"`
			}
			if err := c.BodyParser(&body); err == nil {
				role = body.Role
			}
		}
		if !validRole(role) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz rol")
		}
		user, err := findUser(db, c)
		if err != nil {
			return err
		}
		if err := db.Model(&user).Update("role", role).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı güncellenemedi")
		}
		return c.JSON(fiber.Map{"ok": true, "role": role})
	}
}

// PATCH /api/users/:id/password (admin)
func ChangePasswordHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			NewPassword string `json:"new_password"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.NewPassword) < 6 {
			return fiber.NewError(fiber.StatusBadRequest, "Şifre en az 6 karakter olmalı")
		}
		user, err := findUser(db, c)
		if err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}
		if err := db.Model(&user).Update("password_hash", string(hash)).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre güncellenemedi")
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

func findUser(db *gorm.DB, c *fiber.Ctx) (models.User, error) {
	var user models.User
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return user, fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
	}
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
		}
		return user, fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı okunamadı")
	}
	return user, nil
}

func validRole(r models.UserRole) bool {
	return r == models.RoleAdmin || r == models.RoleCollector
}
