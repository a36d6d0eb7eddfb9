package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionDelete  AuditAction = "delete"
	AuditActionIgnore  AuditAction = "ignore"
	AuditActionRestore AuditAction = "restore"
	AuditActionAdjust  AuditAction = "adjust"
	AuditActionImport  AuditAction = "import"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Hangi kullanıcı? (0 = sistem)
	UserID   uint   `json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"`

	// Hangi entity? (ör: "material", "material_rule", "order", "stock_movement")
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   int64  `gorm:"index" json:"entity_id"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	BeforeData datatypes.JSON `json:"before_data"`
	AfterData  datatypes.JSON `json:"after_data"`
}
