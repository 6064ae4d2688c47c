package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/pkg/enums"
)

// ReminderSetting holds the per-company toggle and template for one reminder
// type. An inactive setting makes the dispatcher skip silently.
type ReminderSetting struct {
	ID              uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID       uuid.UUID          `gorm:"column:company_id;type:uuid;not null;uniqueIndex:ux_reminder_settings_company_type"`
	ReminderType    enums.ReminderType `gorm:"column:reminder_type;type:reminder_type;not null;uniqueIndex:ux_reminder_settings_company_type"`
	IsActive        bool               `gorm:"column:is_active;not null;default:true"`
	MessageTemplate string             `gorm:"column:message_template;not null"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
