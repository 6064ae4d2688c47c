package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is a bookable offering (haircut, manicure, ...) of a company.
type Service struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID       uuid.UUID       `gorm:"column:company_id;type:uuid;not null;index"`
	Name            string          `gorm:"column:name;not null"`
	DurationMinutes int             `gorm:"column:duration_minutes;not null;default:30"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
