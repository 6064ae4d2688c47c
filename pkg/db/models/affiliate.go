package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Affiliate refers companies to the platform in exchange for a commission on
// confirmed payments.
type Affiliate struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Email          string          `gorm:"column:email;not null;uniqueIndex"`
	ReferralCode   string          `gorm:"column:referral_code;not null;uniqueIndex"`
	CommissionRate decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,4);not null"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
