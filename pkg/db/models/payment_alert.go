package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/pkg/enums"
)

// PaymentAlert is a trial-expiry warning surfaced to the company dashboard.
// The (company_id, alert_type) pair is unique: re-evaluation never creates a
// second row and dismissed alerts are not resurrected.
type PaymentAlert struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID uuid.UUID       `gorm:"column:company_id;type:uuid;not null;uniqueIndex:ux_payment_alerts_company_type"`
	AlertType enums.AlertType `gorm:"column:alert_type;type:alert_type;not null;uniqueIndex:ux_payment_alerts_company_type"`
	IsShown   bool            `gorm:"column:is_shown;not null;default:false"`
	ShownAt   *time.Time      `gorm:"column:shown_at"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
