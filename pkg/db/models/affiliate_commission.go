package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agendaja-app/agendaja-backend/pkg/enums"
)

// AffiliateCommission is one ledger entry: rate x payment value for a
// confirmed payment of a referred company. payment_id is unique so webhook
// replays cannot double-credit.
type AffiliateCommission struct {
	ID          uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AffiliateID uuid.UUID              `gorm:"column:affiliate_id;type:uuid;not null;index"`
	CompanyID   uuid.UUID              `gorm:"column:company_id;type:uuid;not null;index"`
	PaymentID   string                 `gorm:"column:payment_id;not null;uniqueIndex:ux_affiliate_commissions_payment"`
	Rate        decimal.Decimal        `gorm:"column:rate;type:numeric(5,4);not null"`
	Amount      decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	Status      enums.CommissionStatus `gorm:"column:status;type:commission_status;not null;default:'pending'"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}
