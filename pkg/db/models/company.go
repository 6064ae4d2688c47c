package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/pkg/enums"
)

// Company is the tenant root. Companies are never deleted, only deactivated.
// subscription_status is written exclusively by the payment webhook handler
// and the reconcile job; the evaluator recomputes a view and never persists.
type Company struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Document     string    `gorm:"column:document;not null"`
	FantasyName  string    `gorm:"column:fantasy_name;not null"`
	Phone        *string   `gorm:"column:phone"`

	PlanID             *uuid.UUID               `gorm:"column:plan_id;type:uuid;index"`
	IsActive           bool                     `gorm:"column:is_active;not null;default:true"`
	SubscriptionStatus enums.SubscriptionStatus `gorm:"column:subscription_status;type:subscription_status;not null;default:'trial'"`
	TrialExpiresAt     *time.Time               `gorm:"column:trial_expires_at"`

	AsaasCustomerID     *string `gorm:"column:asaas_customer_id;index"`
	AsaasSubscriptionID *string `gorm:"column:asaas_subscription_id"`

	ReferredByAffiliateID *uuid.UUID `gorm:"column:referred_by_affiliate_id;type:uuid"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
