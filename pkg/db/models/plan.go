package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Plan captures the catalog metadata for a subscription plan. Plans are an
// immutable reference during a billing cycle: changing FreeDays does not
// retroactively move an already-computed trial_expires_at.
type Plan struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string          `gorm:"column:name;not null;uniqueIndex"`
	FreeDays         int             `gorm:"column:free_days;not null;default:0"`
	Price            decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	MaxProfessionals int             `gorm:"column:max_professionals;not null;default:1"`
	IsActive         bool            `gorm:"column:is_active;not null;default:true"`
	Features         pq.StringArray  `gorm:"column:features;type:text[];default:ARRAY[]::text[]"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// HasFeature reports whether the plan enables the named feature flag.
func (p Plan) HasFeature(name string) bool {
	for _, feature := range p.Features {
		if feature == name {
			return true
		}
	}
	return false
}
