package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewInvitation is a single-use token inviting the client of a completed
// appointment to leave a rating. One invitation per appointment.
type ReviewInvitation struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID     uuid.UUID  `gorm:"column:company_id;type:uuid;not null;index"`
	AppointmentID uuid.UUID  `gorm:"column:appointment_id;type:uuid;not null;uniqueIndex"`
	Token         string     `gorm:"column:token;not null;uniqueIndex"`
	ExpiresAt     time.Time  `gorm:"column:expires_at;not null"`
	RedeemedAt    *time.Time `gorm:"column:redeemed_at"`
	Rating        *int       `gorm:"column:rating"`
	Comment       *string    `gorm:"column:comment"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}
