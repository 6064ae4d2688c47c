package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/pkg/enums"
)

// ReminderHistory is the append-only log of outbound reminder attempts. It is
// both the audit trail and the dedup key: a partial unique index over
// (appointment_id, reminder_type) WHERE status = 'sent' serializes
// check-then-insert for a pair, while failed rows keep the pair retryable.
type ReminderHistory struct {
	ID            uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AppointmentID uuid.UUID            `gorm:"column:appointment_id;type:uuid;not null;index:ix_reminder_history_pair"`
	CompanyID     uuid.UUID            `gorm:"column:company_id;type:uuid;not null;index"`
	ReminderType  enums.ReminderType   `gorm:"column:reminder_type;type:reminder_type;not null;index:ix_reminder_history_pair"`
	Status        enums.ReminderStatus `gorm:"column:status;type:reminder_status;not null"`
	Phone         string               `gorm:"column:phone;not null"`
	Message       string               `gorm:"column:message;not null"`
	ProviderID    *string              `gorm:"column:provider_id"`
	ErrorMessage  *string              `gorm:"column:error_message"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
}
