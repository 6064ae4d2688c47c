package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/pkg/enums"
)

// Appointment is a tenant-scoped booking consumed by the reminder dispatcher.
type Appointment struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID      uuid.UUID  `gorm:"column:company_id;type:uuid;not null;index"`
	ProfessionalID *uuid.UUID `gorm:"column:professional_id;type:uuid"`
	ServiceID      *uuid.UUID `gorm:"column:service_id;type:uuid"`

	ClientName  string `gorm:"column:client_name;not null"`
	ClientPhone string `gorm:"column:client_phone;not null"`

	StartsAt time.Time               `gorm:"column:starts_at;not null;index"`
	Status   enums.AppointmentStatus `gorm:"column:status;type:appointment_status;not null;default:'scheduled'"`
	Notes    *string                 `gorm:"column:notes"`

	Company      *Company      `gorm:"foreignKey:CompanyID"`
	Professional *Professional `gorm:"foreignKey:ProfessionalID"`
	Service      *Service      `gorm:"foreignKey:ServiceID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
