package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
)

// Repository handles reminder settings, history, and the dispatcher's
// appointment scans.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListDueAppointments(ctx context.Context, windowStart, windowEnd time.Time, limit int) ([]models.Appointment, error)
	FindAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	ListSettings(ctx context.Context, companyID uuid.UUID) ([]models.ReminderSetting, error)
	FindSetting(ctx context.Context, companyID uuid.UUID, reminderType enums.ReminderType) (*models.ReminderSetting, error)
	UpsertSetting(ctx context.Context, setting *models.ReminderSetting) error
	HasSentReminder(ctx context.Context, appointmentID uuid.UUID, reminderType enums.ReminderType) (bool, error)
	CreateHistory(ctx context.Context, entry *models.ReminderHistory) error
	ListHistory(ctx context.Context, companyID uuid.UUID, limit int) ([]models.ReminderHistory, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reminders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListDueAppointments(ctx context.Context, windowStart, windowEnd time.Time, limit int) ([]models.Appointment, error) {
	if limit <= 0 {
		limit = 200
	}
	statuses := []enums.AppointmentStatus{
		enums.AppointmentStatusScheduled,
		enums.AppointmentStatusConfirmed,
	}
	var appointments []models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Company").
		Preload("Professional").
		Preload("Service").
		Where("status IN (?)", statuses).
		Where("starts_at > ? AND starts_at <= ?", windowStart, windowEnd).
		Order("starts_at ASC").
		Limit(limit).
		Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *repository) FindAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Company").
		Preload("Professional").
		Preload("Service").
		Where("id = ?", id).
		First(&appointment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *repository) ListSettings(ctx context.Context, companyID uuid.UUID) ([]models.ReminderSetting, error) {
	var settings []models.ReminderSetting
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("reminder_type ASC").
		Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *repository) FindSetting(ctx context.Context, companyID uuid.UUID, reminderType enums.ReminderType) (*models.ReminderSetting, error) {
	var setting models.ReminderSetting
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND reminder_type = ?", companyID, reminderType).
		First(&setting).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

func (r *repository) UpsertSetting(ctx context.Context, setting *models.ReminderSetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "reminder_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_active", "message_template", "updated_at"}),
		}).
		Create(setting).Error
}

func (r *repository) HasSentReminder(ctx context.Context, appointmentID uuid.UUID, reminderType enums.ReminderType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReminderHistory{}).
		Where("appointment_id = ? AND reminder_type = ? AND status = ?",
			appointmentID, reminderType, enums.ReminderStatusSent).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) CreateHistory(ctx context.Context, entry *models.ReminderHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListHistory(ctx context.Context, companyID uuid.UUID, limit int) ([]models.ReminderHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.ReminderHistory
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
