package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	"github.com/agendaja-app/agendaja-backend/pkg/pagination"
)

// Repository handles appointment and staff/service-catalog persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, appointment *models.Appointment) error
	Update(ctx context.Context, appointment *models.Appointment) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.Appointment, error)
	List(ctx context.Context, params ListQuery) ([]models.Appointment, *pagination.Cursor, error)
	FindProfessional(ctx context.Context, companyID, id uuid.UUID) (*models.Professional, error)
	FindService(ctx context.Context, companyID, id uuid.UUID) (*models.Service, error)
	CountOverlapping(ctx context.Context, companyID uuid.UUID, professionalID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (int64, error)
}

// ListQuery configures appointment list queries.
type ListQuery struct {
	CompanyID uuid.UUID
	Status    *enums.AppointmentStatus
	From      *time.Time
	To        *time.Time
	Limit     int
	Cursor    *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an appointment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Create(appointment).Error
}

func (r *repository) Update(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Save(appointment).Error
}

func (r *repository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Professional").
		Preload("Service").
		Where("company_id = ? AND id = ?", companyID, id).
		First(&appointment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *repository) List(ctx context.Context, params ListQuery) ([]models.Appointment, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("company_id = ?", params.CompanyID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.From != nil {
		query = query.Where("starts_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("starts_at < ?", *params.To)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var appointments []models.Appointment
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&appointments).Error; err != nil {
		return nil, nil, err
	}

	if len(appointments) > limit {
		appointments = appointments[:limit]
		// Anchor the cursor on the last row returned so the strict
		// (created_at, id) < (?, ?) filter resumes at the next row.
		last := appointments[limit-1]
		return appointments, &pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		}, nil
	}
	return appointments, nil, nil
}

func (r *repository) FindProfessional(ctx context.Context, companyID, id uuid.UUID) (*models.Professional, error) {
	var professional models.Professional
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&professional).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &professional, nil
}

func (r *repository) FindService(ctx context.Context, companyID, id uuid.UUID) (*models.Service, error) {
	var service models.Service
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&service).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &service, nil
}

func (r *repository) CountOverlapping(ctx context.Context, companyID uuid.UUID, professionalID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (int64, error) {
	statuses := []enums.AppointmentStatus{
		enums.AppointmentStatusScheduled,
		enums.AppointmentStatusConfirmed,
	}
	query := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("company_id = ?", companyID).
		Where("status IN (?)", statuses).
		Where("starts_at >= ? AND starts_at < ?", start, end)
	if professionalID != nil {
		query = query.Where("professional_id = ?", *professionalID)
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
