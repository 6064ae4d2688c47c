package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
)

// Repository handles review invitation persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invitation *models.ReviewInvitation) error
	Update(ctx context.Context, invitation *models.ReviewInvitation) error
	FindByToken(ctx context.Context, token string) (*models.ReviewInvitation, error)
	FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*models.ReviewInvitation, error)
	ListRedeemed(ctx context.Context, companyID uuid.UUID) ([]models.ReviewInvitation, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a review repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invitation *models.ReviewInvitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

func (r *repository) Update(ctx context.Context, invitation *models.ReviewInvitation) error {
	return r.db.WithContext(ctx).Save(invitation).Error
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.ReviewInvitation, error) {
	var invitation models.ReviewInvitation
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&invitation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*models.ReviewInvitation, error) {
	var invitation models.ReviewInvitation
	if err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		First(&invitation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) ListRedeemed(ctx context.Context, companyID uuid.UUID) ([]models.ReviewInvitation, error) {
	var invitations []models.ReviewInvitation
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND redeemed_at IS NOT NULL", companyID).
		Order("redeemed_at DESC").
		Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}
