package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
)

// Repository handles subscription and payment-alert persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	FindPlan(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	UpdateSubscriptionStatus(ctx context.Context, companyID uuid.UUID, status enums.SubscriptionStatus) error
	ListTrialCompanies(ctx context.Context, limit int) ([]models.Company, error)
	ListCompaniesForReconciliation(ctx context.Context, limit int) ([]models.Company, error)
	ListAlerts(ctx context.Context, companyID uuid.UUID) ([]models.PaymentAlert, error)
	FindAlert(ctx context.Context, id uuid.UUID) (*models.PaymentAlert, error)
	CreateAlert(ctx context.Context, alert *models.PaymentAlert) error
	UpdateAlert(ctx context.Context, alert *models.PaymentAlert) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&company).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *repository) FindPlan(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&plan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) UpdateSubscriptionStatus(ctx context.Context, companyID uuid.UUID, status enums.SubscriptionStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", companyID).
		Updates(map[string]any{
			"subscription_status": status,
			"updated_at":          time.Now().UTC(),
		}).Error
}

func (r *repository) ListTrialCompanies(ctx context.Context, limit int) ([]models.Company, error) {
	if limit <= 0 {
		limit = 250
	}
	var companies []models.Company
	if err := r.db.WithContext(ctx).
		Where("is_active = true").
		Where("subscription_status = ?", enums.SubscriptionStatusTrial).
		Where("trial_expires_at IS NOT NULL").
		Order("trial_expires_at ASC").
		Limit(limit).
		Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repository) ListCompaniesForReconciliation(ctx context.Context, limit int) ([]models.Company, error) {
	if limit <= 0 {
		limit = 250
	}
	var companies []models.Company
	if err := r.db.WithContext(ctx).
		Where("asaas_customer_id IS NOT NULL").
		Order("updated_at ASC").
		Limit(limit).
		Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repository) ListAlerts(ctx context.Context, companyID uuid.UUID) ([]models.PaymentAlert, error) {
	var alerts []models.PaymentAlert
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repository) FindAlert(ctx context.Context, id uuid.UUID) (*models.PaymentAlert, error) {
	var alert models.PaymentAlert
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&alert).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

func (r *repository) CreateAlert(ctx context.Context, alert *models.PaymentAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *repository) UpdateAlert(ctx context.Context, alert *models.PaymentAlert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}
