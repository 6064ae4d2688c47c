package affiliates

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
)

// Repository handles affiliate and commission persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, affiliate *models.Affiliate) error
	Update(ctx context.Context, affiliate *models.Affiliate) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error)
	FindByReferralCode(ctx context.Context, code string) (*models.Affiliate, error)
	CreateCommission(ctx context.Context, commission *models.AffiliateCommission) error
	ListCommissions(ctx context.Context, affiliateID uuid.UUID) ([]models.AffiliateCommission, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an affiliate repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, affiliate *models.Affiliate) error {
	return r.db.WithContext(ctx).Create(affiliate).Error
}

func (r *repository) Update(ctx context.Context, affiliate *models.Affiliate) error {
	return r.db.WithContext(ctx).Save(affiliate).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&affiliate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *repository) FindByReferralCode(ctx context.Context, code string) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := r.db.WithContext(ctx).
		Where("referral_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&affiliate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *repository) CreateCommission(ctx context.Context, commission *models.AffiliateCommission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

func (r *repository) ListCommissions(ctx context.Context, affiliateID uuid.UUID) ([]models.AffiliateCommission, error) {
	var commissions []models.AffiliateCommission
	if err := r.db.WithContext(ctx).
		Where("affiliate_id = ?", affiliateID).
		Order("created_at DESC").
		Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}
