package companies

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/pkg/config"
	"github.com/agendaja-app/agendaja-backend/pkg/db"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/security"
)

// PlanCatalog resolves subscription plans at registration time.
type PlanCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
}

// ReferralResolver maps an affiliate referral code to its owner.
type ReferralResolver interface {
	ResolveReferralCode(ctx context.Context, code string) (*models.Affiliate, error)
}

// DefaultsSeeder provisions per-company defaults after registration.
type DefaultsSeeder interface {
	SeedDefaults(ctx context.Context, companyID uuid.UUID) error
}

// ServiceParams groups dependencies for the company service.
type ServiceParams struct {
	Repo      Repository
	Plans     PlanCatalog
	Referrals ReferralResolver
	Reminders DefaultsSeeder
	Password  config.PasswordConfig
	Now       func() time.Time
}

// Service orchestrates company registration and profile management.
type Service struct {
	repo      Repository
	plans     PlanCatalog
	referrals ReferralResolver
	reminders DefaultsSeeder
	password  config.PasswordConfig
	now       func() time.Time
}

// NewService builds a company service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Plans == nil {
		return nil, errors.New("plan catalog is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:      params.Repo,
		plans:     params.Plans,
		referrals: params.Referrals,
		reminders: params.Reminders,
		password:  params.Password,
		now:       now,
	}, nil
}

// RegisterParams describes a new tenant signup.
type RegisterParams struct {
	Email        string
	Password     string
	Document     string
	FantasyName  string
	Phone        *string
	PlanID       uuid.UUID
	ReferralCode string
}

// Register creates a company on trial. The trial expiry is fixed at
// registration from the plan's free days and never recomputed afterwards.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.Company, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(params.Password) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	if strings.TrimSpace(params.FantasyName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fantasy name is required")
	}
	if params.PlanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan is required")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}

	plan, err := s.plans.FindByID(ctx, params.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan not available")
	}

	hash, err := security.HashPassword(params.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	now := s.now()
	trialExpiresAt := now.Add(time.Duration(plan.FreeDays) * 24 * time.Hour)
	planID := plan.ID
	company := &models.Company{
		Email:              email,
		PasswordHash:       hash,
		Document:           strings.TrimSpace(params.Document),
		FantasyName:        strings.TrimSpace(params.FantasyName),
		Phone:              params.Phone,
		PlanID:             &planID,
		IsActive:           true,
		SubscriptionStatus: enums.SubscriptionStatusTrial,
		TrialExpiresAt:     &trialExpiresAt,
	}

	if code := strings.TrimSpace(params.ReferralCode); code != "" && s.referrals != nil {
		affiliate, err := s.referrals.ResolveReferralCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if affiliate != nil && affiliate.IsActive {
			affiliateID := affiliate.ID
			company.ReferredByAffiliateID = &affiliateID
		}
	}

	if err := s.repo.Create(ctx, company); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
		}
		return nil, err
	}

	if s.reminders != nil {
		if err := s.reminders.SeedDefaults(ctx, company.ID); err != nil {
			return nil, err
		}
	}
	return company, nil
}

// Get returns one company by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	return company, nil
}

// UpdateProfileParams describes a profile change; nil fields stay untouched.
type UpdateProfileParams struct {
	FantasyName *string
	Phone       *string
	Document    *string
}

// UpdateProfile applies a partial profile change.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (*models.Company, error) {
	company, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.FantasyName != nil {
		name := strings.TrimSpace(*params.FantasyName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fantasy name is required")
		}
		company.FantasyName = name
	}
	if params.Phone != nil {
		company.Phone = params.Phone
	}
	if params.Document != nil {
		company.Document = strings.TrimSpace(*params.Document)
	}

	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// SetActive flips the company kill switch. Companies are never deleted.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Company, error) {
	company, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	company.IsActive = active
	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// LinkGatewayCustomer stores the gateway references after checkout.
func (s *Service) LinkGatewayCustomer(ctx context.Context, id uuid.UUID, customerID, subscriptionID string) (*models.Company, error) {
	company, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if customerID != "" {
		company.AsaasCustomerID = &customerID
	}
	if subscriptionID != "" {
		company.AsaasSubscriptionID = &subscriptionID
	}
	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}
