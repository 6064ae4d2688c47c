package plans

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agendaja-app/agendaja-backend/pkg/db"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
)

// ServiceParams groups dependencies for the plan service.
type ServiceParams struct {
	Repo Repository
}

// Service manages the subscription plan catalog.
type Service struct {
	repo Repository
}

// NewService builds a plan service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// List returns the catalog; non-admin callers only see active plans.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]models.Plan, error) {
	return s.repo.List(ctx, !includeInactive)
}

// Get returns one plan by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
	}
	return plan, nil
}

// CreateParams describes a new plan.
type CreateParams struct {
	Name             string
	FreeDays         int
	Price            decimal.Decimal
	MaxProfessionals int
	Features         []string
}

// Create adds a plan to the catalog.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Plan, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan name is required")
	}
	if params.FreeDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "free days must not be negative")
	}
	if params.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	maxProfessionals := params.MaxProfessionals
	if maxProfessionals <= 0 {
		maxProfessionals = 1
	}

	plan := &models.Plan{
		Name:             name,
		FreeDays:         params.FreeDays,
		Price:            params.Price,
		MaxProfessionals: maxProfessionals,
		IsActive:         true,
		Features:         params.Features,
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "plan name already exists")
		}
		return nil, err
	}
	return plan, nil
}

// UpdateParams describes a plan change; nil fields stay untouched.
type UpdateParams struct {
	Name             *string
	Price            *decimal.Decimal
	MaxProfessionals *int
	IsActive         *bool
	Features         []string
}

// Update applies a partial plan change. FreeDays is intentionally immutable:
// changing it would not retroactively move already-computed trial expiries,
// so edits create a new plan instead.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*models.Plan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan name is required")
		}
		plan.Name = name
	}
	if params.Price != nil {
		if params.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		plan.Price = *params.Price
	}
	if params.MaxProfessionals != nil {
		if *params.MaxProfessionals <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max professionals must be positive")
		}
		plan.MaxProfessionals = *params.MaxProfessionals
	}
	if params.IsActive != nil {
		plan.IsActive = *params.IsActive
	}
	if params.Features != nil {
		plan.Features = params.Features
	}

	if err := s.repo.Update(ctx, plan); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "plan name already exists")
		}
		return nil, err
	}
	return plan, nil
}
