package plans

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
)

type stubRepo struct {
	createFn func(ctx context.Context, plan *models.Plan) error
	updateFn func(ctx context.Context, plan *models.Plan) error
	findFn   func(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	listFn   func(ctx context.Context, onlyActive bool) ([]models.Plan, error)
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }
func (s *stubRepo) Create(ctx context.Context, plan *models.Plan) error {
	if s.createFn != nil {
		return s.createFn(ctx, plan)
	}
	return nil
}
func (s *stubRepo) Update(ctx context.Context, plan *models.Plan) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, plan)
	}
	return nil
}
func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return nil, nil
}
func (s *stubRepo) List(ctx context.Context, onlyActive bool) ([]models.Plan, error) {
	if s.listFn != nil {
		return s.listFn(ctx, onlyActive)
	}
	return nil, nil
}

func TestCreateValidation(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: &stubRepo{}})

	_, err := svc.Create(context.Background(), CreateParams{Name: "  "})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}

	_, err = svc.Create(context.Background(), CreateParams{Name: "Pro", FreeDays: -1})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative free days, got %v", err)
	}
}

func TestCreateDefaults(t *testing.T) {
	var saved *models.Plan
	repo := &stubRepo{
		createFn: func(ctx context.Context, plan *models.Plan) error {
			saved = plan
			return nil
		},
	}
	svc, _ := NewService(ServiceParams{Repo: repo})

	plan, err := svc.Create(context.Background(), CreateParams{
		Name:     "Essencial",
		FreeDays: 7,
		Price:    decimal.NewFromFloat(49.90),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved == nil || !plan.IsActive || plan.MaxProfessionals != 1 {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestGetNotFound(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: &stubRepo{}})
	_, err := svc.Get(context.Background(), uuid.New())
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdatePartial(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{
		findFn: func(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
			return &models.Plan{
				ID:               id,
				Name:             "Essencial",
				FreeDays:         7,
				Price:            decimal.NewFromFloat(49.90),
				MaxProfessionals: 2,
				IsActive:         true,
			}, nil
		},
	}
	svc, _ := NewService(ServiceParams{Repo: repo})

	inactive := false
	plan, err := svc.Update(context.Background(), id, UpdateParams{IsActive: &inactive})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if plan.IsActive {
		t.Fatal("expected plan deactivated")
	}
	if plan.Name != "Essencial" || plan.FreeDays != 7 {
		t.Fatal("untouched fields must be preserved")
	}
}
