package subscription

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agendaja-app/agendaja-backend/pkg/asaas"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

type stubRepo struct {
	findCompanyFn  func(ctx context.Context, id uuid.UUID) (*models.Company, error)
	findPlanFn     func(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	updateStatusFn func(ctx context.Context, companyID uuid.UUID, status enums.SubscriptionStatus) error
	listTrialFn    func(ctx context.Context, limit int) ([]models.Company, error)
	listReconFn    func(ctx context.Context, limit int) ([]models.Company, error)
	listAlertsFn   func(ctx context.Context, companyID uuid.UUID) ([]models.PaymentAlert, error)
	findAlertFn    func(ctx context.Context, id uuid.UUID) (*models.PaymentAlert, error)
	createAlertFn  func(ctx context.Context, alert *models.PaymentAlert) error
	updateAlertFn  func(ctx context.Context, alert *models.PaymentAlert) error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }
func (s *stubRepo) FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	if s.findCompanyFn != nil {
		return s.findCompanyFn(ctx, id)
	}
	return nil, nil
}
func (s *stubRepo) FindPlan(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	if s.findPlanFn != nil {
		return s.findPlanFn(ctx, id)
	}
	return nil, nil
}
func (s *stubRepo) UpdateSubscriptionStatus(ctx context.Context, companyID uuid.UUID, status enums.SubscriptionStatus) error {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, companyID, status)
	}
	return nil
}
func (s *stubRepo) ListTrialCompanies(ctx context.Context, limit int) ([]models.Company, error) {
	if s.listTrialFn != nil {
		return s.listTrialFn(ctx, limit)
	}
	return nil, nil
}
func (s *stubRepo) ListCompaniesForReconciliation(ctx context.Context, limit int) ([]models.Company, error) {
	if s.listReconFn != nil {
		return s.listReconFn(ctx, limit)
	}
	return nil, nil
}
func (s *stubRepo) ListAlerts(ctx context.Context, companyID uuid.UUID) ([]models.PaymentAlert, error) {
	if s.listAlertsFn != nil {
		return s.listAlertsFn(ctx, companyID)
	}
	return nil, nil
}
func (s *stubRepo) FindAlert(ctx context.Context, id uuid.UUID) (*models.PaymentAlert, error) {
	if s.findAlertFn != nil {
		return s.findAlertFn(ctx, id)
	}
	return nil, nil
}
func (s *stubRepo) CreateAlert(ctx context.Context, alert *models.PaymentAlert) error {
	if s.createAlertFn != nil {
		return s.createAlertFn(ctx, alert)
	}
	return nil
}
func (s *stubRepo) UpdateAlert(ctx context.Context, alert *models.PaymentAlert) error {
	if s.updateAlertFn != nil {
		return s.updateAlertFn(ctx, alert)
	}
	return nil
}

type stubGateway struct {
	snapshotFn func(ctx context.Context, customerID string) (*asaas.Snapshot, error)
}

func (s *stubGateway) GetSubscriptionSnapshot(ctx context.Context, customerID string) (*asaas.Snapshot, error) {
	if s.snapshotFn != nil {
		return s.snapshotFn(ctx, customerID)
	}
	return nil, nil
}

func newTestService(t *testing.T, repo Repository, gateway SnapshotSource, now time.Time) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Gateway: gateway,
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceRejectsUnmappedWarningDays(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	_, err := NewService(ServiceParams{
		Repo:        &stubRepo{},
		Gateway:     &stubGateway{},
		Logger:      logg,
		WarningDays: []int{7, 3, 1},
	})
	if err == nil {
		t.Fatal("expected error for warning day without an alert type")
	}

	svc, err := NewService(ServiceParams{
		Repo:        &stubRepo{},
		Gateway:     &stubGateway{},
		Logger:      logg,
		WarningDays: []int{3, 1},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if svc == nil {
		t.Fatal("expected service for supported warning days")
	}
}

func TestEvaluateCompanyNotFound(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, &stubGateway{}, time.Now().UTC())
	_, err := svc.Evaluate(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEvaluateSurvivesGatewayOutage(t *testing.T) {
	now := time.Now().UTC()
	expiry := now.Add(48 * time.Hour)
	customerID := "cus_1"
	repo := &stubRepo{
		findCompanyFn: func(ctx context.Context, id uuid.UUID) (*models.Company, error) {
			return &models.Company{
				ID:                 id,
				IsActive:           true,
				SubscriptionStatus: enums.SubscriptionStatusActive,
				TrialExpiresAt:     &expiry,
				AsaasCustomerID:    &customerID,
			}, nil
		},
	}
	gateway := &stubGateway{
		snapshotFn: func(ctx context.Context, customerID string) (*asaas.Snapshot, error) {
			return nil, errors.New("gateway down")
		},
	}

	svc := newTestService(t, repo, gateway, now)
	res, err := svc.Evaluate(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("evaluate must not propagate gateway errors: %v", err)
	}
	// Falls back to trial-expiry logic rather than granting blanket access.
	if res.Status != enums.SubscriptionStatusTrial {
		t.Fatalf("expected trial fallback, got %s", res.Status)
	}
}

func TestGetTrialInfo(t *testing.T) {
	now := time.Now().UTC()
	expiry := now.Add(72 * time.Hour)
	repo := &stubRepo{
		findCompanyFn: func(ctx context.Context, id uuid.UUID) (*models.Company, error) {
			return &models.Company{
				ID:                 id,
				IsActive:           true,
				SubscriptionStatus: enums.SubscriptionStatusTrial,
				TrialExpiresAt:     &expiry,
			}, nil
		},
	}

	svc := newTestService(t, repo, &stubGateway{}, now)
	info, err := svc.GetTrialInfo(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get trial info: %v", err)
	}
	if info.Status != "trial" || !info.IsActive || info.DaysRemaining != 3 {
		t.Fatalf("unexpected trial info %+v", info)
	}
	if info.TrialExpiresAt == nil || !info.TrialExpiresAt.Equal(expiry) {
		t.Fatal("expected trial expiry to be surfaced")
	}
}

func TestMarkAlertShown(t *testing.T) {
	now := time.Now().UTC()
	companyID := uuid.New()
	alertID := uuid.New()
	var saved *models.PaymentAlert
	repo := &stubRepo{
		findAlertFn: func(ctx context.Context, id uuid.UUID) (*models.PaymentAlert, error) {
			return &models.PaymentAlert{ID: alertID, CompanyID: companyID, AlertType: enums.AlertTypeThreeDays}, nil
		},
		updateAlertFn: func(ctx context.Context, alert *models.PaymentAlert) error {
			saved = alert
			return nil
		},
	}

	svc := newTestService(t, repo, &stubGateway{}, now)
	alert, err := svc.MarkAlertShown(context.Background(), companyID, alertID)
	if err != nil {
		t.Fatalf("mark shown: %v", err)
	}
	if !alert.IsShown || alert.ShownAt == nil || !alert.ShownAt.Equal(now) {
		t.Fatalf("unexpected alert state %+v", alert)
	}
	if saved == nil {
		t.Fatal("expected alert to be persisted")
	}
}

func TestMarkAlertShownWrongTenant(t *testing.T) {
	repo := &stubRepo{
		findAlertFn: func(ctx context.Context, id uuid.UUID) (*models.PaymentAlert, error) {
			return &models.PaymentAlert{ID: id, CompanyID: uuid.New()}, nil
		},
	}

	svc := newTestService(t, repo, &stubGateway{}, time.Now().UTC())
	_, err := svc.MarkAlertShown(context.Background(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected cross-tenant lookup to fail")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkAlertShownIdempotent(t *testing.T) {
	now := time.Now().UTC()
	companyID := uuid.New()
	shownAt := now.Add(-time.Hour)
	updates := 0
	repo := &stubRepo{
		findAlertFn: func(ctx context.Context, id uuid.UUID) (*models.PaymentAlert, error) {
			return &models.PaymentAlert{ID: id, CompanyID: companyID, IsShown: true, ShownAt: &shownAt}, nil
		},
		updateAlertFn: func(ctx context.Context, alert *models.PaymentAlert) error {
			updates++
			return nil
		},
	}

	svc := newTestService(t, repo, &stubGateway{}, now)
	alert, err := svc.MarkAlertShown(context.Background(), companyID, uuid.New())
	if err != nil {
		t.Fatalf("mark shown: %v", err)
	}
	if updates != 0 {
		t.Fatal("already-shown alert must not be rewritten")
	}
	if !alert.ShownAt.Equal(shownAt) {
		t.Fatal("original shown_at must be preserved")
	}
}

func TestSweepTrialAlertsCreatesDueWarnings(t *testing.T) {
	now := time.Now().UTC()
	expiry := now.Add(20 * time.Hour) // 1 day remaining
	companyID := uuid.New()
	var created []*models.PaymentAlert
	repo := &stubRepo{
		listTrialFn: func(ctx context.Context, limit int) ([]models.Company, error) {
			return []models.Company{{
				ID:                 companyID,
				IsActive:           true,
				SubscriptionStatus: enums.SubscriptionStatusTrial,
				TrialExpiresAt:     &expiry,
			}}, nil
		},
		createAlertFn: func(ctx context.Context, alert *models.PaymentAlert) error {
			created = append(created, alert)
			return nil
		},
	}

	svc := newTestService(t, repo, &stubGateway{}, now)
	n, err := svc.SweepTrialAlerts(context.Background(), 100)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 || len(created) != 1 {
		t.Fatalf("expected one alert, got %d", len(created))
	}
	if created[0].AlertType != enums.AlertTypeOneDay {
		t.Fatalf("unexpected alert type %s", created[0].AlertType)
	}
}

func TestSweepTrialAlertsSkipsExisting(t *testing.T) {
	now := time.Now().UTC()
	expiry := now.Add(20 * time.Hour)
	companyID := uuid.New()
	repo := &stubRepo{
		listTrialFn: func(ctx context.Context, limit int) ([]models.Company, error) {
			return []models.Company{{
				ID:                 companyID,
				IsActive:           true,
				SubscriptionStatus: enums.SubscriptionStatusTrial,
				TrialExpiresAt:     &expiry,
			}}, nil
		},
		listAlertsFn: func(ctx context.Context, id uuid.UUID) ([]models.PaymentAlert, error) {
			return []models.PaymentAlert{{CompanyID: id, AlertType: enums.AlertTypeOneDay}}, nil
		},
		createAlertFn: func(ctx context.Context, alert *models.PaymentAlert) error {
			t.Fatal("must not create a duplicate alert")
			return nil
		},
	}

	svc := newTestService(t, repo, &stubGateway{}, now)
	n, err := svc.SweepTrialAlerts(context.Background(), 100)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected zero alerts created, got %d", n)
	}
}

func TestReconcilePersistsChangedStatus(t *testing.T) {
	now := time.Now().UTC()
	companyID := uuid.New()
	customerID := "cus_7"
	var persisted enums.SubscriptionStatus
	repo := &stubRepo{
		listReconFn: func(ctx context.Context, limit int) ([]models.Company, error) {
			return []models.Company{{
				ID:                 companyID,
				IsActive:           true,
				SubscriptionStatus: enums.SubscriptionStatusActive,
				AsaasCustomerID:    &customerID,
			}}, nil
		},
		updateStatusFn: func(ctx context.Context, id uuid.UUID, status enums.SubscriptionStatus) error {
			persisted = status
			return nil
		},
	}
	gateway := &stubGateway{
		snapshotFn: func(ctx context.Context, customerID string) (*asaas.Snapshot, error) {
			return &asaas.Snapshot{Status: enums.GatewayStatusOverdue}, nil
		},
	}

	svc := newTestService(t, repo, gateway, now)
	updated, err := svc.Reconcile(context.Background(), 100)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected one update, got %d", updated)
	}
	if persisted != enums.SubscriptionStatusOverdue {
		t.Fatalf("expected overdue persisted, got %s", persisted)
	}
}

func TestReconcileSkipsUnchangedStatus(t *testing.T) {
	now := time.Now().UTC()
	customerID := "cus_8"
	repo := &stubRepo{
		listReconFn: func(ctx context.Context, limit int) ([]models.Company, error) {
			return []models.Company{{
				ID:                 uuid.New(),
				IsActive:           true,
				SubscriptionStatus: enums.SubscriptionStatusActive,
				AsaasCustomerID:    &customerID,
			}}, nil
		},
		updateStatusFn: func(ctx context.Context, id uuid.UUID, status enums.SubscriptionStatus) error {
			t.Fatal("unchanged status must not be rewritten")
			return nil
		},
	}
	gateway := &stubGateway{
		snapshotFn: func(ctx context.Context, customerID string) (*asaas.Snapshot, error) {
			return &asaas.Snapshot{Status: enums.GatewayStatusActive}, nil
		},
	}

	svc := newTestService(t, repo, gateway, now)
	updated, err := svc.Reconcile(context.Background(), 100)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected zero updates, got %d", updated)
	}
}
