package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/agendaja-app/agendaja-backend/pkg/asaas"
	"github.com/agendaja-app/agendaja-backend/pkg/db"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

// SnapshotSource fetches the gateway's view of a customer's subscription.
type SnapshotSource interface {
	GetSubscriptionSnapshot(ctx context.Context, customerID string) (*asaas.Snapshot, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo        Repository
	Gateway     SnapshotSource
	Logger      *logger.Logger
	WarningDays []int
	Now         func() time.Time
}

// Service orchestrates subscription evaluation, gating, and payment alerts.
type Service struct {
	repo        Repository
	gateway     SnapshotSource
	logger      *logger.Logger
	warningDays []int
	now         func() time.Time
}

// NewService builds a subscription service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	warningDays := params.WarningDays
	if len(warningDays) == 0 {
		warningDays = []int{3, 1}
	}
	// Each configured day must map to a persistable alert type, otherwise the
	// sweep would silently skip that threshold.
	for _, d := range warningDays {
		if _, ok := enums.AlertTypeForDays(d); !ok {
			return nil, fmt.Errorf("warning day %d has no alert type", d)
		}
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:        params.Repo,
		gateway:     params.Gateway,
		logger:      params.Logger,
		warningDays: warningDays,
		now:         now,
	}, nil
}

// Evaluate recomputes the subscription view for one company.
func (s *Service) Evaluate(ctx context.Context, companyID uuid.UUID) (Result, error) {
	company, err := s.repo.FindCompany(ctx, companyID)
	if err != nil {
		return Result{}, err
	}
	if company == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	return s.evaluateCompany(ctx, *company)
}

// Authorize evaluates the company and maps the result onto a gate decision.
func (s *Service) Authorize(ctx context.Context, companyID uuid.UUID) (Decision, error) {
	res, err := s.Evaluate(ctx, companyID)
	if err != nil {
		return Decision{}, err
	}
	return Authorize(res), nil
}

// TrialInfo is the dashboard view of the current trial state.
type TrialInfo struct {
	Status         string     `json:"status"`
	DaysRemaining  int        `json:"days_remaining"`
	TrialExpiresAt *time.Time `json:"trial_expires_at,omitempty"`
	IsActive       bool       `json:"is_active"`
}

// GetTrialInfo returns the recomputed trial state for the company.
func (s *Service) GetTrialInfo(ctx context.Context, companyID uuid.UUID) (*TrialInfo, error) {
	company, err := s.repo.FindCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	res, err := s.evaluateCompany(ctx, *company)
	if err != nil {
		return nil, err
	}
	return &TrialInfo{
		Status:         res.Status.String(),
		DaysRemaining:  res.DaysRemaining,
		TrialExpiresAt: company.TrialExpiresAt,
		IsActive:       res.IsActive,
	}, nil
}

// ListAlerts returns every payment alert for the company, newest first.
func (s *Service) ListAlerts(ctx context.Context, companyID uuid.UUID) ([]models.PaymentAlert, error) {
	return s.repo.ListAlerts(ctx, companyID)
}

// MarkAlertShown records that the dashboard displayed the alert. Marking an
// already-shown alert is a no-op.
func (s *Service) MarkAlertShown(ctx context.Context, companyID, alertID uuid.UUID) (*models.PaymentAlert, error) {
	alert, err := s.repo.FindAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil || alert.CompanyID != companyID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment alert not found")
	}
	if alert.IsShown {
		return alert, nil
	}

	shownAt := s.now()
	alert.IsShown = true
	alert.ShownAt = &shownAt
	if err := s.repo.UpdateAlert(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// SweepTrialAlerts evaluates trial companies and persists due trial-expiry
// warnings. A unique violation means another sweep won the race; it is not
// an error.
func (s *Service) SweepTrialAlerts(ctx context.Context, batchSize int) (int, error) {
	companies, err := s.repo.ListTrialCompanies(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	created := 0
	var errs error
	for _, company := range companies {
		res, err := s.evaluateCompany(ctx, company)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		existing, err := s.repo.ListAlerts(ctx, company.ID)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		alert := MaybeEmitAlert(company.ID, res, existing, s.warningDays)
		if alert == nil {
			continue
		}
		if err := s.repo.CreateAlert(ctx, alert); err != nil {
			if db.IsUniqueViolation(err, "") {
				continue
			}
			errs = multierr.Append(errs, err)
			continue
		}
		created++
	}
	return created, errs
}

// Reconcile refreshes persisted subscription statuses from the gateway. This
// job and the webhook handler are the only writers of subscription_status.
func (s *Service) Reconcile(ctx context.Context, batchSize int) (int, error) {
	companies, err := s.repo.ListCompaniesForReconciliation(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	updated := 0
	var errs error
	for _, company := range companies {
		res, err := s.evaluateCompany(ctx, company)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if res.Status == company.SubscriptionStatus {
			continue
		}
		if err := s.repo.UpdateSubscriptionStatus(ctx, company.ID, res.Status); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		updated++
	}
	return updated, errs
}

func (s *Service) evaluateCompany(ctx context.Context, company models.Company) (Result, error) {
	var plan *models.Plan
	if company.PlanID != nil {
		found, err := s.repo.FindPlan(ctx, *company.PlanID)
		if err != nil {
			return Result{}, err
		}
		plan = found
	}

	var snapshot *asaas.Snapshot
	if company.AsaasCustomerID != nil && *company.AsaasCustomerID != "" {
		snap, err := s.gateway.GetSubscriptionSnapshot(ctx, *company.AsaasCustomerID)
		if err != nil {
			// Gateway unavailable degrades to "no snapshot on file".
			ctx := s.logger.WithCompanyID(ctx, company.ID.String())
			s.logger.Warn(ctx, "subscription snapshot unavailable, falling back to trial state")
		} else {
			snapshot = snap
		}
	}

	return Evaluate(company, plan, snapshot, s.now())
}
