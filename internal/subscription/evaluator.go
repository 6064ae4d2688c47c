package subscription

import (
	"math"
	"time"

	"github.com/agendaja-app/agendaja-backend/pkg/asaas"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
)

// Reason explains a non-active evaluation and drives the gate's denial mapping.
type Reason string

const (
	ReasonCompanyDeactivated  Reason = "company_deactivated"
	ReasonPaymentOverdue      Reason = "payment_overdue"
	ReasonSubscriptionExpired Reason = "subscription_expired"
	ReasonTrialEnded          Reason = "trial_ended"
)

// Result is the recomputed subscription view for one company. It is derived
// on every read and never persisted by the evaluator itself.
type Result struct {
	Status        enums.SubscriptionStatus
	DaysRemaining int
	IsActive      bool
	Reason        Reason
}

// Evaluate derives the effective subscription state from the company row, its
// plan, the gateway snapshot, and the clock. The snapshot may be nil (gateway
// unreachable or no paid subscription on file); a nil snapshot is never an
// error. The only failure is a company referencing a plan that no longer
// exists.
func Evaluate(company models.Company, plan *models.Plan, snapshot *asaas.Snapshot, now time.Time) (Result, error) {
	// Company kill switch overrides every other state, including a broken
	// plan reference.
	if !company.IsActive {
		return Result{
			Status:   enums.SubscriptionStatusSuspended,
			IsActive: false,
			Reason:   ReasonCompanyDeactivated,
		}, nil
	}

	if company.PlanID != nil && plan == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeConfiguration, "company references a missing plan").
			WithDetails(map[string]any{"company_id": company.ID, "plan_id": *company.PlanID})
	}

	if snapshot != nil {
		switch snapshot.Status {
		case enums.GatewayStatusOverdue:
			return Result{
				Status:   enums.SubscriptionStatusOverdue,
				IsActive: false,
				Reason:   ReasonPaymentOverdue,
			}, nil
		case enums.GatewayStatusExpired:
			return Result{
				Status:   enums.SubscriptionStatusExpired,
				IsActive: false,
				Reason:   ReasonSubscriptionExpired,
			}, nil
		case enums.GatewayStatusActive:
			return Result{
				Status:   enums.SubscriptionStatusActive,
				IsActive: true,
			}, nil
		}
		// INACTIVE falls through to the trial branch: no paid subscription.
	}

	if company.TrialExpiresAt != nil && now.Before(*company.TrialExpiresAt) {
		return Result{
			Status:        enums.SubscriptionStatusTrial,
			DaysRemaining: daysRemaining(*company.TrialExpiresAt, now),
			IsActive:      true,
		}, nil
	}

	return Result{
		Status:   enums.SubscriptionStatusExpired,
		IsActive: false,
		Reason:   ReasonTrialEnded,
	}, nil
}

// daysRemaining rounds up so a company mid-way through its last day still
// sees 1, never 0.
func daysRemaining(expiresAt, now time.Time) int {
	return int(math.Ceil(expiresAt.Sub(now).Hours() / 24))
}
