package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/api/middleware"
	"github.com/agendaja-app/agendaja-backend/api/responses"
	"github.com/agendaja-app/agendaja-backend/internal/subscription"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

type subscriptionStatusResponse struct {
	Status        string `json:"status"`
	DaysRemaining int    `json:"days_remaining"`
	IsActive      bool   `json:"is_active"`
	Reason        string `json:"reason,omitempty"`
}

// SubscriptionStatus returns the recomputed subscription view for the tenant.
func SubscriptionStatus(svc *subscription.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Evaluate(r.Context(), middleware.CompanyIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, subscriptionStatusResponse{
			Status:        result.Status.String(),
			DaysRemaining: result.DaysRemaining,
			IsActive:      result.IsActive,
			Reason:        string(result.Reason),
		})
	}
}

// TrialInfo returns the trial countdown shown on the dashboard.
func TrialInfo(svc *subscription.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.GetTrialInfo(r.Context(), middleware.CompanyIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

type paymentAlertResponse struct {
	ID        uuid.UUID  `json:"id"`
	AlertType string     `json:"alert_type"`
	IsShown   bool       `json:"is_shown"`
	ShownAt   *time.Time `json:"shown_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func newPaymentAlertResponse(alert models.PaymentAlert) paymentAlertResponse {
	return paymentAlertResponse{
		ID:        alert.ID,
		AlertType: alert.AlertType.String(),
		IsShown:   alert.IsShown,
		ShownAt:   alert.ShownAt,
		CreatedAt: alert.CreatedAt,
	}
}

// PaymentAlertsList returns the tenant's trial warnings, newest first.
func PaymentAlertsList(svc *subscription.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alerts, err := svc.ListAlerts(r.Context(), middleware.CompanyIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]paymentAlertResponse, 0, len(alerts))
		for _, alert := range alerts {
			out = append(out, newPaymentAlertResponse(alert))
		}
		responses.WriteSuccess(w, out)
	}
}

// PaymentAlertMarkShown dismisses one alert for the tenant.
func PaymentAlertMarkShown(svc *subscription.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alertID, err := uuid.Parse(chi.URLParam(r, "alertID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid alert id"))
			return
		}

		alert, err := svc.MarkAlertShown(r.Context(), middleware.CompanyIDFromContext(r.Context()), alertID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPaymentAlertResponse(*alert))
	}
}
