package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/api/middleware"
	"github.com/agendaja-app/agendaja-backend/api/responses"
	"github.com/agendaja-app/agendaja-backend/api/validators"
	"github.com/agendaja-app/agendaja-backend/internal/billing"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

type subscribeRequest struct {
	PlanID string `json:"plan_id" validate:"required,uuid4"`
}

// SubscriptionSubscribe starts a recurring gateway charge for the chosen
// plan. Stays reachable for blocked tenants so an expired trial can convert.
func SubscriptionSubscribe(svc *billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body subscribeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		planID, err := uuid.Parse(body.PlanID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan id"))
			return
		}

		result, err := svc.Subscribe(r.Context(), middleware.CompanyIDFromContext(r.Context()), planID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// SubscriptionCancel stops the recurring charge for the tenant.
func SubscriptionCancel(svc *billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Cancel(r.Context(), middleware.CompanyIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancellation_requested"})
	}
}
