package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agendaja-app/agendaja-backend/api/responses"
	"github.com/agendaja-app/agendaja-backend/api/validators"
	"github.com/agendaja-app/agendaja-backend/internal/plans"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

type planResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	FreeDays         int             `json:"free_days"`
	Price            decimal.Decimal `json:"price"`
	MaxProfessionals int             `json:"max_professionals"`
	Features         []string        `json:"features,omitempty"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
}

func newPlanResponse(plan models.Plan) planResponse {
	return planResponse{
		ID:               plan.ID,
		Name:             plan.Name,
		FreeDays:         plan.FreeDays,
		Price:            plan.Price,
		MaxProfessionals: plan.MaxProfessionals,
		Features:         []string(plan.Features),
		IsActive:         plan.IsActive,
		CreatedAt:        plan.CreatedAt,
	}
}

// PlansList returns active plans. Admins can include retired plans.
func PlansList(svc *plans.Service, includeInactive bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]planResponse, 0, len(list))
		for _, plan := range list {
			out = append(out, newPlanResponse(plan))
		}
		responses.WriteSuccess(w, out)
	}
}

type createPlanRequest struct {
	Name             string   `json:"name" validate:"required"`
	FreeDays         int      `json:"free_days" validate:"min=0"`
	Price            string   `json:"price" validate:"required"`
	MaxProfessionals int      `json:"max_professionals" validate:"min=0"`
	Features         []string `json:"features,omitempty"`
}

// PlanCreate adds a plan to the catalog. Admin only.
func PlanCreate(svc *plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createPlanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		price, err := decimal.NewFromString(body.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid price"))
			return
		}

		plan, err := svc.Create(r.Context(), plans.CreateParams{
			Name:             body.Name,
			FreeDays:         body.FreeDays,
			Price:            price,
			MaxProfessionals: body.MaxProfessionals,
			Features:         body.Features,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPlanResponse(*plan))
	}
}

type updatePlanRequest struct {
	Name             *string  `json:"name,omitempty"`
	Price            *string  `json:"price,omitempty"`
	MaxProfessionals *int     `json:"max_professionals,omitempty"`
	IsActive         *bool    `json:"is_active,omitempty"`
	Features         []string `json:"features,omitempty"`
}

// PlanUpdate applies a partial plan change. Admin only.
func PlanUpdate(svc *plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := uuid.Parse(chi.URLParam(r, "planID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan id"))
			return
		}
		var body updatePlanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := plans.UpdateParams{
			Name:             body.Name,
			MaxProfessionals: body.MaxProfessionals,
			IsActive:         body.IsActive,
			Features:         body.Features,
		}
		if body.Price != nil {
			price, err := decimal.NewFromString(*body.Price)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid price"))
				return
			}
			params.Price = &price
		}

		plan, err := svc.Update(r.Context(), planID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPlanResponse(*plan))
	}
}
