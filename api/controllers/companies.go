package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/api/middleware"
	"github.com/agendaja-app/agendaja-backend/api/responses"
	"github.com/agendaja-app/agendaja-backend/api/validators"
	"github.com/agendaja-app/agendaja-backend/internal/auth"
	"github.com/agendaja-app/agendaja-backend/internal/companies"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

type registerRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	Document     string  `json:"document" validate:"required"`
	FantasyName  string  `json:"fantasy_name" validate:"required"`
	Phone        *string `json:"phone,omitempty"`
	PlanID       string  `json:"plan_id" validate:"required,uuid4"`
	ReferralCode string  `json:"referral_code,omitempty"`
}

type companyResponse struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Document       string     `json:"document"`
	FantasyName    string     `json:"fantasy_name"`
	Phone          *string    `json:"phone,omitempty"`
	PlanID         *uuid.UUID `json:"plan_id,omitempty"`
	IsActive       bool       `json:"is_active"`
	Status         string     `json:"subscription_status"`
	TrialExpiresAt *time.Time `json:"trial_expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newCompanyResponse(company *models.Company) companyResponse {
	return companyResponse{
		ID:             company.ID,
		Email:          company.Email,
		Document:       company.Document,
		FantasyName:    company.FantasyName,
		Phone:          company.Phone,
		PlanID:         company.PlanID,
		IsActive:       company.IsActive,
		Status:         company.SubscriptionStatus.String(),
		TrialExpiresAt: company.TrialExpiresAt,
		CreatedAt:      company.CreatedAt,
	}
}

// CompanyRegister signs a new tenant up on a trial.
func CompanyRegister(svc *companies.Service, authSvc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if authSvc != nil {
			if err := authSvc.AllowRegistration(r.Context(), body.Email, remoteIP(r)); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		planID, err := uuid.Parse(body.PlanID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan id"))
			return
		}

		company, err := svc.Register(r.Context(), companies.RegisterParams{
			Email:        body.Email,
			Password:     body.Password,
			Document:     body.Document,
			FantasyName:  body.FantasyName,
			Phone:        body.Phone,
			PlanID:       planID,
			ReferralCode: body.ReferralCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCompanyResponse(company))
	}
}

// CompanyMe returns the authenticated tenant's profile.
func CompanyMe(svc *companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company, err := svc.Get(r.Context(), middleware.CompanyIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCompanyResponse(company))
	}
}

type updateCompanyRequest struct {
	FantasyName *string `json:"fantasy_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Document    *string `json:"document,omitempty"`
}

// CompanyUpdate applies a partial profile change for the authenticated tenant.
func CompanyUpdate(svc *companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateCompanyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		company, err := svc.UpdateProfile(r.Context(), middleware.CompanyIDFromContext(r.Context()), companies.UpdateProfileParams{
			FantasyName: body.FantasyName,
			Phone:       body.Phone,
			Document:    body.Document,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCompanyResponse(company))
	}
}

type setCompanyActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// CompanySetActive activates or deactivates a tenant. Admin only; a
// deactivated company is denied by the subscription gate on every request.
func CompanySetActive(svc *companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := uuid.Parse(chi.URLParam(r, "companyID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid company id"))
			return
		}
		var body setCompanyActiveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		company, err := svc.SetActive(r.Context(), companyID, body.IsActive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCompanyResponse(company))
	}
}
