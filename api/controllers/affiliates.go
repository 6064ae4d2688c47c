package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agendaja-app/agendaja-backend/api/responses"
	"github.com/agendaja-app/agendaja-backend/api/validators"
	"github.com/agendaja-app/agendaja-backend/internal/affiliates"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

type affiliateResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	ReferralCode   string          `json:"referral_code"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}

func newAffiliateResponse(affiliate *models.Affiliate) affiliateResponse {
	return affiliateResponse{
		ID:             affiliate.ID,
		Name:           affiliate.Name,
		Email:          affiliate.Email,
		ReferralCode:   affiliate.ReferralCode,
		CommissionRate: affiliate.CommissionRate,
		IsActive:       affiliate.IsActive,
		CreatedAt:      affiliate.CreatedAt,
	}
}

type createAffiliateRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	CommissionRate string `json:"commission_rate" validate:"required"`
}

// AffiliateCreate enrolls a new affiliate. Admin only.
func AffiliateCreate(svc *affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createAffiliateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rate, err := decimal.NewFromString(body.CommissionRate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid commission rate"))
			return
		}

		affiliate, err := svc.Create(r.Context(), affiliates.CreateInput{
			Name:           body.Name,
			Email:          body.Email,
			CommissionRate: rate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newAffiliateResponse(affiliate))
	}
}

type commissionResponse struct {
	ID        uuid.UUID       `json:"id"`
	CompanyID uuid.UUID       `json:"company_id"`
	PaymentID string          `json:"payment_id"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// AffiliateCommissionsList returns an affiliate's commission ledger. Admin only.
func AffiliateCommissionsList(svc *affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		affiliateID, err := uuid.Parse(chi.URLParam(r, "affiliateID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid affiliate id"))
			return
		}

		commissions, err := svc.ListCommissions(r.Context(), affiliateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]commissionResponse, 0, len(commissions))
		for _, commission := range commissions {
			out = append(out, commissionResponse{
				ID:        commission.ID,
				CompanyID: commission.CompanyID,
				PaymentID: commission.PaymentID,
				Rate:      commission.Rate,
				Amount:    commission.Amount,
				Status:    commission.Status.String(),
				CreatedAt: commission.CreatedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

type setAffiliateActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// AffiliateSetActive toggles whether an affiliate receives new referrals. Admin only.
func AffiliateSetActive(svc *affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		affiliateID, err := uuid.Parse(chi.URLParam(r, "affiliateID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid affiliate id"))
			return
		}
		var body setAffiliateActiveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		affiliate, err := svc.SetActive(r.Context(), affiliateID, body.IsActive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAffiliateResponse(affiliate))
	}
}
