package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/api/middleware"
	"github.com/agendaja-app/agendaja-backend/api/responses"
	"github.com/agendaja-app/agendaja-backend/api/validators"
	"github.com/agendaja-app/agendaja-backend/internal/reviews"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

type redeemReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty"`
}

type reviewResponse struct {
	ID            uuid.UUID  `json:"id"`
	AppointmentID uuid.UUID  `json:"appointment_id"`
	Rating        *int       `json:"rating,omitempty"`
	Comment       *string    `json:"comment,omitempty"`
	RedeemedAt    *time.Time `json:"redeemed_at,omitempty"`
}

// ReviewRedeem records a client rating against an invitation token. Public:
// the token is the credential.
func ReviewRedeem(svc *reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body redeemReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invitation, err := svc.Redeem(r.Context(), chi.URLParam(r, "token"), reviews.RedeemInput{
			Rating:  body.Rating,
			Comment: body.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reviewResponse{
			ID:            invitation.ID,
			AppointmentID: invitation.AppointmentID,
			Rating:        invitation.Rating,
			Comment:       invitation.Comment,
			RedeemedAt:    invitation.RedeemedAt,
		})
	}
}

// ReviewsList returns the tenant's collected reviews.
func ReviewsList(svc *reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invitations, err := svc.ListRedeemed(r.Context(), middleware.CompanyIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]reviewResponse, 0, len(invitations))
		for _, invitation := range invitations {
			out = append(out, reviewResponse{
				ID:            invitation.ID,
				AppointmentID: invitation.AppointmentID,
				Rating:        invitation.Rating,
				Comment:       invitation.Comment,
				RedeemedAt:    invitation.RedeemedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
