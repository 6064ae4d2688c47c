package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/api/responses"
	"github.com/agendaja-app/agendaja-backend/internal/subscription"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

// Authorizer decides whether the tenant may use gated features.
type Authorizer interface {
	Authorize(ctx context.Context, companyID uuid.UUID) (subscription.Decision, error)
}

// SubscriptionGate blocks requests from tenants whose trial or subscription
// no longer grants access. Runs after Auth.
func SubscriptionGate(authorizer Authorizer, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			companyID := CompanyIDFromContext(r.Context())
			if companyID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			decision, err := authorizer.Authorize(r.Context(), companyID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if !decision.Allow {
				responses.WriteGateDenial(w, decision)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
