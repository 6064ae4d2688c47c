package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/agendaja-app/agendaja-backend/api/middleware"
	"github.com/agendaja-app/agendaja-backend/api/responses"
	"github.com/agendaja-app/agendaja-backend/api/validators"
	"github.com/agendaja-app/agendaja-backend/internal/auth"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthLogin authenticates a company and returns a bearer token.
func AuthLogin(svc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), auth.LoginInput{
			Email:    body.Email,
			Password: body.Password,
			RemoteIP: remoteIP(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AuthRefresh re-issues an access token for an authenticated company.
func AuthRefresh(svc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Refresh(
			r.Context(),
			middleware.CompanyIDFromContext(r.Context()),
			enums.ActorRole(middleware.RoleFromContext(r.Context())),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// remoteIP prefers the proxy-provided client address.
func remoteIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
