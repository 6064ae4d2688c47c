package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/api/middleware"
	"github.com/agendaja-app/agendaja-backend/api/responses"
	"github.com/agendaja-app/agendaja-backend/api/validators"
	"github.com/agendaja-app/agendaja-backend/internal/appointments"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
	"github.com/agendaja-app/agendaja-backend/pkg/pagination"
)

type appointmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	ProfessionalID *uuid.UUID `json:"professional_id,omitempty"`
	ServiceID      *uuid.UUID `json:"service_id,omitempty"`
	ClientName     string     `json:"client_name"`
	ClientPhone    string     `json:"client_phone"`
	StartsAt       time.Time  `json:"starts_at"`
	Status         string     `json:"status"`
	Notes          *string    `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newAppointmentResponse(appointment models.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:             appointment.ID,
		ProfessionalID: appointment.ProfessionalID,
		ServiceID:      appointment.ServiceID,
		ClientName:     appointment.ClientName,
		ClientPhone:    appointment.ClientPhone,
		StartsAt:       appointment.StartsAt,
		Status:         appointment.Status.String(),
		Notes:          appointment.Notes,
		CreatedAt:      appointment.CreatedAt,
	}
}

type createAppointmentRequest struct {
	ProfessionalID *string   `json:"professional_id,omitempty"`
	ServiceID      *string   `json:"service_id,omitempty"`
	ClientName     string    `json:"client_name" validate:"required"`
	ClientPhone    string    `json:"client_phone" validate:"required"`
	StartsAt       time.Time `json:"starts_at" validate:"required"`
	Notes          *string   `json:"notes,omitempty"`
}

// AppointmentCreate books an appointment for the tenant.
func AppointmentCreate(svc *appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createAppointmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := appointments.CreateInput{
			ClientName:  body.ClientName,
			ClientPhone: body.ClientPhone,
			StartsAt:    body.StartsAt,
			Notes:       body.Notes,
		}
		var err error
		if input.ProfessionalID, err = parseOptionalUUID(body.ProfessionalID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid professional id"))
			return
		}
		if input.ServiceID, err = parseOptionalUUID(body.ServiceID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid service id"))
			return
		}

		appointment, err := svc.Create(r.Context(), middleware.CompanyIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newAppointmentResponse(*appointment))
	}
}

type appointmentListResponse struct {
	Appointments []appointmentResponse `json:"appointments"`
	NextCursor   string                `json:"next_cursor,omitempty"`
}

// AppointmentsList returns the tenant's appointments with cursor pagination.
func AppointmentsList(svc *appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := appointments.ListQuery{
			CompanyID: middleware.CompanyIDFromContext(r.Context()),
		}

		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseAppointmentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			query.Status = &status
		}
		if raw := r.URL.Query().Get("from"); raw != "" {
			from, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid from timestamp"))
				return
			}
			query.From = &from
		}
		if raw := r.URL.Query().Get("to"); raw != "" {
			to, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid to timestamp"))
				return
			}
			query.To = &to
		}
		cursor, err := pagination.ParseCursor(r.URL.Query().Get("cursor"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor"))
			return
		}
		query.Cursor = cursor

		list, next, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := appointmentListResponse{Appointments: make([]appointmentResponse, 0, len(list))}
		for _, appointment := range list {
			out.Appointments = append(out.Appointments, newAppointmentResponse(appointment))
		}
		if next != nil {
			out.NextCursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, out)
	}
}

// AppointmentGet returns one appointment scoped to the tenant.
func AppointmentGet(svc *appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appointmentID, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid appointment id"))
			return
		}

		appointment, err := svc.Get(r.Context(), middleware.CompanyIDFromContext(r.Context()), appointmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAppointmentResponse(*appointment))
	}
}

type updateAppointmentRequest struct {
	StartsAt *time.Time `json:"starts_at,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
}

// AppointmentUpdate reschedules or annotates an appointment.
func AppointmentUpdate(svc *appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appointmentID, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid appointment id"))
			return
		}
		var body updateAppointmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appointment, err := svc.Update(r.Context(), middleware.CompanyIDFromContext(r.Context()), appointmentID, appointments.UpdateInput{
			StartsAt: body.StartsAt,
			Notes:    body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAppointmentResponse(*appointment))
	}
}

// AppointmentTransition moves an appointment through its lifecycle.
func AppointmentTransition(svc *appointments.Service, target enums.AppointmentStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appointmentID, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid appointment id"))
			return
		}

		appointment, err := svc.Transition(r.Context(), middleware.CompanyIDFromContext(r.Context()), appointmentID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAppointmentResponse(*appointment))
	}
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
