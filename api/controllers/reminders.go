package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/api/middleware"
	"github.com/agendaja-app/agendaja-backend/api/responses"
	"github.com/agendaja-app/agendaja-backend/api/validators"
	"github.com/agendaja-app/agendaja-backend/internal/reminders"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

type reminderSettingResponse struct {
	ID              uuid.UUID `json:"id"`
	ReminderType    string    `json:"reminder_type"`
	IsActive        bool      `json:"is_active"`
	MessageTemplate string    `json:"message_template"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newReminderSettingResponse(setting models.ReminderSetting) reminderSettingResponse {
	return reminderSettingResponse{
		ID:              setting.ID,
		ReminderType:    setting.ReminderType.String(),
		IsActive:        setting.IsActive,
		MessageTemplate: setting.MessageTemplate,
		UpdatedAt:       setting.UpdatedAt,
	}
}

// ReminderSettingsList returns the tenant's reminder configuration.
func ReminderSettingsList(svc *reminders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.ListSettings(r.Context(), middleware.CompanyIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]reminderSettingResponse, 0, len(settings))
		for _, setting := range settings {
			out = append(out, newReminderSettingResponse(setting))
		}
		responses.WriteSuccess(w, out)
	}
}

type updateReminderSettingRequest struct {
	ReminderType    string `json:"reminder_type" validate:"required"`
	IsActive        bool   `json:"is_active"`
	MessageTemplate string `json:"message_template" validate:"required"`
}

// ReminderSettingUpdate upserts one reminder toggle and template.
func ReminderSettingUpdate(svc *reminders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateReminderSettingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reminderType, err := enums.ParseReminderType(body.ReminderType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid reminder type"))
			return
		}

		setting, err := svc.UpdateSetting(r.Context(), reminders.UpdateSettingParams{
			CompanyID:       middleware.CompanyIDFromContext(r.Context()),
			ReminderType:    reminderType,
			IsActive:        body.IsActive,
			MessageTemplate: body.MessageTemplate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newReminderSettingResponse(*setting))
	}
}

type reminderHistoryResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	ReminderType  string    `json:"reminder_type"`
	Status        string    `json:"status"`
	Phone         string    `json:"phone"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReminderHistoryList returns recent reminder attempts, newest first.
func ReminderHistoryList(svc *reminders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid limit"))
				return
			}
			limit = parsed
		}

		history, err := svc.ListHistory(r.Context(), middleware.CompanyIDFromContext(r.Context()), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]reminderHistoryResponse, 0, len(history))
		for _, entry := range history {
			out = append(out, reminderHistoryResponse{
				ID:            entry.ID,
				AppointmentID: entry.AppointmentID,
				ReminderType:  entry.ReminderType.String(),
				Status:        entry.Status.String(),
				Phone:         entry.Phone,
				ErrorMessage:  entry.ErrorMessage,
				CreatedAt:     entry.CreatedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
