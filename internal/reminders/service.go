package reminders

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
)

// DefaultTemplates seed new companies with a sensible message per type.
var DefaultTemplates = map[enums.ReminderType]string{
	enums.ReminderTypeConfirmation: "Olá {clientName}! Seu agendamento de {serviceName} em {companyName} foi confirmado para {appointmentDate} às {appointmentTime}.",
	enums.ReminderType24Hours:      "Olá {clientName}! Lembrete: você tem {serviceName} amanhã, {appointmentDate} às {appointmentTime}, em {companyName}.",
	enums.ReminderType1Hour:        "Olá {clientName}! Seu horário de {serviceName} com {professionalName} é daqui a pouco, às {appointmentTime}.",
}

// ServiceParams groups dependencies for the reminder settings service.
type ServiceParams struct {
	Repo Repository
}

// Service manages per-company reminder settings and history reads.
type Service struct {
	repo Repository
}

// NewService builds a reminders service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// ListSettings returns the company's reminder settings.
func (s *Service) ListSettings(ctx context.Context, companyID uuid.UUID) ([]models.ReminderSetting, error) {
	return s.repo.ListSettings(ctx, companyID)
}

// UpdateSettingParams captures one setting change.
type UpdateSettingParams struct {
	CompanyID       uuid.UUID
	ReminderType    enums.ReminderType
	IsActive        bool
	MessageTemplate string
}

// UpdateSetting upserts the per-type toggle and template.
func (s *Service) UpdateSetting(ctx context.Context, params UpdateSettingParams) (*models.ReminderSetting, error) {
	if !params.ReminderType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reminder type")
	}
	template := strings.TrimSpace(params.MessageTemplate)
	if template == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message template is required")
	}

	setting := &models.ReminderSetting{
		CompanyID:       params.CompanyID,
		ReminderType:    params.ReminderType,
		IsActive:        params.IsActive,
		MessageTemplate: template,
	}
	if err := s.repo.UpsertSetting(ctx, setting); err != nil {
		return nil, err
	}
	return setting, nil
}

// SeedDefaults creates the default settings for a new company. Existing rows
// keep their values.
func (s *Service) SeedDefaults(ctx context.Context, companyID uuid.UUID) error {
	for _, reminderType := range []enums.ReminderType{
		enums.ReminderTypeConfirmation,
		enums.ReminderType24Hours,
		enums.ReminderType1Hour,
	} {
		existing, err := s.repo.FindSetting(ctx, companyID, reminderType)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		setting := &models.ReminderSetting{
			CompanyID:       companyID,
			ReminderType:    reminderType,
			IsActive:        true,
			MessageTemplate: DefaultTemplates[reminderType],
		}
		if err := s.repo.UpsertSetting(ctx, setting); err != nil {
			return err
		}
	}
	return nil
}

// ListHistory returns the company's most recent reminder attempts.
func (s *Service) ListHistory(ctx context.Context, companyID uuid.UUID, limit int) ([]models.ReminderHistory, error) {
	return s.repo.ListHistory(ctx, companyID, limit)
}
