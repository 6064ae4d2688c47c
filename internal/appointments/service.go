package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
	"github.com/agendaja-app/agendaja-backend/pkg/pagination"
	"github.com/agendaja-app/agendaja-backend/pkg/whatsapp"
)

// ConfirmationNotifier sends the booking-confirmation message for an appointment.
type ConfirmationNotifier interface {
	SendConfirmation(ctx context.Context, appointmentID uuid.UUID) error
}

// ReviewInviter creates a review invitation once an appointment completes.
type ReviewInviter interface {
	InviteForAppointment(ctx context.Context, appointment *models.Appointment) error
}

// legal transitions keyed by the current status.
var allowedTransitions = map[enums.AppointmentStatus][]enums.AppointmentStatus{
	enums.AppointmentStatusScheduled: {
		enums.AppointmentStatusConfirmed,
		enums.AppointmentStatusCompleted,
		enums.AppointmentStatusCancelled,
		enums.AppointmentStatusNoShow,
	},
	enums.AppointmentStatusConfirmed: {
		enums.AppointmentStatusCompleted,
		enums.AppointmentStatusCancelled,
		enums.AppointmentStatusNoShow,
	},
}

// ServiceParams wires the appointment service dependencies.
type ServiceParams struct {
	Repo     Repository
	Logger   *logger.Logger
	Notifier ConfirmationNotifier
	Reviews  ReviewInviter
	Now      func() time.Time
}

// Service implements booking management for a company.
type Service struct {
	repo     Repository
	logger   *logger.Logger
	notifier ConfirmationNotifier
	reviews  ReviewInviter
	now      func() time.Time
}

// NewService validates dependencies and builds an appointment Service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("appointments: repository is required")
	}
	if params.Logger == nil {
		return nil, errors.New("appointments: logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     params.Repo,
		logger:   params.Logger,
		notifier: params.Notifier,
		reviews:  params.Reviews,
		now:      now,
	}, nil
}

// CreateInput captures the fields accepted when booking an appointment.
type CreateInput struct {
	ProfessionalID *uuid.UUID
	ServiceID      *uuid.UUID
	ClientName     string
	ClientPhone    string
	StartsAt       time.Time
	Notes          *string
}

// Create books a new appointment and fires the confirmation message.
func (s *Service) Create(ctx context.Context, companyID uuid.UUID, input CreateInput) (*models.Appointment, error) {
	input.ClientName = strings.TrimSpace(input.ClientName)
	if input.ClientName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name is required")
	}
	phone := whatsapp.NormalizePhone(input.ClientPhone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client phone is required")
	}
	if !input.StartsAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment must start in the future")
	}

	durationMinutes := 30
	if input.ServiceID != nil {
		service, err := s.repo.FindService(ctx, companyID, *input.ServiceID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load service")
		}
		if service == nil || !service.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service not found or inactive")
		}
		durationMinutes = service.DurationMinutes
	}
	if input.ProfessionalID != nil {
		professional, err := s.repo.FindProfessional(ctx, companyID, *input.ProfessionalID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load professional")
		}
		if professional == nil || !professional.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "professional not found or inactive")
		}

		end := input.StartsAt.Add(time.Duration(durationMinutes) * time.Minute)
		overlapping, err := s.repo.CountOverlapping(ctx, companyID, input.ProfessionalID, input.StartsAt, end, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check availability")
		}
		if overlapping > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "professional already booked for this slot")
		}
	}

	appointment := &models.Appointment{
		CompanyID:      companyID,
		ProfessionalID: input.ProfessionalID,
		ServiceID:      input.ServiceID,
		ClientName:     input.ClientName,
		ClientPhone:    phone,
		StartsAt:       input.StartsAt,
		Status:         enums.AppointmentStatusScheduled,
		Notes:          input.Notes,
	}
	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create appointment")
	}

	s.notifyConfirmation(ctx, appointment.ID)
	return appointment, nil
}

// Get loads a single appointment scoped to the company.
func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*models.Appointment, error) {
	appointment, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load appointment")
	}
	if appointment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
	}
	return appointment, nil
}

// List returns appointments for the company filtered by the query.
func (s *Service) List(ctx context.Context, params ListQuery) ([]models.Appointment, *pagination.Cursor, error) {
	appointments, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list appointments")
	}
	return appointments, next, nil
}

// UpdateInput captures the mutable fields of an appointment.
type UpdateInput struct {
	StartsAt *time.Time
	Notes    *string
}

// Update reschedules or annotates an appointment that has not finished yet.
func (s *Service) Update(ctx context.Context, companyID, id uuid.UUID, input UpdateInput) (*models.Appointment, error) {
	appointment, err := s.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !appointment.Status.Remindable() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "appointment can no longer be changed")
	}

	if input.StartsAt != nil {
		if !input.StartsAt.After(s.now()) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment must start in the future")
		}
		appointment.StartsAt = *input.StartsAt
	}
	if input.Notes != nil {
		appointment.Notes = input.Notes
	}
	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update appointment")
	}
	return appointment, nil
}

// Transition moves an appointment to a new status, enforcing the lifecycle rules.
func (s *Service) Transition(ctx context.Context, companyID, id uuid.UUID, target enums.AppointmentStatus) (*models.Appointment, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid appointment status")
	}
	appointment, err := s.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status == target {
		return appointment, nil
	}
	if !transitionAllowed(appointment.Status, target) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "invalid status transition").
			WithDetails(map[string]string{"from": appointment.Status.String(), "to": target.String()})
	}

	appointment.Status = target
	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update appointment status")
	}

	switch target {
	case enums.AppointmentStatusConfirmed:
		s.notifyConfirmation(ctx, appointment.ID)
	case enums.AppointmentStatusCompleted:
		s.inviteReview(ctx, appointment)
	}
	return appointment, nil
}

// Confirm marks an appointment as confirmed by the client.
func (s *Service) Confirm(ctx context.Context, companyID, id uuid.UUID) (*models.Appointment, error) {
	return s.Transition(ctx, companyID, id, enums.AppointmentStatusConfirmed)
}

// Cancel marks an appointment as cancelled.
func (s *Service) Cancel(ctx context.Context, companyID, id uuid.UUID) (*models.Appointment, error) {
	return s.Transition(ctx, companyID, id, enums.AppointmentStatusCancelled)
}

// Complete marks an appointment finished and triggers the review invitation.
func (s *Service) Complete(ctx context.Context, companyID, id uuid.UUID) (*models.Appointment, error) {
	return s.Transition(ctx, companyID, id, enums.AppointmentStatusCompleted)
}

func (s *Service) notifyConfirmation(ctx context.Context, appointmentID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendConfirmation(ctx, appointmentID); err != nil {
		s.logger.Warn(ctx, "appointment confirmation message failed: "+err.Error())
	}
}

func (s *Service) inviteReview(ctx context.Context, appointment *models.Appointment) {
	if s.reviews == nil {
		return
	}
	if err := s.reviews.InviteForAppointment(ctx, appointment); err != nil {
		s.logger.Warn(ctx, "review invitation failed: "+err.Error())
	}
}

func transitionAllowed(from, to enums.AppointmentStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
