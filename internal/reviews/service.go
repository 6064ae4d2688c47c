package reviews

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/pkg/db"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
	"github.com/agendaja-app/agendaja-backend/pkg/whatsapp"
)

// invitations stay redeemable for a week after the visit.
const invitationTTL = 7 * 24 * time.Hour

const tokenBytes = 24

// ServiceParams wires the review service dependencies.
type ServiceParams struct {
	Repo   Repository
	Sender whatsapp.Sender
	Logger *logger.Logger
	Now    func() time.Time
}

// Service issues and redeems post-visit review invitations.
type Service struct {
	repo   Repository
	sender whatsapp.Sender
	logger *logger.Logger
	now    func() time.Time
}

// NewService validates dependencies and builds a review Service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("reviews: repository is required")
	}
	if params.Logger == nil {
		return nil, errors.New("reviews: logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:   params.Repo,
		sender: params.Sender,
		logger: params.Logger,
		now:    now,
	}, nil
}

// InviteForAppointment issues an invitation for a completed appointment. Each
// appointment gets at most one invitation.
func (s *Service) InviteForAppointment(ctx context.Context, appointment *models.Appointment) error {
	if appointment == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "appointment is required")
	}
	if appointment.Status != enums.AppointmentStatusCompleted {
		return pkgerrors.New(pkgerrors.CodeValidation, "appointment is not completed")
	}

	token, err := generateToken()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate invitation token")
	}
	invitation := &models.ReviewInvitation{
		CompanyID:     appointment.CompanyID,
		AppointmentID: appointment.ID,
		Token:         token,
		ExpiresAt:     s.now().Add(invitationTTL),
	}
	if err := s.repo.Create(ctx, invitation); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review invitation")
	}

	s.sendInvitation(ctx, appointment, invitation)
	return nil
}

// RedeemInput carries the client's review submission.
type RedeemInput struct {
	Rating  int
	Comment *string
}

// Redeem records the rating attached to an invitation token. Tokens are
// single use and expire after a week.
func (s *Service) Redeem(ctx context.Context, token string, input RedeemInput) (*models.ReviewInvitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	invitation, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invitation")
	}
	if invitation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
	}
	if invitation.RedeemedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "invitation already redeemed")
	}
	if !s.now().Before(invitation.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "invitation expired")
	}

	redeemedAt := s.now()
	invitation.RedeemedAt = &redeemedAt
	invitation.Rating = &input.Rating
	invitation.Comment = input.Comment
	if err := s.repo.Update(ctx, invitation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeem invitation")
	}
	return invitation, nil
}

// ListRedeemed returns the company's collected reviews, newest first.
func (s *Service) ListRedeemed(ctx context.Context, companyID uuid.UUID) ([]models.ReviewInvitation, error) {
	invitations, err := s.repo.ListRedeemed(ctx, companyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	return invitations, nil
}

func (s *Service) sendInvitation(ctx context.Context, appointment *models.Appointment, invitation *models.ReviewInvitation) {
	if s.sender == nil || appointment.ClientPhone == "" {
		return
	}
	message := "Olá, " + appointment.ClientName +
		"! Como foi seu atendimento? Avalie usando o código: " + invitation.Token
	if _, err := s.sender.SendText(ctx, appointment.ClientPhone, message); err != nil {
		s.logger.Warn(ctx, "review invitation message failed: "+err.Error())
	}
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
