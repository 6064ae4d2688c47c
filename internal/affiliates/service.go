package affiliates

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agendaja-app/agendaja-backend/pkg/db"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

// referral codes skip ambiguous characters (0/O, 1/I).
const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const referralCodeLen = 8

// ServiceParams wires the affiliate service dependencies.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
	Now    func() time.Time
}

// Service manages affiliate accounts and their commission ledger.
type Service struct {
	repo   Repository
	logger *logger.Logger
	now    func() time.Time
}

// NewService validates dependencies and builds an affiliate Service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("affiliates: repository is required")
	}
	if params.Logger == nil {
		return nil, errors.New("affiliates: logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{repo: params.Repo, logger: params.Logger, now: now}, nil
}

// CreateInput captures the fields accepted when enrolling an affiliate.
type CreateInput struct {
	Name           string
	Email          string
	CommissionRate decimal.Decimal
}

// Create enrolls a new affiliate with a generated referral code.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Affiliate, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || input.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
	}
	if input.CommissionRate.IsNegative() || input.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be between 0 and 1")
	}

	code, err := generateReferralCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate referral code")
	}
	affiliate := &models.Affiliate{
		Name:           input.Name,
		Email:          input.Email,
		ReferralCode:   code,
		CommissionRate: input.CommissionRate,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, affiliate); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "affiliate email or referral code already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create affiliate")
	}
	return affiliate, nil
}

// Get loads a single affiliate.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Affiliate, error) {
	affiliate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load affiliate")
	}
	if affiliate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate not found")
	}
	return affiliate, nil
}

// SetActive toggles whether the affiliate can receive new referrals.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Affiliate, error) {
	affiliate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if affiliate.IsActive == active {
		return affiliate, nil
	}
	affiliate.IsActive = active
	if err := s.repo.Update(ctx, affiliate); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update affiliate")
	}
	return affiliate, nil
}

// ResolveReferralCode maps a referral code to its affiliate, or nil when the
// code is unknown.
func (s *Service) ResolveReferralCode(ctx context.Context, code string) (*models.Affiliate, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil
	}
	affiliate, err := s.repo.FindByReferralCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve referral code")
	}
	return affiliate, nil
}

// RecordCommission books the affiliate's cut of a confirmed payment. Each
// gateway payment yields at most one commission row; replays return the
// outcome of the first write.
func (s *Service) RecordCommission(ctx context.Context, affiliateID, companyID uuid.UUID, paymentID string, paymentValue decimal.Decimal) (*models.AffiliateCommission, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	affiliate, err := s.Get(ctx, affiliateID)
	if err != nil {
		return nil, err
	}

	commission := &models.AffiliateCommission{
		AffiliateID: affiliate.ID,
		CompanyID:   companyID,
		PaymentID:   paymentID,
		Rate:        affiliate.CommissionRate,
		Amount:      paymentValue.Mul(affiliate.CommissionRate).Round(2),
		Status:      enums.CommissionStatusPending,
	}
	if err := s.repo.CreateCommission(ctx, commission); err != nil {
		if db.IsUniqueViolation(err, "ux_affiliate_commissions_payment") {
			s.logger.Warn(s.logger.WithField(ctx, "payment_id", paymentID), "commission already recorded for payment")
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record commission")
	}
	return commission, nil
}

// ListCommissions returns the commission ledger for an affiliate, newest first.
func (s *Service) ListCommissions(ctx context.Context, affiliateID uuid.UUID) ([]models.AffiliateCommission, error) {
	commissions, err := s.repo.ListCommissions(ctx, affiliateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list commissions")
	}
	return commissions, nil
}

func generateReferralCode() (string, error) {
	buf := make([]byte, referralCodeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, referralCodeLen)
	for i, b := range buf {
		code[i] = referralAlphabet[int(b)%len(referralAlphabet)]
	}
	return string(code), nil
}
