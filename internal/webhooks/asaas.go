package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

// Asaas webhook event names we react to. Everything else is acknowledged and
// dropped.
const (
	EventPaymentConfirmed       = "PAYMENT_CONFIRMED"
	EventPaymentReceived        = "PAYMENT_RECEIVED"
	EventPaymentOverdue         = "PAYMENT_OVERDUE"
	EventSubscriptionDeleted    = "SUBSCRIPTION_DELETED"
	EventSubscriptionInactivate = "SUBSCRIPTION_INACTIVATED"
)

// eventTTL bounds how long a processed event id blocks replays.
const eventTTL = 72 * time.Hour

// Event is the envelope Asaas posts to the webhook endpoint.
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"event"`
	Payment *PaymentPayload `json:"payment,omitempty"`
}

// PaymentPayload is the subset of the payment object we consume.
type PaymentPayload struct {
	ID           string          `json:"id"`
	Customer     string          `json:"customer"`
	Subscription string          `json:"subscription,omitempty"`
	Value        decimal.Decimal `json:"value"`
	Status       string          `json:"status"`
}

// TokenValidator checks the asaas-access-token header.
type TokenValidator interface {
	ValidateWebhookToken(token string) bool
}

// EventStore deduplicates webhook deliveries.
type EventStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	WebhookEventKey(provider, eventID string) string
}

// CompanyFinder resolves the tenant for a gateway customer.
type CompanyFinder interface {
	FindByAsaasCustomerID(ctx context.Context, customerID string) (*models.Company, error)
}

// StatusWriter persists subscription status transitions. The webhook handler
// and the reconcile job are the only writers of that column.
type StatusWriter interface {
	UpdateSubscriptionStatus(ctx context.Context, companyID uuid.UUID, status enums.SubscriptionStatus) error
}

// CommissionRecorder books affiliate commissions for confirmed payments.
type CommissionRecorder interface {
	RecordCommission(ctx context.Context, affiliateID, companyID uuid.UUID, paymentID string, paymentValue decimal.Decimal) (*models.AffiliateCommission, error)
}

// ServiceParams wires the webhook service dependencies.
type ServiceParams struct {
	Validator   TokenValidator
	Events      EventStore
	Companies   CompanyFinder
	Status      StatusWriter
	Commissions CommissionRecorder
	Logger      *logger.Logger
}

// Service processes Asaas payment webhooks.
type Service struct {
	validator   TokenValidator
	events      EventStore
	companies   CompanyFinder
	status      StatusWriter
	commissions CommissionRecorder
	logger      *logger.Logger
}

// NewService validates dependencies and builds a webhook Service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Validator == nil {
		return nil, errors.New("webhooks: token validator is required")
	}
	if params.Companies == nil {
		return nil, errors.New("webhooks: company finder is required")
	}
	if params.Status == nil {
		return nil, errors.New("webhooks: status writer is required")
	}
	if params.Logger == nil {
		return nil, errors.New("webhooks: logger is required")
	}
	return &Service{
		validator:   params.Validator,
		events:      params.Events,
		companies:   params.Companies,
		status:      params.Status,
		commissions: params.Commissions,
		logger:      params.Logger,
	}, nil
}

// ParseEvent decodes the webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook body")
	}
	if strings.TrimSpace(event.Type) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event type is required")
	}
	return &event, nil
}

// HandleEvent validates, deduplicates and applies one webhook delivery.
// Unknown event types and unknown customers are acknowledged without effect
// so the gateway stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, token string, event *Event) error {
	if !s.validator.ValidateWebhookToken(token) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook token")
	}
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event is required")
	}

	fresh, err := s.claimEvent(ctx, event.ID)
	if err != nil {
		return err
	}
	if !fresh {
		s.logger.Info(ctx, "webhook event already processed: "+event.ID)
		return nil
	}

	switch event.Type {
	case EventPaymentConfirmed, EventPaymentReceived:
		return s.handlePaymentConfirmed(ctx, event)
	case EventPaymentOverdue:
		return s.applyStatus(ctx, event, enums.SubscriptionStatusOverdue)
	case EventSubscriptionDeleted, EventSubscriptionInactivate:
		return s.applyStatus(ctx, event, enums.SubscriptionStatusExpired)
	default:
		s.logger.Info(ctx, "ignoring webhook event type "+event.Type)
		return nil
	}
}

func (s *Service) handlePaymentConfirmed(ctx context.Context, event *Event) error {
	company, err := s.resolveCompany(ctx, event)
	if err != nil || company == nil {
		return err
	}
	ctx = s.logger.WithCompanyID(ctx, company.ID.String())

	if err := s.status.UpdateSubscriptionStatus(ctx, company.ID, enums.SubscriptionStatusActive); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update subscription status")
	}
	s.logger.Info(ctx, "subscription activated by payment "+event.Payment.ID)

	if s.commissions != nil && company.ReferredByAffiliateID != nil {
		if _, err := s.commissions.RecordCommission(ctx, *company.ReferredByAffiliateID, company.ID, event.Payment.ID, event.Payment.Value); err != nil {
			// the payment is already applied; commission bookkeeping
			// must not make the gateway retry the whole event
			s.logger.Error(ctx, "record affiliate commission", err)
		}
	}
	return nil
}

func (s *Service) applyStatus(ctx context.Context, event *Event, status enums.SubscriptionStatus) error {
	company, err := s.resolveCompany(ctx, event)
	if err != nil || company == nil {
		return err
	}
	ctx = s.logger.WithCompanyID(ctx, company.ID.String())

	if err := s.status.UpdateSubscriptionStatus(ctx, company.ID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update subscription status")
	}
	s.logger.Info(ctx, "subscription status set to "+status.String()+" by event "+event.Type)
	return nil
}

func (s *Service) resolveCompany(ctx context.Context, event *Event) (*models.Company, error) {
	if event.Payment == nil || event.Payment.Customer == "" {
		s.logger.Warn(ctx, "webhook event "+event.Type+" without payment payload")
		return nil, nil
	}
	company, err := s.companies.FindByAsaasCustomerID(ctx, event.Payment.Customer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load company by gateway customer")
	}
	if company == nil {
		s.logger.Warn(ctx, "webhook for unknown gateway customer "+event.Payment.Customer)
		return nil, nil
	}
	return company, nil
}

// claimEvent reports whether this delivery is the first one seen for the
// event id. Events without an id and store outages are processed anyway: the
// status writes are idempotent.
func (s *Service) claimEvent(ctx context.Context, eventID string) (bool, error) {
	if s.events == nil || strings.TrimSpace(eventID) == "" {
		return true, nil
	}
	fresh, err := s.events.SetNX(ctx, s.events.WebhookEventKey("asaas", eventID), "1", eventTTL)
	if err != nil {
		s.logger.Warn(ctx, "webhook dedup store unavailable: "+err.Error())
		return true, nil
	}
	return fresh, nil
}
