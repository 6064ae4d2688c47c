package webhooks

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

type stubValidator struct{ valid bool }

func (s *stubValidator) ValidateWebhookToken(token string) bool { return s.valid }

type stubEventStore struct {
	seen map[string]bool
	err  error
}

func (s *stubEventStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *stubEventStore) WebhookEventKey(provider, eventID string) string {
	return "aj:webhook:" + provider + ":" + eventID
}

type stubCompanies struct {
	company *models.Company
}

func (s *stubCompanies) FindByAsaasCustomerID(ctx context.Context, customerID string) (*models.Company, error) {
	return s.company, nil
}

type stubStatusWriter struct {
	writes []enums.SubscriptionStatus
}

func (s *stubStatusWriter) UpdateSubscriptionStatus(ctx context.Context, companyID uuid.UUID, status enums.SubscriptionStatus) error {
	s.writes = append(s.writes, status)
	return nil
}

type stubCommissions struct {
	calls []string
	err   error
}

func (s *stubCommissions) RecordCommission(ctx context.Context, affiliateID, companyID uuid.UUID, paymentID string, paymentValue decimal.Decimal) (*models.AffiliateCommission, error) {
	s.calls = append(s.calls, paymentID)
	if s.err != nil {
		return nil, s.err
	}
	return &models.AffiliateCommission{PaymentID: paymentID}, nil
}

type fixture struct {
	svc         *Service
	status      *stubStatusWriter
	commissions *stubCommissions
	events      *stubEventStore
}

func newFixture(t *testing.T, company *models.Company) *fixture {
	t.Helper()
	status := &stubStatusWriter{}
	commissions := &stubCommissions{}
	events := &stubEventStore{}
	svc, err := NewService(ServiceParams{
		Validator:   &stubValidator{valid: true},
		Events:      events,
		Companies:   &stubCompanies{company: company},
		Status:      status,
		Commissions: commissions,
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{svc: svc, status: status, commissions: commissions, events: events}
}

func paymentEvent(id, eventType string) *Event {
	return &Event{
		ID:   id,
		Type: eventType,
		Payment: &PaymentPayload{
			ID:       "pay_123",
			Customer: "cus_456",
			Value:    decimal.RequireFromString("99.90"),
		},
	}
}

func TestHandleEventRejectsBadToken(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Validator: &stubValidator{valid: false},
		Companies: &stubCompanies{},
		Status:    &stubStatusWriter{},
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	handleErr := svc.HandleEvent(context.Background(), "wrong", paymentEvent("evt_1", EventPaymentConfirmed))
	if pkgerrors.As(handleErr) == nil || pkgerrors.As(handleErr).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", handleErr)
	}
}

func TestPaymentConfirmedActivatesSubscription(t *testing.T) {
	company := &models.Company{ID: uuid.New()}
	f := newFixture(t, company)

	if err := f.svc.HandleEvent(context.Background(), "tok", paymentEvent("evt_1", EventPaymentConfirmed)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(f.status.writes) != 1 || f.status.writes[0] != enums.SubscriptionStatusActive {
		t.Fatalf("expected one active write, got %v", f.status.writes)
	}
	if len(f.commissions.calls) != 0 {
		t.Fatal("expected no commission without a referral")
	}
}

func TestPaymentConfirmedRecordsReferralCommission(t *testing.T) {
	affiliateID := uuid.New()
	company := &models.Company{ID: uuid.New(), ReferredByAffiliateID: &affiliateID}
	f := newFixture(t, company)

	if err := f.svc.HandleEvent(context.Background(), "tok", paymentEvent("evt_1", EventPaymentReceived)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(f.commissions.calls) != 1 || f.commissions.calls[0] != "pay_123" {
		t.Fatalf("expected commission for pay_123, got %v", f.commissions.calls)
	}
}

func TestCommissionFailureDoesNotFailEvent(t *testing.T) {
	affiliateID := uuid.New()
	company := &models.Company{ID: uuid.New(), ReferredByAffiliateID: &affiliateID}
	f := newFixture(t, company)
	f.commissions.err = pkgerrors.New(pkgerrors.CodeInternal, "ledger down")

	if err := f.svc.HandleEvent(context.Background(), "tok", paymentEvent("evt_1", EventPaymentConfirmed)); err != nil {
		t.Fatalf("expected event to succeed despite commission failure, got %v", err)
	}
	if len(f.status.writes) != 1 {
		t.Fatalf("expected status write to stick, got %v", f.status.writes)
	}
}

func TestPaymentOverdueMarksOverdue(t *testing.T) {
	f := newFixture(t, &models.Company{ID: uuid.New()})

	if err := f.svc.HandleEvent(context.Background(), "tok", paymentEvent("evt_1", EventPaymentOverdue)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(f.status.writes) != 1 || f.status.writes[0] != enums.SubscriptionStatusOverdue {
		t.Fatalf("expected overdue write, got %v", f.status.writes)
	}
}

func TestSubscriptionDeletedExpires(t *testing.T) {
	f := newFixture(t, &models.Company{ID: uuid.New()})

	if err := f.svc.HandleEvent(context.Background(), "tok", paymentEvent("evt_1", EventSubscriptionDeleted)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(f.status.writes) != 1 || f.status.writes[0] != enums.SubscriptionStatusExpired {
		t.Fatalf("expected expired write, got %v", f.status.writes)
	}
}

func TestDuplicateDeliveryIsDropped(t *testing.T) {
	f := newFixture(t, &models.Company{ID: uuid.New()})

	event := paymentEvent("evt_1", EventPaymentConfirmed)
	if err := f.svc.HandleEvent(context.Background(), "tok", event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := f.svc.HandleEvent(context.Background(), "tok", event); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if len(f.status.writes) != 1 {
		t.Fatalf("expected replay to be dropped, got %d writes", len(f.status.writes))
	}
}

func TestDedupStoreOutageFailsOpen(t *testing.T) {
	f := newFixture(t, &models.Company{ID: uuid.New()})
	f.events.err = context.DeadlineExceeded

	if err := f.svc.HandleEvent(context.Background(), "tok", paymentEvent("evt_1", EventPaymentConfirmed)); err != nil {
		t.Fatalf("expected event to process when dedup store is down, got %v", err)
	}
	if len(f.status.writes) != 1 {
		t.Fatalf("expected status write, got %v", f.status.writes)
	}
}

func TestUnknownEventTypeIsAcknowledged(t *testing.T) {
	f := newFixture(t, &models.Company{ID: uuid.New()})

	if err := f.svc.HandleEvent(context.Background(), "tok", paymentEvent("evt_1", "PAYMENT_CREATED")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(f.status.writes) != 0 {
		t.Fatalf("expected no status writes, got %v", f.status.writes)
	}
}

func TestUnknownCustomerIsAcknowledged(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.svc.HandleEvent(context.Background(), "tok", paymentEvent("evt_1", EventPaymentConfirmed)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(f.status.writes) != 0 {
		t.Fatalf("expected no status writes, got %v", f.status.writes)
	}
}

func TestParseEventRejectsMalformedBody(t *testing.T) {
	if _, err := ParseEvent([]byte("{not json")); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseEvent([]byte(`{"id":"evt_1"}`)); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing type, got %v", err)
	}
}
