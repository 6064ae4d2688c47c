package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agendaja-app/agendaja-backend/pkg/asaas"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

const (
	billingTypeUndefined = "UNDEFINED"
	cycleMonthly         = "MONTHLY"
	dueDateLayout        = "2006-01-02"
)

// CompanyDirectory reads and links tenant gateway references.
type CompanyDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Company, error)
	LinkGatewayCustomer(ctx context.Context, id uuid.UUID, customerID, subscriptionID string) (*models.Company, error)
}

// PlanCatalog resolves the plan being purchased.
type PlanCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
}

// Gateway is the Asaas surface used at checkout.
type Gateway interface {
	CreateCustomer(ctx context.Context, params asaas.CustomerCreateParams) (*asaas.Customer, error)
	CreateSubscription(ctx context.Context, params asaas.SubscriptionCreateParams) (*asaas.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

// ServiceParams wires the billing checkout dependencies.
type ServiceParams struct {
	Companies CompanyDirectory
	Plans     PlanCatalog
	Gateway   Gateway
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service purchases and cancels recurring gateway subscriptions. Status
// changes still arrive exclusively through the webhook handler and the
// reconcile job; checkout only creates the gateway objects.
type Service struct {
	companies CompanyDirectory
	plans     PlanCatalog
	gateway   Gateway
	logger    *logger.Logger
	now       func() time.Time
}

// NewService validates dependencies and builds a billing Service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Companies == nil {
		return nil, errors.New("billing: company directory is required")
	}
	if params.Plans == nil {
		return nil, errors.New("billing: plan catalog is required")
	}
	if params.Gateway == nil {
		return nil, errors.New("billing: gateway is required")
	}
	if params.Logger == nil {
		return nil, errors.New("billing: logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		companies: params.Companies,
		plans:     params.Plans,
		gateway:   params.Gateway,
		logger:    params.Logger,
		now:       now,
	}, nil
}

// SubscribeResult reports the created gateway subscription.
type SubscribeResult struct {
	SubscriptionID string          `json:"subscription_id"`
	Status         string          `json:"status"`
	Value          decimal.Decimal `json:"value"`
	NextDueDate    string          `json:"next_due_date"`
}

// Subscribe creates the gateway customer on first purchase and starts a
// monthly charge for the chosen plan. The first due date is today; until the
// gateway confirms payment the tenant keeps its current status.
func (s *Service) Subscribe(ctx context.Context, companyID, planID uuid.UUID) (*SubscribeResult, error) {
	company, err := s.companies.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load plan")
	}
	if plan == nil || !plan.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan not available")
	}
	if company.AsaasSubscriptionID != nil && *company.AsaasSubscriptionID != "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "company already has an active subscription")
	}

	customerID := ""
	if company.AsaasCustomerID != nil {
		customerID = *company.AsaasCustomerID
	}
	if customerID == "" {
		phone := ""
		if company.Phone != nil {
			phone = *company.Phone
		}
		customer, err := s.gateway.CreateCustomer(ctx, asaas.CustomerCreateParams{
			Name:              company.FantasyName,
			Email:             company.Email,
			CPFCNPJ:           company.Document,
			Phone:             phone,
			ExternalReference: company.ID.String(),
		})
		if err != nil {
			return nil, err
		}
		customerID = customer.ID
	}

	subscription, err := s.gateway.CreateSubscription(ctx, asaas.SubscriptionCreateParams{
		Customer:          customerID,
		BillingType:       billingTypeUndefined,
		Value:             plan.Price,
		NextDueDate:       s.now().Format(dueDateLayout),
		Cycle:             cycleMonthly,
		Description:       plan.Name,
		ExternalReference: company.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.companies.LinkGatewayCustomer(ctx, company.ID, customerID, subscription.ID); err != nil {
		// the gateway objects exist; reconciliation picks the link up later
		s.logger.Error(ctx, "failed to store gateway references", err)
	}

	return &SubscribeResult{
		SubscriptionID: subscription.ID,
		Status:         subscription.Status,
		Value:          subscription.Value,
		NextDueDate:    subscription.NextDueDate,
	}, nil
}

// Cancel stops the recurring charge. The status flips to expired when the
// gateway delivers the SUBSCRIPTION_DELETED event, not here.
func (s *Service) Cancel(ctx context.Context, companyID uuid.UUID) error {
	company, err := s.companies.Get(ctx, companyID)
	if err != nil {
		return err
	}
	if company.AsaasSubscriptionID == nil || *company.AsaasSubscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "company has no subscription to cancel")
	}
	return s.gateway.CancelSubscription(ctx, *company.AsaasSubscriptionID)
}
