package asaas

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agendaja-app/agendaja-backend/pkg/config"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

const (
	authHeader = "access_token"
	dateLayout = "2006-01-02"
)

var (
	errAPIKeyRequired       = errors.New("asaas api key is required")
	errBaseURLRequired      = errors.New("asaas base url is required")
	errWebhookTokenRequired = errors.New("asaas webhook token is required")
	errLoggerRequired       = errors.New("asaas logger is required")
)

// Client exposes the Asaas billing primitives with centralized auth, logging, and error mapping.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	webhookToken string
	logger       *logger.Logger
}

// NewClient initializes the Asaas wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.AsaasConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	webhookToken := strings.TrimSpace(cfg.WebhookToken)
	if webhookToken == "" {
		return nil, errWebhookTokenRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		apiKey:       apiKey,
		webhookToken: webhookToken,
		logger:       logg,
	}

	logg.Info(ctx, "asaas client initialized")
	return c, nil
}

// ValidateWebhookToken compares the asaas-access-token header value in constant time.
func (c *Client) ValidateWebhookToken(token string) bool {
	if c == nil || c.webhookToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(c.webhookToken)) == 1
}

// Customer is the subset of the Asaas customer payload we consume.
type Customer struct {
	ID string `json:"id"`
}

// CustomerCreateParams describes a new gateway customer.
type CustomerCreateParams struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	CPFCNPJ           string `json:"cpfCnpj"`
	Phone             string `json:"mobilePhone,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
}

// CreateCustomer registers a company as a gateway customer.
func (c *Client) CreateCustomer(ctx context.Context, params CustomerCreateParams) (*Customer, error) {
	c.log(ctx, "request", "create_customer", map[string]any{"external_reference": params.ExternalReference})

	var out Customer
	if err := c.do(ctx, http.MethodPost, "/customers", params, &out); err != nil {
		c.log(ctx, "error", "create_customer", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_customer", map[string]any{"customer_id": out.ID})
	return &out, nil
}

// Subscription is the subset of the Asaas subscription payload we consume.
type Subscription struct {
	ID          string          `json:"id"`
	Customer    string          `json:"customer"`
	Status      string          `json:"status"`
	Value       decimal.Decimal `json:"value"`
	NextDueDate string          `json:"nextDueDate"`
	Cycle       string          `json:"cycle"`
}

// SubscriptionCreateParams describes a new recurring charge.
type SubscriptionCreateParams struct {
	Customer          string          `json:"customer"`
	BillingType       string          `json:"billingType"`
	Value             decimal.Decimal `json:"value"`
	NextDueDate       string          `json:"nextDueDate"`
	Cycle             string          `json:"cycle"`
	Description       string          `json:"description,omitempty"`
	ExternalReference string          `json:"externalReference,omitempty"`
}

// CreateSubscription starts a recurring charge for the customer.
func (c *Client) CreateSubscription(ctx context.Context, params SubscriptionCreateParams) (*Subscription, error) {
	c.log(ctx, "request", "create_subscription", map[string]any{
		"customer_id": params.Customer,
		"cycle":       params.Cycle,
		"value":       params.Value.String(),
	})

	var out Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions", params, &out); err != nil {
		c.log(ctx, "error", "create_subscription", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_subscription", map[string]any{
		"subscription_id": out.ID,
		"status":          out.Status,
	})
	return &out, nil
}

// CancelSubscription stops the recurring charge.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	c.log(ctx, "request", "cancel_subscription", map[string]any{"subscription_id": subscriptionID})

	if err := c.do(ctx, http.MethodDelete, "/subscriptions/"+url.PathEscape(subscriptionID), nil, nil); err != nil {
		c.log(ctx, "error", "cancel_subscription", map[string]any{"error": err.Error()})
		return err
	}

	c.log(ctx, "response", "cancel_subscription", map[string]any{"subscription_id": subscriptionID})
	return nil
}

// Snapshot is the gateway view of a customer's newest subscription.
type Snapshot struct {
	SubscriptionID string
	Status         enums.GatewayStatus
	Value          decimal.Decimal
	NextDueDate    *time.Time
}

// GetSubscriptionSnapshot fetches the customer's most recent subscription
// state. A customer with no subscription at all returns (nil, nil).
func (c *Client) GetSubscriptionSnapshot(ctx context.Context, customerID string) (*Snapshot, error) {
	c.log(ctx, "request", "get_subscription_snapshot", map[string]any{"customer_id": customerID})

	var out struct {
		Data []Subscription `json:"data"`
	}
	path := "/subscriptions?customer=" + url.QueryEscape(customerID) + "&limit=1&order=desc"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		c.log(ctx, "error", "get_subscription_snapshot", map[string]any{"error": err.Error()})
		return nil, err
	}
	if len(out.Data) == 0 {
		c.log(ctx, "response", "get_subscription_snapshot", map[string]any{"found": false})
		return nil, nil
	}

	sub := out.Data[0]
	status, err := enums.ParseGatewayStatus(sub.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "asaas returned unknown subscription status")
	}

	snap := &Snapshot{
		SubscriptionID: sub.ID,
		Status:         status,
		Value:          sub.Value,
	}
	if sub.NextDueDate != "" {
		due, err := time.Parse(dateLayout, sub.NextDueDate)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "asaas returned malformed due date")
		}
		snap.NextDueDate = &due
	}

	c.log(ctx, "response", "get_subscription_snapshot", map[string]any{
		"subscription_id": snap.SubscriptionID,
		"status":          snap.Status.String(),
	})
	return snap, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding asaas request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building asaas request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling asaas")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding asaas response")
	}
	return nil
}

func (c *Client) mapAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	description := http.StatusText(resp.StatusCode)
	var payload struct {
		Errors []struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && len(payload.Errors) > 0 {
		description = payload.Errors[0].Description
	}

	code := domainCodeForStatus(resp.StatusCode)
	return pkgerrors.New(code, fmt.Sprintf("asaas: %s", description)).
		WithDetails(map[string]any{"status_code": resp.StatusCode})
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("asaas %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("asaas %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "email", "phone", "cpf", "cnpj"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
