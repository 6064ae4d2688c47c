package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/agendaja-app/agendaja-backend/pkg/config"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

var (
	errBaseURLRequired  = errors.New("whatsapp base url is required")
	errAPIKeyRequired   = errors.New("whatsapp api key is required")
	errInstanceRequired = errors.New("whatsapp instance is required")
	errLoggerRequired   = errors.New("whatsapp logger is required")

	nonDigitRe = regexp.MustCompile(`\D`)
)

// Sender dispatches one text message. The reminder dispatcher depends on this
// interface so tests can swap the HTTP client out.
type Sender interface {
	SendText(ctx context.Context, phone, message string) (*Delivery, error)
}

// Delivery is the provider acknowledgement for one outbound message.
type Delivery struct {
	ProviderID string
}

// Client talks to an Evolution-style WhatsApp gateway instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	instance   string
	logger     *logger.Logger
}

var _ Sender = (*Client)(nil)

// NewClient initializes the WhatsApp wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.WhatsAppConfig, logg *logger.Logger) (*Client, error) {
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
	instance := strings.TrimSpace(cfg.Instance)
	if instance == "" {
		return nil, errInstanceRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		instance:   instance,
		logger:     logg,
	}

	logg.Info(ctx, "whatsapp client initialized")
	return c, nil
}

// NormalizePhone strips formatting and prefixes the Brazilian country code
// when the number has none.
func NormalizePhone(raw string) string {
	digits := nonDigitRe.ReplaceAllString(raw, "")
	if digits == "" {
		return ""
	}
	// 10-11 digits is a bare DDD+number
	if len(digits) <= 11 {
		digits = "55" + digits
	}
	return digits
}

// SendText posts one text message to the gateway and returns the provider's
// message id.
func (c *Client) SendText(ctx context.Context, phone, message string) (*Delivery, error) {
	number := NormalizePhone(phone)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	payload, err := json.Marshal(map[string]any{
		"number": number,
		"text":   message,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding whatsapp request")
	}

	endpoint := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, url.PathEscape(c.instance))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building whatsapp request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error(ctx, "whatsapp send_text", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling whatsapp gateway")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		sendErr := pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("whatsapp gateway returned %d", resp.StatusCode)).
			WithDetails(map[string]any{"status_code": resp.StatusCode, "body": string(raw)})
		c.logger.Error(ctx, "whatsapp send_text", sendErr)
		return nil, sendErr
	}

	var out struct {
		Key struct {
			ID string `json:"id"`
		} `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding whatsapp response")
	}

	ctx = c.logger.WithFields(ctx, map[string]any{"provider_id": out.Key.ID})
	c.logger.Info(ctx, "whatsapp message sent")
	return &Delivery{ProviderID: out.Key.ID}, nil
}
