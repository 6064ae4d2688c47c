package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agendaja-app/agendaja-backend/pkg/config"
	pkgerrors "github.com/agendaja-app/agendaja-backend/pkg/errors"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	c, err := NewClient(context.Background(), config.WhatsAppConfig{
		BaseURL:  baseURL,
		APIKey:   "key",
		Instance: "agendaja",
		Timeout:  time.Second,
	}, logg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(11) 98765-4321", "5511987654321"},
		{"11987654321", "5511987654321"},
		{"5511987654321", "5511987654321"},
		{"+55 11 98765-4321", "5511987654321"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSendText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message/sendText/agendaja" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("apikey"); got != "key" {
			t.Errorf("expected apikey header, got %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["number"] != "5511987654321" {
			t.Errorf("unexpected number %q", body["number"])
		}
		w.Write([]byte(`{"key":{"id":"msg_1"}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	delivery, err := c.SendText(context.Background(), "(11) 98765-4321", "Olá!")
	if err != nil {
		t.Fatalf("send text: %v", err)
	}
	if delivery.ProviderID != "msg_1" {
		t.Fatalf("unexpected provider id %s", delivery.ProviderID)
	}
}

func TestSendTextGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.SendText(context.Background(), "11987654321", "hi")
	if err == nil {
		t.Fatal("expected gateway error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestSendTextValidation(t *testing.T) {
	c := testClient(t, "http://localhost:0")
	if _, err := c.SendText(context.Background(), "", "hi"); err == nil {
		t.Fatal("expected missing phone error")
	}
	if _, err := c.SendText(context.Background(), "11987654321", "  "); err == nil {
		t.Fatal("expected missing message error")
	}
}
