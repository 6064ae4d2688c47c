package subscription

import (
	"net/http"
	"testing"

	"github.com/agendaja-app/agendaja-backend/pkg/enums"
)

func TestAuthorizeAllowsActiveResults(t *testing.T) {
	decision := Authorize(Result{Status: enums.SubscriptionStatusActive, IsActive: true})
	if !decision.Allow {
		t.Fatal("expected allow")
	}
	if decision.RedirectToPlans {
		t.Fatal("active result must not redirect")
	}
}

func TestAuthorizeDenialMapping(t *testing.T) {
	tests := []struct {
		reason       Reason
		wantStatus   int
		wantRedirect bool
	}{
		{ReasonCompanyDeactivated, http.StatusForbidden, false},
		{ReasonPaymentOverdue, http.StatusPaymentRequired, false},
		{ReasonTrialEnded, http.StatusPaymentRequired, true},
		{ReasonSubscriptionExpired, http.StatusPaymentRequired, true},
	}

	for _, tt := range tests {
		decision := Authorize(Result{IsActive: false, Reason: tt.reason})
		if decision.Allow {
			t.Fatalf("%s: expected deny", tt.reason)
		}
		if decision.HTTPStatus != tt.wantStatus {
			t.Fatalf("%s: expected status %d, got %d", tt.reason, tt.wantStatus, decision.HTTPStatus)
		}
		if decision.RedirectToPlans != tt.wantRedirect {
			t.Fatalf("%s: expected redirect=%v", tt.reason, tt.wantRedirect)
		}
		if decision.Reason != tt.reason {
			t.Fatalf("expected reason %s preserved, got %s", tt.reason, decision.Reason)
		}
	}
}
