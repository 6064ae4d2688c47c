package subscription

import "net/http"

// Decision is the gate's verdict for one request. RedirectToPlans signals the
// client to nudge the tenant toward plan selection instead of a hard block.
type Decision struct {
	Allow           bool
	Reason          Reason
	HTTPStatus      int
	RedirectToPlans bool
}

// Authorize maps an evaluation onto an allow/deny decision. Pure; logging of
// denials is the caller's concern.
func Authorize(res Result) Decision {
	if res.IsActive {
		return Decision{Allow: true, HTTPStatus: http.StatusOK}
	}

	switch res.Reason {
	case ReasonCompanyDeactivated:
		return Decision{Reason: res.Reason, HTTPStatus: http.StatusForbidden}
	case ReasonPaymentOverdue:
		return Decision{Reason: res.Reason, HTTPStatus: http.StatusPaymentRequired}
	case ReasonTrialEnded, ReasonSubscriptionExpired:
		return Decision{Reason: res.Reason, HTTPStatus: http.StatusPaymentRequired, RedirectToPlans: true}
	default:
		return Decision{Reason: res.Reason, HTTPStatus: http.StatusForbidden}
	}
}
