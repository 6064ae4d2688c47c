package subscription

import (
	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
)

// MaybeEmitAlert decides whether a trial-expiry warning should be persisted
// for the company. It returns nil when the company is not on a trial, the
// remaining days are outside the warning set, or an alert of that type
// already exists (shown or not) -- re-evaluation never resurrects a
// dismissed alert.
func MaybeEmitAlert(companyID uuid.UUID, res Result, existing []models.PaymentAlert, warningDays []int) *models.PaymentAlert {
	if res.Status != enums.SubscriptionStatusTrial {
		return nil
	}

	inWarningSet := false
	for _, d := range warningDays {
		if res.DaysRemaining == d {
			inWarningSet = true
			break
		}
	}
	if !inWarningSet {
		return nil
	}

	alertType, ok := enums.AlertTypeForDays(res.DaysRemaining)
	if !ok {
		return nil
	}

	for _, alert := range existing {
		if alert.AlertType == alertType {
			return nil
		}
	}

	return &models.PaymentAlert{
		CompanyID: companyID,
		AlertType: alertType,
	}
}
