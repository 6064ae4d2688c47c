package enums

import "fmt"

// AlertType labels trial-expiry payment alerts by days remaining.
type AlertType string

const (
	AlertTypeThreeDays AlertType = "3_days"
	AlertTypeOneDay    AlertType = "1_day"
)

var validAlertTypes = []AlertType{
	AlertTypeThreeDays,
	AlertTypeOneDay,
}

// String implements fmt.Stringer.
func (a AlertType) String() string {
	return string(a)
}

// IsValid reports whether the value is known.
func (a AlertType) IsValid() bool {
	for _, candidate := range validAlertTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAlertType converts raw input into an AlertType.
func ParseAlertType(value string) (AlertType, error) {
	for _, candidate := range validAlertTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert type %q", value)
}

// AlertTypeForDays maps a days-remaining value to its alert type.
func AlertTypeForDays(days int) (AlertType, bool) {
	switch days {
	case 3:
		return AlertTypeThreeDays, true
	case 1:
		return AlertTypeOneDay, true
	default:
		return "", false
	}
}
