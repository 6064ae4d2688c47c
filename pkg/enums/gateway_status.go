package enums

import "fmt"

// GatewayStatus mirrors the payment gateway's subscription state. It is an
// untrusted, possibly-stale read and never written by this system.
type GatewayStatus string

const (
	GatewayStatusActive   GatewayStatus = "ACTIVE"
	GatewayStatusOverdue  GatewayStatus = "OVERDUE"
	GatewayStatusExpired  GatewayStatus = "EXPIRED"
	GatewayStatusInactive GatewayStatus = "INACTIVE"
)

var validGatewayStatuses = []GatewayStatus{
	GatewayStatusActive,
	GatewayStatusOverdue,
	GatewayStatusExpired,
	GatewayStatusInactive,
}

// String implements fmt.Stringer.
func (s GatewayStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s GatewayStatus) IsValid() bool {
	for _, candidate := range validGatewayStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseGatewayStatus converts raw input into a GatewayStatus.
func ParseGatewayStatus(value string) (GatewayStatus, error) {
	for _, candidate := range validGatewayStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gateway status %q", value)
}
