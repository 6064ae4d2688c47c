package enums

import "fmt"

// ReminderStatus records the delivery outcome persisted in reminder history.
// Skipped reminders (inactive setting) leave no history row at all.
type ReminderStatus string

const (
	ReminderStatusSent   ReminderStatus = "sent"
	ReminderStatusFailed ReminderStatus = "failed"
)

var validReminderStatuses = []ReminderStatus{
	ReminderStatusSent,
	ReminderStatusFailed,
}

// String implements fmt.Stringer.
func (r ReminderStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r ReminderStatus) IsValid() bool {
	for _, candidate := range validReminderStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReminderStatus converts raw input into a ReminderStatus.
func ParseReminderStatus(value string) (ReminderStatus, error) {
	for _, candidate := range validReminderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reminder status %q", value)
}
