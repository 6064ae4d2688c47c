package enums

import (
	"fmt"
	"time"
)

// ReminderType identifies the outbound reminder flavors per appointment.
type ReminderType string

const (
	ReminderTypeConfirmation ReminderType = "confirmation"
	ReminderType24Hours      ReminderType = "24h"
	ReminderType1Hour        ReminderType = "1h"
)

var validReminderTypes = []ReminderType{
	ReminderTypeConfirmation,
	ReminderType24Hours,
	ReminderType1Hour,
}

// String implements fmt.Stringer.
func (r ReminderType) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r ReminderType) IsValid() bool {
	for _, candidate := range validReminderTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReminderType converts raw input into a ReminderType.
func ParseReminderType(value string) (ReminderType, error) {
	for _, candidate := range validReminderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reminder type %q", value)
}

// Offset returns how long before the appointment this reminder fires. The
// second return is false for event-driven reminders (confirmation).
func (r ReminderType) Offset() (time.Duration, bool) {
	switch r {
	case ReminderType24Hours:
		return 24 * time.Hour, true
	case ReminderType1Hour:
		return time.Hour, true
	default:
		return 0, false
	}
}

// ScheduledReminderTypes lists the time-windowed reminder types scanned by the
// dispatcher; confirmation is excluded because it fires on booking.
func ScheduledReminderTypes() []ReminderType {
	return []ReminderType{ReminderType24Hours, ReminderType1Hour}
}
