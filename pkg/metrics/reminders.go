package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReminderMetrics counts dispatcher outcomes per reminder type.
type ReminderMetrics struct {
	sent    *prometheus.CounterVec
	failed  *prometheus.CounterVec
	skipped *prometheus.CounterVec
}

// NewReminderMetrics registers the dispatcher counters on the provided registerer.
func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	if reg == nil {
		return &ReminderMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_sent_total",
		Help: "Reminders delivered to the messaging gateway.",
	}, []string{"type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_failed_total",
		Help: "Reminder deliveries that failed and stay retryable in-window.",
	}, []string{"type"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_skipped_total",
		Help: "Reminders skipped because the setting is inactive.",
	}, []string{"type"})
	reg.MustRegister(sent, failed, skipped)
	return &ReminderMetrics{sent: sent, failed: failed, skipped: skipped}
}

// IncSent increments the sent counter for the reminder type.
func (r *ReminderMetrics) IncSent(reminderType string) {
	if r == nil || r.sent == nil {
		return
	}
	r.sent.WithLabelValues(normalizeLabel(reminderType)).Inc()
}

// IncFailed increments the failed counter for the reminder type.
func (r *ReminderMetrics) IncFailed(reminderType string) {
	if r == nil || r.failed == nil {
		return
	}
	r.failed.WithLabelValues(normalizeLabel(reminderType)).Inc()
}

// IncSkipped increments the skipped counter for the reminder type.
func (r *ReminderMetrics) IncSkipped(reminderType string) {
	if r == nil || r.skipped == nil {
		return
	}
	r.skipped.WithLabelValues(normalizeLabel(reminderType)).Inc()
}
