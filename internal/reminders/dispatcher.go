package reminders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/agendaja-app/agendaja-backend/pkg/db"
	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
	"github.com/agendaja-app/agendaja-backend/pkg/metrics"
	"github.com/agendaja-app/agendaja-backend/pkg/whatsapp"
)

// DispatcherParams groups dependencies for the reminder dispatcher.
type DispatcherParams struct {
	Repo         Repository
	Sender       whatsapp.Sender
	Logger       *logger.Logger
	Metrics      *metrics.ReminderMetrics
	PollInterval time.Duration
	BatchSize    int
	Now          func() time.Time
}

// Dispatcher scans appointments and sends due reminders. Each scan is
// idempotent per (appointment, type) pair; delivery failures stay retryable
// until the window closes.
type Dispatcher struct {
	repo         Repository
	sender       whatsapp.Sender
	logger       *logger.Logger
	metrics      *metrics.ReminderMetrics
	pollInterval time.Duration
	batchSize    int
	now          func() time.Time
}

// ScanStats summarizes one dispatcher pass.
type ScanStats struct {
	Sent    int
	Failed  int
	Skipped int
}

// NewDispatcher builds a reminder dispatcher.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Sender == nil {
		return nil, errors.New("sender is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	pollInterval := params.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Dispatcher{
		repo:         params.Repo,
		sender:       params.Sender,
		logger:       params.Logger,
		metrics:      params.Metrics,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		now:          now,
	}, nil
}

// Scan runs one dispatcher pass over every scheduled reminder type. Delivery
// failures are recorded in history and never abort the pass.
func (d *Dispatcher) Scan(ctx context.Context) (ScanStats, error) {
	now := d.now()
	stats := ScanStats{}

	for _, reminderType := range enums.ScheduledReminderTypes() {
		offset, ok := reminderType.Offset()
		if !ok {
			continue
		}

		// A reminder is due when now falls inside
		// [startsAt-offset, startsAt-offset+poll), i.e. appointments
		// starting in (now+offset-poll, now+offset].
		windowEnd := now.Add(offset)
		windowStart := windowEnd.Add(-d.pollInterval)

		appointments, err := d.repo.ListDueAppointments(ctx, windowStart, windowEnd, d.batchSize)
		if err != nil {
			return stats, err
		}

		for _, appointment := range appointments {
			outcome := d.dispatch(ctx, appointment, reminderType)
			stats.Sent += outcome.Sent
			stats.Failed += outcome.Failed
			stats.Skipped += outcome.Skipped
		}
	}

	return stats, nil
}

// SendConfirmation fires the confirmation reminder immediately after an
// appointment is created or confirmed.
func (d *Dispatcher) SendConfirmation(ctx context.Context, appointmentID uuid.UUID) error {
	appointment, err := d.repo.FindAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appointment == nil || !appointment.Status.Remindable() {
		return nil
	}
	d.dispatch(ctx, *appointment, enums.ReminderTypeConfirmation)
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, appointment models.Appointment, reminderType enums.ReminderType) ScanStats {
	ctx = d.logger.WithFields(ctx, map[string]any{
		"appointment_id": appointment.ID.String(),
		"reminder_type":  reminderType.String(),
	})

	setting, err := d.repo.FindSetting(ctx, appointment.CompanyID, reminderType)
	if err != nil {
		d.logger.Error(ctx, "loading reminder setting", err)
		return ScanStats{Failed: 1}
	}
	// No setting or a disabled one: skip silently, no history row.
	if setting == nil || !setting.IsActive {
		d.metrics.IncSkipped(reminderType.String())
		return ScanStats{Skipped: 1}
	}

	sent, err := d.repo.HasSentReminder(ctx, appointment.ID, reminderType)
	if err != nil {
		d.logger.Error(ctx, "checking reminder history", err)
		return ScanStats{Failed: 1}
	}
	if sent {
		// Already delivered in this window; duplicate suppressed.
		return ScanStats{}
	}

	message := Render(setting.MessageTemplate, TemplateDataFor(appointment))
	entry := &models.ReminderHistory{
		AppointmentID: appointment.ID,
		CompanyID:     appointment.CompanyID,
		ReminderType:  reminderType,
		Phone:         appointment.ClientPhone,
		Message:       message,
	}

	delivery, sendErr := d.sender.SendText(ctx, appointment.ClientPhone, message)
	if sendErr != nil {
		errMsg := sendErr.Error()
		entry.Status = enums.ReminderStatusFailed
		entry.ErrorMessage = &errMsg
		if err := d.repo.CreateHistory(ctx, entry); err != nil {
			d.logger.Error(ctx, "recording failed reminder", err)
		}
		d.logger.Error(ctx, "reminder delivery failed", sendErr)
		d.metrics.IncFailed(reminderType.String())
		return ScanStats{Failed: 1}
	}

	entry.Status = enums.ReminderStatusSent
	if delivery != nil && delivery.ProviderID != "" {
		entry.ProviderID = &delivery.ProviderID
	}
	if err := d.repo.CreateHistory(ctx, entry); err != nil {
		// A unique violation means a concurrent scan already sent it.
		if db.IsUniqueViolation(err, "") {
			return ScanStats{}
		}
		d.logger.Error(ctx, "recording sent reminder", err)
		return ScanStats{Failed: 1}
	}

	d.logger.Info(ctx, "reminder sent")
	d.metrics.IncSent(reminderType.String())
	return ScanStats{Sent: 1}
}
