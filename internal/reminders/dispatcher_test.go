package reminders

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agendaja-app/agendaja-backend/pkg/db/models"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
	"github.com/agendaja-app/agendaja-backend/pkg/whatsapp"
)

type stubRepo struct {
	listDueFn       func(ctx context.Context, windowStart, windowEnd time.Time, limit int) ([]models.Appointment, error)
	findApptFn      func(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	listSettingsFn  func(ctx context.Context, companyID uuid.UUID) ([]models.ReminderSetting, error)
	findSettingFn   func(ctx context.Context, companyID uuid.UUID, reminderType enums.ReminderType) (*models.ReminderSetting, error)
	upsertSettingFn func(ctx context.Context, setting *models.ReminderSetting) error
	hasSentFn       func(ctx context.Context, appointmentID uuid.UUID, reminderType enums.ReminderType) (bool, error)
	createHistoryFn func(ctx context.Context, entry *models.ReminderHistory) error
	listHistoryFn   func(ctx context.Context, companyID uuid.UUID, limit int) ([]models.ReminderHistory, error)
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }
func (s *stubRepo) ListDueAppointments(ctx context.Context, windowStart, windowEnd time.Time, limit int) ([]models.Appointment, error) {
	if s.listDueFn != nil {
		return s.listDueFn(ctx, windowStart, windowEnd, limit)
	}
	return nil, nil
}
func (s *stubRepo) FindAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	if s.findApptFn != nil {
		return s.findApptFn(ctx, id)
	}
	return nil, nil
}
func (s *stubRepo) ListSettings(ctx context.Context, companyID uuid.UUID) ([]models.ReminderSetting, error) {
	if s.listSettingsFn != nil {
		return s.listSettingsFn(ctx, companyID)
	}
	return nil, nil
}
func (s *stubRepo) FindSetting(ctx context.Context, companyID uuid.UUID, reminderType enums.ReminderType) (*models.ReminderSetting, error) {
	if s.findSettingFn != nil {
		return s.findSettingFn(ctx, companyID, reminderType)
	}
	return nil, nil
}
func (s *stubRepo) UpsertSetting(ctx context.Context, setting *models.ReminderSetting) error {
	if s.upsertSettingFn != nil {
		return s.upsertSettingFn(ctx, setting)
	}
	return nil
}
func (s *stubRepo) HasSentReminder(ctx context.Context, appointmentID uuid.UUID, reminderType enums.ReminderType) (bool, error) {
	if s.hasSentFn != nil {
		return s.hasSentFn(ctx, appointmentID, reminderType)
	}
	return false, nil
}
func (s *stubRepo) CreateHistory(ctx context.Context, entry *models.ReminderHistory) error {
	if s.createHistoryFn != nil {
		return s.createHistoryFn(ctx, entry)
	}
	return nil
}
func (s *stubRepo) ListHistory(ctx context.Context, companyID uuid.UUID, limit int) ([]models.ReminderHistory, error) {
	if s.listHistoryFn != nil {
		return s.listHistoryFn(ctx, companyID, limit)
	}
	return nil, nil
}

type stubSender struct {
	sendFn func(ctx context.Context, phone, message string) (*whatsapp.Delivery, error)
	calls  int
}

func (s *stubSender) SendText(ctx context.Context, phone, message string) (*whatsapp.Delivery, error) {
	s.calls++
	if s.sendFn != nil {
		return s.sendFn(ctx, phone, message)
	}
	return &whatsapp.Delivery{ProviderID: "msg_1"}, nil
}

func newTestDispatcher(t *testing.T, repo Repository, sender whatsapp.Sender, now time.Time) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(DispatcherParams{
		Repo:         repo,
		Sender:       sender,
		Logger:       logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		PollInterval: time.Minute,
		Now:          func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d
}

func dueAppointment(now time.Time, offset time.Duration) models.Appointment {
	return models.Appointment{
		ID:          uuid.New(),
		CompanyID:   uuid.New(),
		ClientName:  "Maria",
		ClientPhone: "11987654321",
		StartsAt:    now.Add(offset),
		Status:      enums.AppointmentStatusConfirmed,
		Company:     &models.Company{FantasyName: "Studio Bela"},
	}
}

func activeSetting(companyID uuid.UUID, reminderType enums.ReminderType) *models.ReminderSetting {
	return &models.ReminderSetting{
		CompanyID:       companyID,
		ReminderType:    reminderType,
		IsActive:        true,
		MessageTemplate: "Lembrete: {clientName} às {appointmentTime}",
	}
}

func TestScanSendsDueReminder(t *testing.T) {
	now := time.Now().UTC()
	appointment := dueAppointment(now, 24*time.Hour)
	var history []*models.ReminderHistory

	repo := &stubRepo{
		listDueFn: func(ctx context.Context, windowStart, windowEnd time.Time, limit int) ([]models.Appointment, error) {
			// Only the 24h window matches this appointment.
			if appointment.StartsAt.After(windowStart) && !appointment.StartsAt.After(windowEnd) {
				return []models.Appointment{appointment}, nil
			}
			return nil, nil
		},
		findSettingFn: func(ctx context.Context, companyID uuid.UUID, reminderType enums.ReminderType) (*models.ReminderSetting, error) {
			return activeSetting(companyID, reminderType), nil
		},
		createHistoryFn: func(ctx context.Context, entry *models.ReminderHistory) error {
			history = append(history, entry)
			return nil
		},
	}
	sender := &stubSender{}

	d := newTestDispatcher(t, repo, sender, now)
	stats, err := d.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if stats.Sent != 1 || sender.calls != 1 {
		t.Fatalf("expected one send, got stats=%+v calls=%d", stats, sender.calls)
	}
	if len(history) != 1 {
		t.Fatalf("expected one history row, got %d", len(history))
	}
	entry := history[0]
	if entry.Status != enums.ReminderStatusSent {
		t.Fatalf("unexpected status %s", entry.Status)
	}
	if entry.ReminderType != enums.ReminderType24Hours {
		t.Fatalf("unexpected type %s", entry.ReminderType)
	}
	if entry.ProviderID == nil || *entry.ProviderID != "msg_1" {
		t.Fatal("provider id not recorded")
	}
}

func TestScanIsIdempotentWithinWindow(t *testing.T) {
	now := time.Now().UTC()
	appointment := dueAppointment(now, 24*time.Hour)
	sent := map[string]bool{}

	repo := &stubRepo{
		listDueFn: func(ctx context.Context, windowStart, windowEnd time.Time, limit int) ([]models.Appointment, error) {
			if appointment.StartsAt.After(windowStart) && !appointment.StartsAt.After(windowEnd) {
				return []models.Appointment{appointment}, nil
			}
			return nil, nil
		},
		findSettingFn: func(ctx context.Context, companyID uuid.UUID, reminderType enums.ReminderType) (*models.ReminderSetting, error) {
			return activeSetting(companyID, reminderType), nil
		},
		hasSentFn: func(ctx context.Context, appointmentID uuid.UUID, reminderType enums.ReminderType) (bool, error) {
			return sent[appointmentID.String()+"/"+reminderType.String()], nil
		},
		createHistoryFn: func(ctx context.Context, entry *models.ReminderHistory) error {
			if entry.Status == enums.ReminderStatusSent {
				sent[entry.AppointmentID.String()+"/"+entry.ReminderType.String()] = true
			}
			return nil
		},
	}
	sender := &stubSender{}

	d := newTestDispatcher(t, repo, sender, now)
	if _, err := d.Scan(context.Background()); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	stats, err := d.Scan(context.Background())
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("expected at most one outbound send, got %d", sender.calls)
	}
	if stats.Sent != 0 {
		t.Fatalf("second scan must suppress the duplicate, got %+v", stats)
	}
}

func TestScanSkipsInactiveSettingSilently(t *testing.T) {
	now := time.Now().UTC()
	appointment := dueAppointment(now, 24*time.Hour)
	historyWrites := 0

	repo := &stubRepo{
		listDueFn: func(ctx context.Context, windowStart, windowEnd time.Time, limit int) ([]models.Appointment, error) {
			if appointment.StartsAt.After(windowStart) && !appointment.StartsAt.After(windowEnd) {
				return []models.Appointment{appointment}, nil
			}
			return nil, nil
		},
		findSettingFn: func(ctx context.Context, companyID uuid.UUID, reminderType enums.ReminderType) (*models.ReminderSetting, error) {
			setting := activeSetting(companyID, reminderType)
			setting.IsActive = false
			return setting, nil
		},
		createHistoryFn: func(ctx context.Context, entry *models.ReminderHistory) error {
			historyWrites++
			return nil
		},
	}
	sender := &stubSender{}

	d := newTestDispatcher(t, repo, sender, now)
	stats, err := d.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if sender.calls != 0 {
		t.Fatal("inactive setting must not send")
	}
	if historyWrites != 0 {
		t.Fatal("inactive setting must not write history")
	}
	if stats.Skipped == 0 {
		t.Fatalf("expected skip to be counted, got %+v", stats)
	}
}

func TestScanRecordsFailureAndStaysRetryable(t *testing.T) {
	now := time.Now().UTC()
	appointment := dueAppointment(now, time.Hour)
	var history []*models.ReminderHistory

	repo := &stubRepo{
		listDueFn: func(ctx context.Context, windowStart, windowEnd time.Time, limit int) ([]models.Appointment, error) {
			if appointment.StartsAt.After(windowStart) && !appointment.StartsAt.After(windowEnd) {
				return []models.Appointment{appointment}, nil
			}
			return nil, nil
		},
		findSettingFn: func(ctx context.Context, companyID uuid.UUID, reminderType enums.ReminderType) (*models.ReminderSetting, error) {
			return activeSetting(companyID, reminderType), nil
		},
		hasSentFn: func(ctx context.Context, appointmentID uuid.UUID, reminderType enums.ReminderType) (bool, error) {
			// Failed rows never satisfy the sent check.
			for _, entry := range history {
				if entry.AppointmentID == appointmentID && entry.ReminderType == reminderType && entry.Status == enums.ReminderStatusSent {
					return true, nil
				}
			}
			return false, nil
		},
		createHistoryFn: func(ctx context.Context, entry *models.ReminderHistory) error {
			history = append(history, entry)
			return nil
		},
	}
	sender := &stubSender{
		sendFn: func(ctx context.Context, phone, message string) (*whatsapp.Delivery, error) {
			return nil, errors.New("gateway timeout")
		},
	}

	d := newTestDispatcher(t, repo, sender, now)
	stats, err := d.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan must not propagate delivery failures: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("expected one failure, got %+v", stats)
	}
	if len(history) != 1 || history[0].Status != enums.ReminderStatusFailed {
		t.Fatalf("expected a failed history row, got %+v", history)
	}
	if history[0].ErrorMessage == nil {
		t.Fatal("failure reason must be recorded")
	}

	// Next tick inside the window retries the pair.
	sender.sendFn = nil
	stats, err = d.Scan(context.Background())
	if err != nil {
		t.Fatalf("retry scan: %v", err)
	}
	if stats.Sent != 1 {
		t.Fatalf("expected retry to send, got %+v", stats)
	}
}

func TestScanOutsideWindowDoesNothing(t *testing.T) {
	now := time.Now().UTC()
	// Appointment 25h out: past the 24h window, not yet in any other.
	appointment := dueAppointment(now, 25*time.Hour)

	repo := &stubRepo{
		listDueFn: func(ctx context.Context, windowStart, windowEnd time.Time, limit int) ([]models.Appointment, error) {
			if appointment.StartsAt.After(windowStart) && !appointment.StartsAt.After(windowEnd) {
				return []models.Appointment{appointment}, nil
			}
			return nil, nil
		},
	}
	sender := &stubSender{}

	d := newTestDispatcher(t, repo, sender, now)
	stats, err := d.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if sender.calls != 0 || stats.Sent != 0 {
		t.Fatalf("nothing is due, got %+v", stats)
	}
}

func TestSendConfirmation(t *testing.T) {
	now := time.Now().UTC()
	appointment := dueAppointment(now, 48*time.Hour)
	var history []*models.ReminderHistory

	repo := &stubRepo{
		findApptFn: func(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
			return &appointment, nil
		},
		findSettingFn: func(ctx context.Context, companyID uuid.UUID, reminderType enums.ReminderType) (*models.ReminderSetting, error) {
			return activeSetting(companyID, reminderType), nil
		},
		createHistoryFn: func(ctx context.Context, entry *models.ReminderHistory) error {
			history = append(history, entry)
			return nil
		},
	}
	sender := &stubSender{}

	d := newTestDispatcher(t, repo, sender, now)
	if err := d.SendConfirmation(context.Background(), appointment.ID); err != nil {
		t.Fatalf("send confirmation: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("expected one send, got %d", sender.calls)
	}
	if len(history) != 1 || history[0].ReminderType != enums.ReminderTypeConfirmation {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestSendConfirmationSkipsCancelled(t *testing.T) {
	now := time.Now().UTC()
	appointment := dueAppointment(now, 48*time.Hour)
	appointment.Status = enums.AppointmentStatusCancelled

	repo := &stubRepo{
		findApptFn: func(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
			return &appointment, nil
		},
	}
	sender := &stubSender{}

	d := newTestDispatcher(t, repo, sender, now)
	if err := d.SendConfirmation(context.Background(), appointment.ID); err != nil {
		t.Fatalf("send confirmation: %v", err)
	}
	if sender.calls != 0 {
		t.Fatal("cancelled appointment must not trigger a confirmation")
	}
}
