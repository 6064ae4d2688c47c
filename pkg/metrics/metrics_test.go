package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name, labelValue string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetValue() == labelValue {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func histogramSamples(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name || family.GetType() != dto.MetricType_HISTOGRAM {
			continue
		}
		var total uint64
		for _, metric := range family.GetMetric() {
			total += metric.GetHistogram().GetSampleCount()
		}
		return total
	}
	return 0
}

func TestCronJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveDuration("subscription-reconcile", 250*time.Millisecond)
	m.IncSuccess("subscription-reconcile")
	m.IncFailure("payment-alert-sweep")
	m.IncSuccess("")

	if got := counterValue(t, reg, "job_success", "subscription-reconcile"); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := counterValue(t, reg, "job_failure", "payment-alert-sweep"); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := counterValue(t, reg, "job_success", "unknown"); got != 1 {
		t.Fatalf("expected empty job label to normalize, got %v", got)
	}
	if got := histogramSamples(t, reg, "job_duration_seconds"); got != 1 {
		t.Fatalf("expected 1 duration sample, got %d", got)
	}
}

func TestReminderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReminderMetrics(reg)

	m.IncSent("24h")
	m.IncSent("24h")
	m.IncFailed("1h")
	m.IncSkipped("confirmation")

	if got := counterValue(t, reg, "reminder_sent_total", "24h"); got != 2 {
		t.Fatalf("expected 2 sent, got %v", got)
	}
	if got := counterValue(t, reg, "reminder_failed_total", "1h"); got != 1 {
		t.Fatalf("expected 1 failed, got %v", got)
	}
	if got := counterValue(t, reg, "reminder_skipped_total", "confirmation"); got != 1 {
		t.Fatalf("expected 1 skipped, got %v", got)
	}
}

func TestNilRegistererIsSafe(t *testing.T) {
	cron := NewCronJobMetrics(nil)
	cron.ObserveDuration("job", time.Second)
	cron.IncSuccess("job")
	cron.IncFailure("job")

	rem := NewReminderMetrics(nil)
	rem.IncSent("24h")
	rem.IncFailed("24h")
	rem.IncSkipped("24h")
}
