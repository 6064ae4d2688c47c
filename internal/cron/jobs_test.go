package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

type stubReconciler struct {
	updated int
	batch   int
	err     error
}

func (s *stubReconciler) Reconcile(ctx context.Context, batchSize int) (int, error) {
	s.batch = batchSize
	return s.updated, s.err
}

type stubSweeper struct {
	created int
	batch   int
	err     error
}

func (s *stubSweeper) SweepTrialAlerts(ctx context.Context, batchSize int) (int, error) {
	s.batch = batchSize
	return s.created, s.err
}

func jobLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestSubscriptionReconcileJobDefaultsBatch(t *testing.T) {
	reconciler := &stubReconciler{updated: 3}
	job, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{
		Logger:        jobLogger(),
		Subscriptions: reconciler,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "subscription_reconcile" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if reconciler.batch != defaultReconcileBatch {
		t.Fatalf("expected default batch %d, got %d", defaultReconcileBatch, reconciler.batch)
	}
}

func TestSubscriptionReconcileJobPropagatesError(t *testing.T) {
	wantErr := errors.New("gateway down")
	job, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{
		Logger:        jobLogger(),
		Subscriptions: &stubReconciler{err: wantErr},
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if got := job.Run(context.Background()); !errors.Is(got, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, got)
	}
}

func TestPaymentAlertJobRuns(t *testing.T) {
	sweeper := &stubSweeper{created: 2}
	job, err := NewPaymentAlertJob(PaymentAlertJobParams{
		Logger:        jobLogger(),
		Subscriptions: sweeper,
		BatchSize:     50,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "payment_alert_sweep" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sweeper.batch != 50 {
		t.Fatalf("expected batch 50, got %d", sweeper.batch)
	}
}

func TestJobConstructorsRequireDependencies(t *testing.T) {
	if _, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{Logger: jobLogger()}); err == nil {
		t.Fatal("expected error without subscription service")
	}
	if _, err := NewPaymentAlertJob(PaymentAlertJobParams{Subscriptions: &stubSweeper{}}); err == nil {
		t.Fatal("expected error without logger")
	}
}
