package cron

import (
	"context"
	"fmt"
	"strconv"

	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

const defaultAlertSweepBatch = 500

// TrialAlertSweeper generates trial-expiry payment alerts.
type TrialAlertSweeper interface {
	SweepTrialAlerts(ctx context.Context, batchSize int) (int, error)
}

// PaymentAlertJobParams configures the trial alert sweep cron job.
type PaymentAlertJobParams struct {
	Logger        *logger.Logger
	Subscriptions TrialAlertSweeper
	BatchSize     int
}

type paymentAlertJob struct {
	logg      *logger.Logger
	svc       TrialAlertSweeper
	batchSize int
}

// NewPaymentAlertJob builds the daily trial warning sweep.
func NewPaymentAlertJob(params PaymentAlertJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultAlertSweepBatch
	}
	return &paymentAlertJob{
		logg:      params.Logger,
		svc:       params.Subscriptions,
		batchSize: batchSize,
	}, nil
}

func (j *paymentAlertJob) Name() string { return "payment_alert_sweep" }

func (j *paymentAlertJob) Run(ctx context.Context) error {
	created, err := j.svc.SweepTrialAlerts(ctx, j.batchSize)
	if created > 0 {
		j.logg.Info(ctx, "created "+strconv.Itoa(created)+" trial payment alerts")
	}
	return err
}
