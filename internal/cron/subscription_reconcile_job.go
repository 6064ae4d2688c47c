package cron

import (
	"context"
	"fmt"
	"strconv"

	"github.com/agendaja-app/agendaja-backend/pkg/logger"
)

const defaultReconcileBatch = 250

// SubscriptionReconciler syncs persisted subscription statuses against the
// payment gateway.
type SubscriptionReconciler interface {
	Reconcile(ctx context.Context, batchSize int) (int, error)
}

// SubscriptionReconcileJobParams configures the gateway sync cron job.
type SubscriptionReconcileJobParams struct {
	Logger        *logger.Logger
	Subscriptions SubscriptionReconciler
	BatchSize     int
}

type subscriptionReconcileJob struct {
	logg      *logger.Logger
	svc       SubscriptionReconciler
	batchSize int
}

// NewSubscriptionReconcileJob builds the nightly gateway reconciliation job.
func NewSubscriptionReconcileJob(params SubscriptionReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultReconcileBatch
	}
	return &subscriptionReconcileJob{
		logg:      params.Logger,
		svc:       params.Subscriptions,
		batchSize: batchSize,
	}, nil
}

func (j *subscriptionReconcileJob) Name() string { return "subscription_reconcile" }

func (j *subscriptionReconcileJob) Run(ctx context.Context) error {
	updated, err := j.svc.Reconcile(ctx, j.batchSize)
	if updated > 0 {
		j.logg.Info(ctx, "reconciled "+strconv.Itoa(updated)+" subscription statuses")
	}
	return err
}
