package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agendaja-app/agendaja-backend/api/routes"
	"github.com/agendaja-app/agendaja-backend/internal/affiliates"
	"github.com/agendaja-app/agendaja-backend/internal/appointments"
	"github.com/agendaja-app/agendaja-backend/internal/auth"
	"github.com/agendaja-app/agendaja-backend/internal/billing"
	"github.com/agendaja-app/agendaja-backend/internal/companies"
	"github.com/agendaja-app/agendaja-backend/internal/plans"
	"github.com/agendaja-app/agendaja-backend/internal/reminders"
	"github.com/agendaja-app/agendaja-backend/internal/reviews"
	"github.com/agendaja-app/agendaja-backend/internal/subscription"
	"github.com/agendaja-app/agendaja-backend/internal/webhooks"
	"github.com/agendaja-app/agendaja-backend/pkg/asaas"
	"github.com/agendaja-app/agendaja-backend/pkg/config"
	"github.com/agendaja-app/agendaja-backend/pkg/db"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
	"github.com/agendaja-app/agendaja-backend/pkg/metrics"
	"github.com/agendaja-app/agendaja-backend/pkg/migrate"
	"github.com/agendaja-app/agendaja-backend/pkg/redis"
	"github.com/agendaja-app/agendaja-backend/pkg/whatsapp"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	asaasClient, err := asaas.NewClient(context.Background(), cfg.Asaas, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create asaas client", err)
		os.Exit(1)
	}

	whatsappClient, err := whatsapp.NewClient(context.Background(), cfg.WhatsApp, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create whatsapp client", err)
		os.Exit(1)
	}

	companiesRepo := companies.NewRepository(dbClient.DB())
	plansRepo := plans.NewRepository(dbClient.DB())
	subscriptionRepo := subscription.NewRepository(dbClient.DB())
	appointmentsRepo := appointments.NewRepository(dbClient.DB())
	remindersRepo := reminders.NewRepository(dbClient.DB())
	reviewsRepo := reviews.NewRepository(dbClient.DB())
	affiliatesRepo := affiliates.NewRepository(dbClient.DB())

	plansService, err := plans.NewService(plans.ServiceParams{Repo: plansRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create plans service", err)
		os.Exit(1)
	}

	affiliatesService, err := affiliates.NewService(affiliates.ServiceParams{
		Repo:   affiliatesRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create affiliates service", err)
		os.Exit(1)
	}

	remindersService, err := reminders.NewService(reminders.ServiceParams{Repo: remindersRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create reminders service", err)
		os.Exit(1)
	}

	reminderDispatcher, err := reminders.NewDispatcher(reminders.DispatcherParams{
		Repo:         remindersRepo,
		Sender:       whatsappClient,
		Logger:       logg,
		Metrics:      metrics.NewReminderMetrics(prometheus.DefaultRegisterer),
		PollInterval: cfg.Reminder.PollInterval,
		BatchSize:    cfg.Reminder.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reminder dispatcher", err)
		os.Exit(1)
	}

	reviewsService, err := reviews.NewService(reviews.ServiceParams{
		Repo:   reviewsRepo,
		Sender: whatsappClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	companiesService, err := companies.NewService(companies.ServiceParams{
		Repo:      companiesRepo,
		Plans:     plansRepo,
		Referrals: affiliatesService,
		Reminders: remindersService,
		Password:  cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create companies service", err)
		os.Exit(1)
	}

	subscriptionService, err := subscription.NewService(subscription.ServiceParams{
		Repo:        subscriptionRepo,
		Gateway:     asaasClient,
		Logger:      logg,
		WarningDays: cfg.Billing.TrialWarningDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	appointmentsService, err := appointments.NewService(appointments.ServiceParams{
		Repo:     appointmentsRepo,
		Logger:   logg,
		Notifier: reminderDispatcher,
		Reviews:  reviewsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create appointments service", err)
		os.Exit(1)
	}

	billingService, err := billing.NewService(billing.ServiceParams{
		Companies: companiesService,
		Plans:     plansRepo,
		Gateway:   asaasClient,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Companies: companiesRepo,
		Limiter:   redisClient,
		Logger:    logg,
		JWT:       cfg.JWT,
		RateLimit: cfg.AuthRateLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	webhooksService, err := webhooks.NewService(webhooks.ServiceParams{
		Validator:   asaasClient,
		Events:      redisClient,
		Companies:   companiesRepo,
		Status:      subscriptionRepo,
		Commissions: affiliatesService,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhooks service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DBPinger:      dbClient,
			RedisPinger:   redisClient,
			Idempotency:   redisClient,
			Auth:          authService,
			Billing:       billingService,
			Companies:     companiesService,
			Plans:         plansService,
			Subscriptions: subscriptionService,
			Appointments:  appointmentsService,
			Reminders:     remindersService,
			Reviews:       reviewsService,
			Affiliates:    affiliatesService,
			Webhooks:      webhooksService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
