package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agendaja-app/agendaja-backend/api/controllers"
	"github.com/agendaja-app/agendaja-backend/api/middleware"
	"github.com/agendaja-app/agendaja-backend/internal/affiliates"
	"github.com/agendaja-app/agendaja-backend/internal/appointments"
	authsvc "github.com/agendaja-app/agendaja-backend/internal/auth"
	"github.com/agendaja-app/agendaja-backend/internal/billing"
	"github.com/agendaja-app/agendaja-backend/internal/companies"
	"github.com/agendaja-app/agendaja-backend/internal/plans"
	"github.com/agendaja-app/agendaja-backend/internal/reminders"
	"github.com/agendaja-app/agendaja-backend/internal/reviews"
	"github.com/agendaja-app/agendaja-backend/internal/subscription"
	"github.com/agendaja-app/agendaja-backend/internal/webhooks"
	"github.com/agendaja-app/agendaja-backend/pkg/config"
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
	pkgredis "github.com/agendaja-app/agendaja-backend/pkg/redis"
)

// Deps groups everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DBPinger      controllers.Pinger
	RedisPinger   controllers.Pinger
	Idempotency   pkgredis.IdempotencyStore
	Auth          *authsvc.Service
	Billing       *billing.Service
	Companies     *companies.Service
	Plans         *plans.Service
	Subscriptions *subscription.Service
	Appointments  *appointments.Service
	Reminders     *reminders.Service
	Reviews       *reviews.Service
	Affiliates    *affiliates.Service
	Webhooks      *webhooks.Service
}

// NewRouter assembles the HTTP surface. Subscription gating applies to the
// booking and reminder features only: a blocked tenant can still log in, see
// its status and alerts, and pick a plan.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.Idempotency(deps.Idempotency, logg)).
			Post("/companies/register", controllers.CompanyRegister(deps.Companies, deps.Auth, logg))
		r.Get("/plans", controllers.PlansList(deps.Plans, false, logg))
		r.Post("/reviews/{token}", controllers.ReviewRedeem(deps.Reviews, logg))
		r.Post("/webhooks/asaas", controllers.AsaasWebhook(deps.Webhooks, logg))

		// authenticated but never gated: blocked tenants still need these
		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, logg),
				middleware.Idempotency(deps.Idempotency, logg),
			)

			r.Post("/auth/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.Get("/companies/me", controllers.CompanyMe(deps.Companies, logg))
			r.Put("/companies/me", controllers.CompanyUpdate(deps.Companies, logg))
			r.Get("/subscription-status", controllers.SubscriptionStatus(deps.Subscriptions, logg))
			r.Get("/trial-info", controllers.TrialInfo(deps.Subscriptions, logg))
			r.Get("/payment-alerts", controllers.PaymentAlertsList(deps.Subscriptions, logg))
			r.Post("/payment-alerts/{alertID}/mark-shown", controllers.PaymentAlertMarkShown(deps.Subscriptions, logg))
			r.Post("/subscription/subscribe", controllers.SubscriptionSubscribe(deps.Billing, logg))
			r.Post("/subscription/cancel", controllers.SubscriptionCancel(deps.Billing, logg))
		})

		// gated feature surface
		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, logg),
				middleware.SubscriptionGate(deps.Subscriptions, logg),
				middleware.Idempotency(deps.Idempotency, logg),
			)

			r.Route("/appointments", func(r chi.Router) {
				r.Post("/", controllers.AppointmentCreate(deps.Appointments, logg))
				r.Get("/", controllers.AppointmentsList(deps.Appointments, logg))
				r.Get("/{appointmentID}", controllers.AppointmentGet(deps.Appointments, logg))
				r.Put("/{appointmentID}", controllers.AppointmentUpdate(deps.Appointments, logg))
				r.Post("/{appointmentID}/confirm", controllers.AppointmentTransition(deps.Appointments, enums.AppointmentStatusConfirmed, logg))
				r.Post("/{appointmentID}/cancel", controllers.AppointmentTransition(deps.Appointments, enums.AppointmentStatusCancelled, logg))
				r.Post("/{appointmentID}/complete", controllers.AppointmentTransition(deps.Appointments, enums.AppointmentStatusCompleted, logg))
				r.Post("/{appointmentID}/no-show", controllers.AppointmentTransition(deps.Appointments, enums.AppointmentStatusNoShow, logg))
			})

			r.Route("/reminders", func(r chi.Router) {
				r.Get("/settings", controllers.ReminderSettingsList(deps.Reminders, logg))
				r.Put("/settings", controllers.ReminderSettingUpdate(deps.Reminders, logg))
				r.Get("/history", controllers.ReminderHistoryList(deps.Reminders, logg))
			})

			r.Get("/reviews", controllers.ReviewsList(deps.Reviews, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.RequireRole(string(enums.ActorRoleAdmin), logg),
		)

		r.Get("/plans", controllers.PlansList(deps.Plans, true, logg))
		r.Post("/plans", controllers.PlanCreate(deps.Plans, logg))
		r.Put("/plans/{planID}", controllers.PlanUpdate(deps.Plans, logg))

		r.Put("/companies/{companyID}/active", controllers.CompanySetActive(deps.Companies, logg))

		r.Post("/affiliates", controllers.AffiliateCreate(deps.Affiliates, logg))
		r.Put("/affiliates/{affiliateID}/active", controllers.AffiliateSetActive(deps.Affiliates, logg))
		r.Get("/affiliates/{affiliateID}/commissions", controllers.AffiliateCommissionsList(deps.Affiliates, logg))
	})

	return r
}
