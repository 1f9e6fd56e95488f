package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agritraceio/agritrace-backend/api/controllers"
	"github.com/agritraceio/agritrace-backend/api/middleware"
	"github.com/agritraceio/agritrace-backend/internal/gateway"
	"github.com/agritraceio/agritrace-backend/internal/ingest"
	"github.com/agritraceio/agritrace-backend/internal/produce"
	"github.com/agritraceio/agritrace-backend/internal/purchase"
	"github.com/agritraceio/agritrace-backend/internal/txsync"
	"github.com/agritraceio/agritrace-backend/internal/users"
	"github.com/agritraceio/agritrace-backend/pkg/config"
	"github.com/agritraceio/agritrace-backend/pkg/db"
	"github.com/agritraceio/agritrace-backend/pkg/logger"
	"github.com/agritraceio/agritrace-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers. Optional fields
// (Redis, Registry) may be nil.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Ledger   *gateway.Client
	Registry *prometheus.Registry

	Users        users.Service
	Transactions txsync.Service
	Produce      produce.Service
	Purchases    purchase.Service
	Ingest       ingest.Service
}

// NewRouter assembles the HTTP surface.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, pingerOrNil(d.Redis), d.Ledger, logg))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.Register(d.Users, logg))
		r.Post("/login", controllers.Login(d.Users, cfg.JWT, logg))
	})

	var submitLimiter redis.RateLimiter
	if d.Redis != nil {
		submitLimiter = d.Redis
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/ledger/records", func(r chi.Router) {
			r.Get("/", controllers.LedgerRecordsList(d.Ledger, logg))
			r.Get("/{id}", controllers.LedgerRecordGet(d.Ledger, logg))
			r.Get("/{id}/history", controllers.LedgerRecordHistory(d.Ledger, logg))
			r.With(middleware.RequireRoles(logg, "inspector", "admin")).
				Post("/{id}/verify", controllers.LedgerRecordVerify(d.Transactions, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.TransactionsList(d.Transactions, logg))
			r.Get("/{txID}", controllers.TransactionGet(d.Transactions, logg))
			r.With(middleware.SubmitRateLimit(submitLimiter, cfg.RateLimit, logg)).
				Post("/", controllers.TransactionSubmit(d.Transactions, logg))
		})

		r.Route("/produce", func(r chi.Router) {
			r.Get("/", controllers.ProduceList(d.Produce, logg))
			r.Get("/{id}", controllers.ProduceGet(d.Produce, logg))
			r.Get("/{id}/provenance", controllers.ProduceProvenance(d.Produce, logg))
			r.With(middleware.SubmitRateLimit(submitLimiter, cfg.RateLimit, logg)).
				Post("/", controllers.ProduceCreate(d.Produce, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", controllers.PurchasesList(d.Purchases, logg))
			r.Get("/{id}", controllers.PurchaseGet(d.Purchases, logg))
			r.With(middleware.SubmitRateLimit(submitLimiter, cfg.RateLimit, logg)).
				Post("/", controllers.PurchaseCreate(d.Purchases, logg))
		})

		r.With(middleware.SubmitRateLimit(submitLimiter, cfg.RateLimit, logg)).
			Post("/ingest/csv", controllers.IngestCSV(d.Ingest, cfg.Ingest, logg))
	})

	return r
}

func pingerOrNil(client *redis.Client) redis.Pinger {
	if client == nil {
		return nil
	}
	return client
}
