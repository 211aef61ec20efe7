package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxtill/voxtill-backend/api/controllers"
	"github.com/voxtill/voxtill-backend/api/middleware"
	"github.com/voxtill/voxtill-backend/internal/rules"
	"github.com/voxtill/voxtill-backend/internal/transactions"
	"github.com/voxtill/voxtill-backend/pkg/config"
	"github.com/voxtill/voxtill-backend/pkg/db"
	"github.com/voxtill/voxtill-backend/pkg/logger"
	pkgredis "github.com/voxtill/voxtill-backend/pkg/redis"
)

// RouterParams groups everything the HTTP surface needs.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *pkgredis.Client
	Transactions transactions.Service
	Rules        rules.Service
	Metrics      http.Handler
}

func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(params.Logger),
		middleware.RequestID(params.Logger),
		middleware.Logging(params.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
		r.Get("/ready", controllers.HealthReady(params.Config, params.Logger, params.DB, params.Redis))
	})
	r.Get("/ping", controllers.Ping())

	metricsHandler := params.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		var idempotencyStore pkgredis.IdempotencyStore
		if params.Redis != nil {
			idempotencyStore = params.Redis
		}
		r.Use(middleware.Idempotency(idempotencyStore, params.Config.Idempotency.TTL, params.Logger))

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", controllers.CreateTransaction(params.Transactions, params.Logger))
			r.Get("/", controllers.ListTransactions(params.Transactions, params.Logger))
			r.Get("/{transactionId}", controllers.GetTransaction(params.Transactions, params.Logger))
		})

		r.Route("/pricing/rules", func(r chi.Router) {
			r.Post("/", controllers.CreateRule(params.Rules, params.Logger))
			r.Get("/", controllers.ListRules(params.Rules, params.Logger))
		})
	})

	return r
}
