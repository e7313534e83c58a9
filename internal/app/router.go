package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-life/aegis-api/internal/applications"
	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/blogs"
	"github.com/aegis-life/aegis-api/internal/observability"
	"github.com/aegis-life/aegis-api/internal/payments"
	"github.com/aegis-life/aegis-api/internal/policies"
	"github.com/aegis-life/aegis-api/internal/reviews"
	"github.com/aegis-life/aegis-api/internal/subscribers"
	"github.com/aegis-life/aegis-api/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Pool   *pgxpool.Pool

	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	PoliciesHandler     *policies.Handler
	ApplicationsHandler *applications.Handler
	BlogsHandler        *blogs.Handler
	ReviewsHandler      *reviews.Handler
	PaymentsHandler     *payments.Handler
	SubscribersHandler  *subscribers.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	params.UsersHandler.MountRoutes(r)
	params.PoliciesHandler.MountRoutes(r)
	params.ApplicationsHandler.MountRoutes(r)
	params.BlogsHandler.MountRoutes(r)
	params.ReviewsHandler.MountRoutes(r)
	params.PaymentsHandler.MountRoutes(r)
	params.SubscribersHandler.MountRoutes(r)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
