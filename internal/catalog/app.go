package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"TeluskoTrac/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	CORSOrigins []string

	// WriteLimiter throttles POST, PUT and DELETE per client IP when set.
	WriteLimiter *kit.IPRateLimiter
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	var writeMW []func(http.Handler) http.Handler
	if deps.WriteLimiter != nil {
		writeMW = append(writeMW, deps.WriteLimiter.Middleware)
	}

	r.Mount("/", s.Routes(writeMW...))
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
	r.Use(kit.CORS(deps.CORSOrigins))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.RoutePattern))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.BearerToken(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}
