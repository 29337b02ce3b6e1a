package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/transparencia/internal/domain/outcome"
	"github.com/kailas-cloud/transparencia/internal/domain/query"
	healthuc "github.com/kailas-cloud/transparencia/internal/usecase/health"
)

// CollectPath is the collection endpoint.
const CollectPath = "/api/portal_transparencia"

// Client-facing messages for malformed requests.
const (
	msgInvalidBody      = "Corpo da requisição inválido"
	msgMissingParameter = "parametro_busca é obrigatório"
)

// Collector runs one collection.
type Collector interface {
	Collect(ctx context.Context, q query.Query) outcome.Outcome
}

// HealthReporter reports component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the collection API.
type Server struct {
	collector Collector
	health    HealthReporter
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(collector Collector, health HealthReporter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{collector: collector, health: health, logger: logger}
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Post(CollectPath, s.Collect)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Collect handles POST /api/portal_transparencia.
func (s *Server) Collect(w http.ResponseWriter, r *http.Request) {
	var req collectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody+": "+err.Error())
		return
	}
	// An empty or blank term is a valid query; only an absent one is rejected.
	if req.ParametroBusca == nil {
		writeError(w, http.StatusUnprocessableEntity, msgMissingParameter)
		return
	}

	q := query.New(*req.ParametroBusca, req.FiltroBusca)
	out := s.collector.Collect(r.Context(), q)

	switch out.Kind() {
	case outcome.KindOK:
		writeJSON(w, http.StatusOK, collectionToResponse(out.Result()))
	case outcome.KindNotFound:
		s.requestLogger(r).Warn("validation fault",
			zap.String("url", redactedURL(r.URL)),
			zap.String("message", out.Message()),
		)
		writeError(w, http.StatusOK, out.Message())
	default:
		s.requestLogger(r).Error("collection failed",
			zap.String("path", r.URL.Path),
			zap.Any("query_params", redactedQuery(r.URL.Query())),
			zap.String("fault_kind", string(out.FaultKind())),
			zap.Error(out.Err()),
		)
		writeError(w, http.StatusInternalServerError, out.Message())
	}
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if id := chiMiddleware.GetReqID(r.Context()); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{MensagemErro: message})
}

// redactedQuery copies params with the access token masked.
func redactedQuery(params url.Values) map[string][]string {
	out := make(map[string][]string, len(params))
	for k, v := range params {
		if k == tokenParam {
			out[k] = []string{"***"}
			continue
		}
		out[k] = v
	}
	return out
}

func redactedURL(u *url.URL) string {
	c := *u
	q := c.Query()
	if q.Has(tokenParam) {
		q.Set(tokenParam, "***")
		c.RawQuery = q.Encode()
	}
	return c.String()
}
