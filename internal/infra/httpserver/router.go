package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/guardline/incident-ai/internal/application/analysis"
	domain "github.com/guardline/incident-ai/internal/domain/analysis"
	"github.com/guardline/incident-ai/internal/domain/incident"
	"github.com/guardline/incident-ai/internal/middleware"
)

type Router struct {
	svc *appanalysis.Service
}

// NewRouter builds the API surface. The only consumer is the browser
// console, so CORS is applied at the top of the chain.
func NewRouter(svc *appanalysis.Service, allowedOrigins []string, healthCheckers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Get("/health", middleware.HealthHandler(healthCheckers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Post("/incidents/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/analyses", r.wrap(r.handleListAnalyses))
		rt.Get("/analyses/latest", r.wrap(r.handleLatestAnalysis))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps domain errors onto HTTP codes. Only permission and
// classifier failures surface as pipeline failures; everything else the
// pipeline absorbed already.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domain.ErrPermissionDenied):
				http.Error(w, err.Error(), http.StatusForbidden)
			case errors.Is(err, domain.ErrNoIncident):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrInFlight):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, domain.ErrHistoryDisabled):
				http.Error(w, err.Error(), http.StatusNotImplemented)
			case errors.Is(err, sql.ErrNoRows):
				http.Error(w, "not found", http.StatusNotFound)
			default:
				var svcErr *domain.ServiceError
				if errors.As(err, &svcErr) {
					http.Error(w, svcErr.Error(), http.StatusBadGateway)
					return
				}
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

// POST /v1/{tenant}/incidents/analyze
// Body: the incident snapshot to analyze. The acting role comes from the
// authenticated API key, never from the body.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	var snap incident.Snapshot
	if err := json.NewDecoder(req.Body).Decode(&snap); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil
	}
	if err := middleware.ValidateIncidentID(string(snap.ID)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	defer middleware.DecrementAnalysesRunning()

	res, err := r.svc.Analyze(req.Context(), appanalysis.AnalyzeCommand{
		TenantID: tenant,
		Role:     middleware.GetRoleFromContext(req.Context()),
		Incident: &snap,
	})
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

// GET /v1/{tenant}/analyses?page=&page_size=
func (r *Router) handleListAnalyses(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.ListAnalyses(req.Context(), tenant, middleware.ValidatePage(page), middleware.ValidatePageSize(size))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/analyses/latest?incident_id=
func (r *Router) handleLatestAnalysis(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	incidentID := req.URL.Query().Get("incident_id")
	if err := middleware.ValidateIncidentID(incidentID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	rec, err := r.svc.Latest(req.Context(), tenant, incidentID)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(rec)
}
