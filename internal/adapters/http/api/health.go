package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/tally/pkg/metrics"
)

// HealthHandler serves liveness together with the metrics exposition.
type HealthHandler struct {
	deps    CountDependencies
	metrics http.Handler
}

// NewHealthHandler creates a new health handler. The service counts as
// healthy once its game is loaded.
func NewHealthHandler(deps CountDependencies) *HealthHandler {
	return &HealthHandler{
		deps:    deps,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests. A loaded game answers with the
// Prometheus exposition of the service registry, anything else with 503.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := h.deps.Status(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	h.metrics.ServeHTTP(w, r)
}
