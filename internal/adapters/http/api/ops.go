package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/internboard/pkg/logger"
	"github.com/okian/internboard/pkg/metrics"
)

// StatsProvider reports runtime counters of the dashboard service.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// OpsHandler serves the operator endpoints: the Prometheus exposition on
// /healthz and a JSON snapshot of service counters on /stats.
type OpsHandler struct {
	exposition http.Handler
	stats      StatsProvider
	startedAt  time.Time
}

// NewOpsHandler creates the operator handler. A nil provider reports an
// empty service section.
func NewOpsHandler(stats StatsProvider) *OpsHandler {
	return &OpsHandler{
		exposition: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
		stats:      stats,
		startedAt:  time.Now(),
	}
}

// HandleHealth handles GET /healthz.
func (h *OpsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.exposition.ServeHTTP(w, r)
}

type statsResponse struct {
	Service   map[string]interface{} `json:"service"`
	Uptime    string                 `json:"uptime"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HandleStats handles GET /stats.
func (h *OpsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Service:   map[string]interface{}{},
		Uptime:    time.Since(h.startedAt).Truncate(time.Second).String(),
		RequestID: logger.RequestID(r.Context()),
	}
	if h.stats != nil {
		if s := h.stats.GetStats(); s != nil {
			resp.Service = s
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
