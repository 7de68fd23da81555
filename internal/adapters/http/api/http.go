// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	service "github.com/okian/internboard/internal/app"
	"github.com/okian/internboard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	InternDependencies
	RankingDependencies
	TierDependencies
	LORDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	opsHandler       *OpsHandler
	internsHandler   *InternsHandler
	rankingsHandler  *RankingsHandler
	tiersHandler     *TiersHandler
	lorHandler       *LORHandler
	dashboardHandler *dashboardHandler
	logger           logger.Logger
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	maxRankingLimit int
	logger          logger.Logger
}

// WithMaxRankingLimit caps GET /rankings?limit.
func WithMaxRankingLimit(n int) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxRankingLimit = n
		}
	}
}

// WithLogger sets the logger used for request errors.
func WithLogger(l logger.Logger) ServerOption {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{maxRankingLimit: defaultMaxRankingLimit, logger: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		opsHandler:       NewOpsHandler(statsProvider),
		internsHandler:   NewInternsHandler(deps, cfg.logger),
		rankingsHandler:  NewRankingsHandler(deps, cfg.maxRankingLimit, cfg.logger),
		tiersHandler:     NewTiersHandler(deps),
		lorHandler:       NewLORHandler(deps, cfg.logger),
		dashboardHandler: newDashboardHandler(),
		logger:           cfg.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.opsHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.opsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /interns", MetricsMiddleware(s.internsHandler.HandleList, "interns"))
	mux.HandleFunc("POST /interns", MetricsMiddleware(s.internsHandler.HandleCreate, "interns"))
	mux.HandleFunc("POST /interns/refresh", MetricsMiddleware(s.internsHandler.HandleRefresh, "interns_refresh"))
	mux.HandleFunc("GET /interns/{id}", MetricsMiddleware(s.internsHandler.HandleGet, "intern"))
	mux.HandleFunc("PUT /interns/{id}", MetricsMiddleware(s.internsHandler.HandleUpdate, "intern"))
	mux.HandleFunc("DELETE /interns/{id}", MetricsMiddleware(s.internsHandler.HandleDelete, "intern"))

	mux.HandleFunc("POST /interns/{id}/lor/{action}", MetricsMiddleware(s.lorHandler.HandleTrigger, "lor_trigger"))
	mux.HandleFunc("GET /lor/jobs/{id}", MetricsMiddleware(s.lorHandler.HandleGetJob, "lor_job"))

	mux.HandleFunc("GET /rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("GET /tiers", MetricsMiddleware(s.tiersHandler.HandleTable, "tiers"))
	mux.HandleFunc("GET /tiers/classify", MetricsMiddleware(s.tiersHandler.HandleClassify, "tiers_classify"))
}

// Handler wraps h with request context and gzip response compression.
func Handler(h http.Handler) http.Handler {
	return gzhttp.GzipHandler(RequestContext(h))
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, status, resp)
}

// fail classifies err, logs server-side failures and writes the response.
func fail(w http.ResponseWriter, r *http.Request, l logger.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		l.Error(r.Context(), "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}
	writeError(w, status, code, err)
}
