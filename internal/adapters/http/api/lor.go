package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/pkg/logger"
)

// IdempotencyKeyHeader lets callers pick their own dedupe key.
const IdempotencyKeyHeader = "Idempotency-Key"

// LORDependencies is the letter-of-recommendation side of the service.
type LORDependencies interface {
	TriggerLOR(ctx context.Context, internID string, action model.LORAction, key string) (model.LORJob, bool, error)
	Job(ctx context.Context, id string) (model.LORJob, error)
}

// LORHandler handles LOR triggers and job lookups.
type LORHandler struct {
	deps   LORDependencies
	logger logger.Logger
}

// NewLORHandler creates a new LOR handler.
func NewLORHandler(deps LORDependencies, l logger.Logger) *LORHandler {
	return &LORHandler{deps: deps, logger: l}
}

type triggerResponse struct {
	Job       model.LORJob `json:"job"`
	Duplicate bool         `json:"duplicate"`
}

// HandleTrigger handles POST /interns/{id}/lor/{action}. A new job is
// answered with 202, a duplicate with 200 and the existing job.
func (h *LORHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	action := model.LORAction(strings.ToLower(r.PathValue("action")))
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))

	job, dup, err := h.deps.TriggerLOR(r.Context(), r.PathValue("id"), action, key)
	if err != nil {
		fail(w, r, h.logger, Wrap("trigger lor", err))
		return
	}
	status := http.StatusAccepted
	if dup {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/lor/jobs/"+job.ID)
	writeJSON(w, status, triggerResponse{Job: job, Duplicate: dup})
}

// HandleGetJob handles GET /lor/jobs/{id}.
func (h *LORHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.deps.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, h.logger, Wrap("get lor job", err))
		return
	}
	writeJSON(w, http.StatusOK, job)
}
