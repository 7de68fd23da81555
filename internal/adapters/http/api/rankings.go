package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/internboard/internal/domain/types"
	"github.com/okian/internboard/pkg/logger"
)

const (
	defaultRankingLimit    = 10
	defaultMaxRankingLimit = 100
)

// RankingDependencies is the ranking side of the service.
type RankingDependencies interface {
	Rankings(ctx context.Context, limit int) ([]types.Entry, error)
}

// RankingsHandler handles ranking requests.
type RankingsHandler struct {
	deps     RankingDependencies
	maxLimit int
	logger   logger.Logger
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingDependencies, maxLimit int, l logger.Logger) *RankingsHandler {
	if maxLimit <= 0 {
		maxLimit = defaultMaxRankingLimit
	}
	return &RankingsHandler{deps: deps, maxLimit: maxLimit, logger: l}
}

// HandleGetRankings handles GET /rankings?limit=N.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	limit := defaultRankingLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("limit must be a positive integer"))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("limit must be at most %d", h.maxLimit))
			return
		}
		limit = n
	}

	entries, err := h.deps.Rankings(r.Context(), limit)
	if err != nil {
		fail(w, r, h.logger, Wrap("rankings", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"limit":   limit,
		"entries": entries,
	})
}
