package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/internboard/internal/domain/tier"
)

// TierDependencies exposes the configured classifier.
type TierDependencies interface {
	Classify(score *float64) tier.Result
	Tiers() []tier.Band
}

// TiersHandler serves the threshold table and one-off classification.
type TiersHandler struct {
	deps TierDependencies
}

// NewTiersHandler creates a new tiers handler.
func NewTiersHandler(deps TierDependencies) *TiersHandler {
	return &TiersHandler{deps: deps}
}

// HandleTable handles GET /tiers.
func (h *TiersHandler) HandleTable(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tiers": h.deps.Tiers()})
}

type classifyResponse struct {
	Score *float64 `json:"score"`
	tier.Result
}

// HandleClassify handles GET /tiers/classify?score=X. An empty or
// non-numeric score classifies as missing.
func (h *TiersHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	score := parseScore(r.URL.Query().Get("score"))
	writeJSON(w, http.StatusOK, classifyResponse{Score: score, Result: h.deps.Classify(score)})
}

func parseScore(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}
