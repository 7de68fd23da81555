package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/internal/domain/roster"
	"github.com/okian/internboard/internal/domain/tier"
	"github.com/okian/internboard/internal/domain/types"
	"github.com/okian/internboard/pkg/logger"
)

// maxBodyBytes bounds create and update payloads.
const maxBodyBytes = 1 << 20

// InternDependencies is the roster side of the service.
type InternDependencies interface {
	ListInterns(ctx context.Context, q roster.Query) (types.Page, error)
	GetIntern(ctx context.Context, id string) (types.Row, error)
	CreateIntern(ctx context.Context, in model.InternInput) (types.Row, error)
	UpdateIntern(ctx context.Context, id string, in model.InternInput) (types.Row, error)
	DeleteIntern(ctx context.Context, id string) error
	RefreshRoster(ctx context.Context) error
}

// InternsHandler handles the intern CRUD endpoints.
type InternsHandler struct {
	deps   InternDependencies
	logger logger.Logger
}

// NewInternsHandler creates a new interns handler.
func NewInternsHandler(deps InternDependencies, l logger.Logger) *InternsHandler {
	return &InternsHandler{deps: deps, logger: l}
}

// HandleList handles GET /interns.
func (h *InternsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	page, err := h.deps.ListInterns(r.Context(), q)
	if err != nil {
		fail(w, r, h.logger, Wrap("list interns", err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGet handles GET /interns/{id}.
func (h *InternsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	row, err := h.deps.GetIntern(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, h.logger, Wrap("get intern", err))
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// HandleCreate handles POST /interns.
func (h *InternsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(w, r)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	row, err := h.deps.CreateIntern(r.Context(), in)
	if err != nil {
		fail(w, r, h.logger, Wrap("create intern", err))
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

// HandleUpdate handles PUT /interns/{id}.
func (h *InternsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(w, r)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	row, err := h.deps.UpdateIntern(r.Context(), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, h.logger, Wrap("update intern", err))
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// HandleDelete handles DELETE /interns/{id}.
func (h *InternsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteIntern(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, h.logger, Wrap("delete intern", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefresh handles POST /interns/refresh by dropping the cached roster.
func (h *InternsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.RefreshRoster(r.Context()); err != nil {
		fail(w, r, h.logger, Wrap("refresh roster", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (model.InternInput, error) {
	var in model.InternInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, WrapKind("decode intern", ErrBadRequest, err)
	}
	return in, nil
}

// parseQuery maps list query parameters onto a roster query. Unknown
// filter values are rejected rather than silently ignored.
func parseQuery(v url.Values) (roster.Query, error) {
	const op = "parse query"
	q := roster.Query{
		Search:     v.Get("search"),
		Department: strings.TrimSpace(v.Get("department")),
		Course:     strings.TrimSpace(v.Get("course")),
		Mentor:     strings.TrimSpace(v.Get("mentor")),
		SortBy:     roster.SortKey(strings.ToLower(v.Get("sort"))),
		Order:      roster.Order(strings.ToLower(v.Get("order"))),
	}
	if s := v.Get("status"); s != "" {
		st, ok := model.ParseStatus(s)
		if !ok {
			return q, WrapKind(op, ErrBadRequest, fmt.Errorf("unknown status %q", s))
		}
		q.Status = st
	}
	if s := v.Get("tier"); s != "" {
		t, ok := tier.Parse(s)
		if !ok {
			return q, WrapKind(op, ErrBadRequest, fmt.Errorf("%w %q", tier.ErrUnknownTier, s))
		}
		q.Tier = &t
	}
	if s := v.Get("active"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, WrapKind(op, ErrBadRequest, fmt.Errorf("active must be a boolean"))
		}
		q.Active = &b
	}
	var err error
	if q.Page, err = positiveInt(v.Get("page"), "page"); err != nil {
		return q, WrapKind(op, ErrBadRequest, err)
	}
	if q.PageSize, err = positiveInt(v.Get("page_size"), "page_size"); err != nil {
		return q, WrapKind(op, ErrBadRequest, err)
	}
	return q, nil
}

// positiveInt parses an optional positive integer; empty yields 0.
func positiveInt(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}
