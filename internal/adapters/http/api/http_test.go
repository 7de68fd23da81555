package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/internboard/internal/adapters/backend"
	"github.com/okian/internboard/internal/adapters/http/api"
	service "github.com/okian/internboard/internal/app"
	"github.com/okian/internboard/internal/domain/model"
	"github.com/okian/internboard/internal/domain/roster"
	"github.com/okian/internboard/internal/domain/tier"
	"github.com/okian/internboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDependencies struct {
	classifier *tier.Classifier

	rows      map[string]types.Row
	lastQuery roster.Query
	lastToken string
	listErr   error
	writeErr  error
	refreshed int

	entries []types.Entry
	rankErr error
	lastLim int

	jobs       map[string]model.LORJob
	triggerErr error
	lastKey    string
}

func newMockDependencies() *mockDependencies {
	c := tier.New()
	return &mockDependencies{
		classifier: c,
		rows: map[string]types.Row{
			"i-1": {Intern: model.Intern{ID: "i-1", Name: "Asha", Score: model.Float(91)}, EffectiveScore: model.Float(91), Tier: c.Classify(91)},
		},
		jobs: map[string]model.LORJob{},
	}
}

func (m *mockDependencies) ListInterns(ctx context.Context, q roster.Query) (types.Page, error) {
	m.lastQuery = q
	m.lastToken = backend.TokenFromContext(ctx)
	if m.listErr != nil {
		return types.Page{}, m.listErr
	}
	items := make([]types.Row, 0, len(m.rows))
	for _, r := range m.rows {
		items = append(items, r)
	}
	return roster.Paginate(items, q.Page, q.PageSize), nil
}

func (m *mockDependencies) GetIntern(_ context.Context, id string) (types.Row, error) {
	r, ok := m.rows[id]
	if !ok {
		return types.Row{}, fmt.Errorf("get intern %s: %w", id, backend.ErrNotFound)
	}
	return r, nil
}

func (m *mockDependencies) CreateIntern(_ context.Context, in model.InternInput) (types.Row, error) {
	if m.writeErr != nil {
		return types.Row{}, m.writeErr
	}
	return types.Row{Intern: model.Intern{ID: "i-2", Name: in.Name, Score: in.Score}, Tier: m.classifier.ClassifyPtr(in.Score)}, nil
}

func (m *mockDependencies) UpdateIntern(_ context.Context, id string, in model.InternInput) (types.Row, error) {
	if m.writeErr != nil {
		return types.Row{}, m.writeErr
	}
	return types.Row{Intern: model.Intern{ID: id, Name: in.Name}}, nil
}

func (m *mockDependencies) DeleteIntern(_ context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return backend.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *mockDependencies) RefreshRoster(context.Context) error {
	m.refreshed++
	return nil
}

func (m *mockDependencies) Rankings(_ context.Context, limit int) ([]types.Entry, error) {
	m.lastLim = limit
	if m.rankErr != nil {
		return nil, m.rankErr
	}
	return m.entries, nil
}

func (m *mockDependencies) Classify(score *float64) tier.Result { return m.classifier.ClassifyPtr(score) }

func (m *mockDependencies) Tiers() []tier.Band { return m.classifier.Table() }

func (m *mockDependencies) TriggerLOR(_ context.Context, internID string, action model.LORAction, key string) (model.LORJob, bool, error) {
	m.lastKey = key
	if m.triggerErr != nil {
		return model.LORJob{}, false, m.triggerErr
	}
	if key == "" {
		key = service.LORKey(action, internID)
	}
	if j, ok := m.jobs[key]; ok {
		return j, true, nil
	}
	j := model.LORJob{ID: "job-" + key, InternID: internID, Action: action, Key: key, Status: model.JobQueued}
	m.jobs[key] = j
	return j, false, nil
}

func (m *mockDependencies) Job(_ context.Context, id string) (model.LORJob, error) {
	for _, j := range m.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return model.LORJob{}, service.ErrJobNotFound
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func newMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"running": true}}, api.WithMaxRankingLimit(50))
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) errorBody {
	var body errorBody
	_ = json.NewDecoder(w.Body).Decode(&body)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newMockDependencies())

		Convey("Then health serves Prometheus metrics", func() {
			w := do(mux, "GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats are served as JSON", func() {
			w := do(api.Handler(mux), "GET", "/stats", "", api.RequestIDHeader, "req-42")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"service":{"running":true}`)
			So(w.Body.String(), ShouldContainSubstring, `"uptime"`)
			So(w.Body.String(), ShouldContainSubstring, `"request_id":"req-42"`)
		})

		Convey("Then the dashboard page is served", func() {
			w := do(mux, "GET", "/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Internboard")
			So(w.Body.String(), ShouldContainSubstring, "/tiers")
		})

		Convey("Then unknown paths are not found", func() {
			w := do(mux, "GET", "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestInternsHandler(t *testing.T) {
	Convey("Given the intern endpoints", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When listing with filters", func() {
			w := do(mux, "GET", "/interns?search=asha&tier=gold&status=approved&active=true&sort=score&order=desc&page=2&page_size=5", "")

			Convey("Then the query reaches the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				q := deps.lastQuery
				So(q.Search, ShouldEqual, "asha")
				So(*q.Tier, ShouldEqual, tier.Excellent)
				So(q.Status, ShouldEqual, model.StatusApproved)
				So(*q.Active, ShouldBeTrue)
				So(q.SortBy, ShouldEqual, roster.SortByScore)
				So(q.Order, ShouldEqual, roster.Desc)
				So(q.Page, ShouldEqual, 2)
				So(q.PageSize, ShouldEqual, 5)
			})
		})

		Convey("When the page number is far past the end", func() {
			w := do(mux, "GET", "/interns?page=1000000000000000000", "")
			var page types.Page
			So(json.NewDecoder(w.Body).Decode(&page), ShouldBeNil)

			Convey("Then an empty page is served with the totals", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(page.Items, ShouldBeEmpty)
				So(page.Total, ShouldEqual, 1)
				So(page.TotalPages, ShouldEqual, 1)
			})
		})

		Convey("When a filter value is unknown", func() {
			bad := []string{"/interns?tier=platinum", "/interns?status=archived", "/interns?active=maybe", "/interns?page=0"}
			for _, target := range bad {
				w := do(mux, "GET", target, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Code, ShouldEqual, "bad_request")
			}
		})

		Convey("When the backend is down", func() {
			deps.listErr = fmt.Errorf("list: %w", backend.ErrUpstream)
			w := do(mux, "GET", "/interns", "")

			Convey("Then a bad gateway is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(decodeError(w).Code, ShouldEqual, "upstream_error")
			})
		})

		Convey("When fetching one intern", func() {
			ok := do(mux, "GET", "/interns/i-1", "")
			missing := do(mux, "GET", "/interns/nope", "")

			Convey("Then it carries its tier", func() {
				So(ok.Code, ShouldEqual, http.StatusOK)
				So(ok.Body.String(), ShouldContainSubstring, `"tier":"excellent"`)
			})

			Convey("And a missing id is not found", func() {
				So(missing.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(missing).Code, ShouldEqual, "not_found")
			})
		})

		Convey("When creating an intern", func() {
			Convey("And the body is valid", func() {
				w := do(mux, "POST", "/interns", `{"name":"Bea","email":"bea@example.com","department":"Data","score":72}`)
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Body.String(), ShouldContainSubstring, `"tier":"good"`)
			})

			Convey("And the body is not JSON", func() {
				w := do(mux, "POST", "/interns", `{broken`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And the service rejects the form", func() {
				deps.writeErr = &service.ValidationError{Fields: map[string]string{"email": "must be a valid email"}}
				w := do(mux, "POST", "/interns", `{"name":"Bea","email":"x","department":"Data"}`)
				body := decodeError(w)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(body.Fields["email"], ShouldEqual, "must be a valid email")
			})
		})

		Convey("When updating an intern", func() {
			w := do(mux, "PUT", "/interns/i-1", `{"name":"Asha R","email":"asha@example.com","department":"Platform"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Asha R")
		})

		Convey("When deleting interns", func() {
			So(do(mux, "DELETE", "/interns/i-1", "").Code, ShouldEqual, http.StatusNoContent)
			So(do(mux, "DELETE", "/interns/i-1", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When refreshing the roster", func() {
			w := do(mux, "POST", "/interns/refresh", "")
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(deps.refreshed, ShouldEqual, 1)
		})
	})
}

func TestLORHandler(t *testing.T) {
	Convey("Given the LOR endpoints", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When a LOR is triggered twice", func() {
			first := do(mux, "POST", "/interns/i-1/lor/generate", "")
			second := do(mux, "POST", "/interns/i-1/lor/generate", "")

			Convey("Then the first is accepted and the second is a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(first.Header().Get("Location"), ShouldEqual, "/lor/jobs/job-generate:i-1")
				So(second.Code, ShouldEqual, http.StatusOK)
				So(second.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			})

			Convey("And the job can be looked up", func() {
				w := do(mux, "GET", "/lor/jobs/job-generate:i-1", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"queued"`)
			})
		})

		Convey("When the caller sends an idempotency key", func() {
			do(mux, "POST", "/interns/i-1/lor/send", "", "Idempotency-Key", " abc ")
			So(deps.lastKey, ShouldEqual, "abc")
		})

		Convey("When the service refuses the trigger", func() {
			cases := []struct {
				err  error
				code int
				name string
			}{
				{fmt.Errorf("%w: open discipline issue", service.ErrNotEligible), http.StatusConflict, "not_eligible"},
				{fmt.Errorf("%w: queue full", service.ErrBackpressure), http.StatusTooManyRequests, "backpressure"},
				{fmt.Errorf("%w: \"print\"", service.ErrInvalidAction), http.StatusBadRequest, "bad_request"},
				{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
				{backend.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
			}
			for _, tc := range cases {
				deps.triggerErr = tc.err
				w := do(mux, "POST", "/interns/i-1/lor/generate", "")
				So(w.Code, ShouldEqual, tc.code)
				So(decodeError(w).Code, ShouldEqual, tc.name)
			}
		})

		Convey("When an unknown job is requested", func() {
			w := do(mux, "GET", "/lor/jobs/missing", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRankingsHandler(t *testing.T) {
	Convey("Given the rankings endpoint capped at 50", t, func() {
		deps := newMockDependencies()
		deps.entries = []types.Entry{{Rank: 1, ID: "i-1", Name: "Asha", Bucket: model.BucketGold}}
		mux := newMux(deps)

		Convey("When no limit is given", func() {
			w := do(mux, "GET", "/rankings", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastLim, ShouldEqual, 10)
			So(w.Body.String(), ShouldContainSubstring, `"count":1`)
		})

		Convey("When the limit is invalid", func() {
			So(do(mux, "GET", "/rankings?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, "GET", "/rankings?limit=ten", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit exceeds the cap", func() {
			w := do(mux, "GET", "/rankings?limit=51", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w).Code, ShouldEqual, "limit_exceeded")
		})
	})
}

func TestTiersHandler(t *testing.T) {
	Convey("Given the tier endpoints", t, func() {
		mux := newMux(newMockDependencies())

		Convey("When reading the table", func() {
			var body struct {
				Tiers []tier.Band `json:"tiers"`
			}
			w := do(mux, "GET", "/tiers", "")
			So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
			So(len(body.Tiers), ShouldEqual, 4)
			So(body.Tiers[0].Tier, ShouldEqual, tier.Excellent)
		})

		Convey("When classifying scores", func() {
			cases := map[string]string{
				"/tiers/classify?score=72":  `"tier":"good"`,
				"/tiers/classify?score=85":  `"tier":"excellent"`,
				"/tiers/classify?score=":    `"tier":"unrated"`,
				"/tiers/classify":           `"tier":"unrated"`,
				"/tiers/classify?score=abc": `"tier":"unrated"`,
				"/tiers/classify?score=-5":  `"tier":"needs_improvement"`,
			}
			for target, want := range cases {
				w := do(mux, "GET", target, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, want)
			}
		})
	})
}

func TestRequestContext(t *testing.T) {
	Convey("Given the request context middleware", t, func() {
		deps := newMockDependencies()
		h := api.Handler(newMux(deps))

		Convey("When no request id is sent", func() {
			w := do(h, "GET", "/interns", "")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("When the caller sends a request id and a bearer token", func() {
			w := do(h, "GET", "/interns", "", api.RequestIDHeader, "req-1", "Authorization", "Bearer tok-123")
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-1")
			So(deps.lastToken, ShouldEqual, "tok-123")
		})

		Convey("When the client accepts gzip", func() {
			w := do(h, "GET", "/dashboard", "", "Accept-Encoding", "gzip")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Encoding"), ShouldEqual, "gzip")
		})
	})
}
