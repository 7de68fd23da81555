package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/internboard/internal/adapters/backend"
	"github.com/okian/internboard/internal/domain/model"
)

func signed(exp time.Time) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{ExpiresAt: exp.Unix()}).SignedString([]byte("test-key"))
	if err != nil {
		panic(err)
	}
	return tok
}

// fakeBackend serves a tiny in-memory roster and counts logins.
type fakeBackend struct {
	logins   atomic.Int32
	token    atomic.Value
	lastAuth atomic.Value
	lorCalls atomic.Int32
}

func newFakeBackend() (*fakeBackend, *httptest.Server) {
	fb := &fakeBackend{}
	fb.token.Store(signed(time.Now().Add(time.Hour)))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
			return
		}
		fb.logins.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": fb.token.Load().(string)})
	})
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			fb.lastAuth.Store(auth)
			if auth == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("GET /interns", authed(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"interns":[{"id":"1","name":"Asha","score":91,"status":"Approve"},{"id":"2","name":"Ben","status":"Pending"}]}`))
	}))
	mux.HandleFunc("GET /interns/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1":
			_, _ = w.Write([]byte(`{"id":"1","name":"Asha","score":91,"status":"Approve"}`))
		case "boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"intern not found"}`))
		}
	}))
	mux.HandleFunc("POST /interns", authed(func(w http.ResponseWriter, r *http.Request) {
		var in model.InternInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"intern": model.Intern{ID: "3", Name: in.Name, Email: in.Email}})
	}))
	mux.HandleFunc("PUT /interns/{id}", authed(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"email taken"}`))
	}))
	mux.HandleFunc("DELETE /interns/{id}", authed(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /rankings", authed(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"gold":[{"id":"1","score":91}],"silver":[],"bronze":[{"id":"2","score":55}]}`))
	}))
	mux.HandleFunc("POST /lor/{id}/{action}", authed(func(w http.ResponseWriter, r *http.Request) {
		fb.lorCalls.Add(1)
		_ = json.NewEncoder(w).Encode(backend.LORResult{Message: r.PathValue("action") + " ok"})
	}))
	return fb, httptest.NewServer(mux)
}

func TestNew(t *testing.T) {
	Convey("Given an empty base URL", t, func() {
		_, err := backend.New("  ")
		So(err, ShouldEqual, backend.ErrNoBaseURL)
	})

	Convey("Given a base URL with a trailing slash", t, func() {
		c, err := backend.New("http://example.com/api/")
		So(err, ShouldBeNil)
		So(c.BaseURL(), ShouldEqual, "http://example.com/api")
	})
}

func TestClient_Interns(t *testing.T) {
	Convey("Given a client with credentials", t, func() {
		fb, srv := newFakeBackend()
		defer srv.Close()
		c, err := backend.New(srv.URL, backend.WithCredentials("admin@example.com", "secret"))
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When listing interns", func() {
			interns, err := c.ListInterns(ctx)

			Convey("Then it logs in once and decodes the wrapped list", func() {
				So(err, ShouldBeNil)
				So(len(interns), ShouldEqual, 2)
				So(*interns[0].Score, ShouldEqual, 91)
				So(interns[1].Score, ShouldBeNil)
				So(fb.logins.Load(), ShouldEqual, 1)
			})

			Convey("And the held token is reused", func() {
				_, err := c.Rankings(ctx)
				So(err, ShouldBeNil)
				So(fb.logins.Load(), ShouldEqual, 1)
			})
		})

		Convey("When fetching a missing intern", func() {
			_, err := c.GetIntern(ctx, "404")

			Convey("Then ErrNotFound is returned with the backend message", func() {
				So(errors.Is(err, backend.ErrNotFound), ShouldBeTrue)
				So(backend.IsNotFound(err), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "intern not found")
			})
		})

		Convey("When the backend fails", func() {
			_, err := c.GetIntern(ctx, "boom")
			So(errors.Is(err, backend.ErrUpstream), ShouldBeTrue)
		})

		Convey("When the id is empty", func() {
			_, err := c.GetIntern(ctx, "")
			So(errors.Is(err, backend.ErrEmptyID), ShouldBeTrue)
		})

		Convey("When creating, updating and deleting", func() {
			created, err := c.CreateIntern(ctx, model.InternInput{Name: "Cy", Email: "cy@example.com", Department: "Data"})
			So(err, ShouldBeNil)
			So(created.ID, ShouldEqual, "3")
			So(created.Name, ShouldEqual, "Cy")

			_, err = c.UpdateIntern(ctx, "3", model.InternInput{Name: "Cy"})
			So(errors.Is(err, backend.ErrBadRequest), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "email taken")

			So(c.DeleteIntern(ctx, "3"), ShouldBeNil)
		})

		Convey("When fetching rankings", func() {
			b, err := c.Rankings(ctx)
			So(err, ShouldBeNil)
			So(b.Len(), ShouldEqual, 2)
			So(b.Bronze[0].ID, ShouldEqual, "2")
		})

		Convey("When running LOR actions", func() {
			res, err := c.GenerateLOR(ctx, "1")
			So(err, ShouldBeNil)
			So(res.Message, ShouldEqual, "generate ok")

			res, err = c.RunLOR(ctx, "1", model.LORSend)
			So(err, ShouldBeNil)
			So(res.Message, ShouldEqual, "send ok")

			_, err = c.RunLOR(ctx, "1", model.LORAction("print"))
			So(errors.Is(err, backend.ErrBadRequest), ShouldBeTrue)
			So(fb.lorCalls.Load(), ShouldEqual, 2)
		})
	})
}

func TestClient_Auth(t *testing.T) {
	Convey("Given a client holding an expired token", t, func() {
		fb, srv := newFakeBackend()
		defer srv.Close()
		c, _ := backend.New(srv.URL,
			backend.WithToken(signed(time.Now().Add(-time.Minute))),
			backend.WithCredentials("admin@example.com", "secret"))

		Convey("When a call is made", func() {
			_, err := c.ListInterns(context.Background())

			Convey("Then it logs in before sending the request", func() {
				So(err, ShouldBeNil)
				So(fb.logins.Load(), ShouldEqual, 1)
				So(c.Token(), ShouldEqual, fb.token.Load().(string))
			})
		})
	})

	Convey("Given concurrent calls on an expired token", t, func() {
		fb, srv := newFakeBackend()
		defer srv.Close()
		c, _ := backend.New(srv.URL,
			backend.WithToken(signed(time.Now().Add(-time.Minute))),
			backend.WithCredentials("admin@example.com", "secret"))

		const callers = 8
		errs := make(chan error, callers)
		var wg sync.WaitGroup
		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.ListInterns(context.Background())
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		Convey("Then a single login serves all of them", func() {
			for err := range errs {
				So(err, ShouldBeNil)
			}
			So(fb.logins.Load(), ShouldEqual, 1)
		})
	})

	Convey("Given a caller token on the context", t, func() {
		fb, srv := newFakeBackend()
		defer srv.Close()
		c, _ := backend.New(srv.URL, backend.WithCredentials("admin@example.com", "secret"))
		ctx := backend.ContextWithToken(context.Background(), "caller-token")

		_, err := c.ListInterns(ctx)

		Convey("Then it is sent instead of the service login", func() {
			So(err, ShouldBeNil)
			So(fb.logins.Load(), ShouldEqual, 0)
			So(fb.lastAuth.Load(), ShouldEqual, "Bearer caller-token")
		})
	})

	Convey("Given wrong credentials", t, func() {
		_, srv := newFakeBackend()
		defer srv.Close()
		c, _ := backend.New(srv.URL)

		_, err := c.Login(context.Background(), "admin@example.com", "nope")

		Convey("Then ErrUnauthorized is returned", func() {
			So(errors.Is(err, backend.ErrUnauthorized), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "bad credentials")
		})
	})

	Convey("Given no token and no credentials", t, func() {
		_, srv := newFakeBackend()
		defer srv.Close()
		c, _ := backend.New(srv.URL)

		_, err := c.ListInterns(context.Background())

		Convey("Then the backend rejection surfaces", func() {
			So(errors.Is(err, backend.ErrUnauthorized), ShouldBeTrue)
		})
	})
}

func TestTokenExpired(t *testing.T) {
	Convey("Given tokens with and without exp", t, func() {
		now := time.Now()
		So(backend.TokenExpired(signed(now.Add(-time.Second)), now), ShouldBeTrue)
		So(backend.TokenExpired(signed(now.Add(time.Hour)), now), ShouldBeFalse)
		So(backend.TokenExpired("opaque-token", now), ShouldBeFalse)
	})
}

func TestClient_Timeout(t *testing.T) {
	Convey("Given a slow backend", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()
		c, _ := backend.New(srv.URL, backend.WithToken("t"), backend.WithTimeout(20*time.Millisecond))

		_, err := c.ListInterns(context.Background())

		Convey("Then the call fails as an upstream error", func() {
			So(errors.Is(err, backend.ErrUpstream), ShouldBeTrue)
		})
	})
}
