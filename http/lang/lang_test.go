package lang

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/flow"
)

func TestMatch(t *testing.T) {
	for _, tc := range []struct {
		header string
		want   string
	}{
		{"", "en"},
		{"fr-CA,fr;q=0.9,en;q=0.8", "fr"},
		{"en-US,en;q=0.9", "en"},
		{"de-DE", "en"},
		{"not a language!!", "en"},
	} {
		if want, have := tc.want, Match(tc.header); want != have {
			t.Errorf("%q: want: %v, have: %v", tc.header, want, have)
		}
	}
}

func TestMiddleware(t *testing.T) {
	var seen string
	mux := flow.New()
	mux.Use(Middleware)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
	})
	mux.Handle("/:lang/page", h, "GET")
	mux.Handle("/page", h, "GET")

	for _, tc := range []struct {
		path   string
		header string
		status int
		want   string
	}{
		{"/fr/page", "en", http.StatusOK, "fr"},
		{"/en/page", "fr", http.StatusOK, "en"},
		{"/de/page", "", http.StatusNotFound, ""},
		{"/page", "fr-CA", http.StatusOK, "fr"},
	} {
		seen = ""
		req := httptest.NewRequest("GET", tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Accept-Language", tc.header)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if want, have := tc.status, rec.Code; want != have {
			t.Errorf("%s: status: want: %v, have: %v", tc.path, want, have)
		}
		if want, have := tc.want, seen; want != have {
			t.Errorf("%s: lang: want: %v, have: %v", tc.path, want, have)
		}
	}
}

func TestFromContextMissing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := FromContext(req.Context()); ok {
		t.Error("expected no language")
	}
}
