package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_OriginMatching(t *testing.T) {
	allowed := []string{"https://www.summitlift.com/", "https://*.preview.summitlift.com"}
	cases := []struct {
		origin string
		want   bool
	}{
		{"https://www.summitlift.com", true},
		{"https://pr-12.preview.summitlift.com", true},
		{"https://preview.summitlift.com", false},
		{"http://pr-12.preview.summitlift.com", false},
		{"https://evil.example", false},
	}
	for _, tc := range cases {
		t.Run(tc.origin, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()

			CORS(allowed)(okHandler(&called)).ServeHTTP(rec, req)

			if !called {
				t.Fatal("simple requests always reach the handler")
			}
			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tc.want && got != tc.origin {
				t.Fatalf("expected allow origin %q, got %q", tc.origin, got)
			}
			if !tc.want && got != "" {
				t.Fatalf("expected no allow origin header, got %q", got)
			}
		})
	}
}

func TestCORS_AllowsAnyOrigin(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://random.example")
	rec := httptest.NewRecorder()

	CORS([]string{"*"})(okHandler(&called)).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://random.example" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != corsAllowedMethods {
		t.Fatalf("unexpected allow methods %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	cases := []struct {
		origin string
		status int
	}{
		{"https://www.summitlift.com", http.StatusNoContent},
		{"https://evil.example", http.StatusForbidden},
	}
	for _, tc := range cases {
		called := false
		req := httptest.NewRequest(http.MethodOptions, "/api/catalog", nil)
		req.Header.Set("Origin", tc.origin)
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()

		CORS([]string{"https://www.summitlift.com"})(okHandler(&called)).ServeHTTP(rec, req)

		if called {
			t.Fatalf("%s: handler must not run for a preflight", tc.origin)
		}
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.origin, tc.status, rec.Code)
		}
	}
}
