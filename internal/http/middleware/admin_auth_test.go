package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func serveAdmin(t *testing.T, secret, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/submissions", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	called := false
	AdminJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := AdminClaimsFromContext(r.Context())
		if !ok || claims.Subject != "ops" {
			t.Fatalf("expected admin claims in context, got %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, called
}

func TestAdminJWT_Rejections(t *testing.T) {
	expired := signedToken(t, jwt.SigningMethodHS256, "secret", jwt.NewNumericDate(time.Now().Add(-time.Minute)))
	noExpiry := signedToken(t, jwt.SigningMethodHS256, "secret", nil)

	cases := []struct {
		name   string
		secret string
		header string
		msg    string
	}{
		{name: "auth disabled", secret: "", header: "Bearer " + validToken(t, "secret"), msg: "admin auth disabled"},
		{name: "missing header", secret: "secret", msg: "missing authorization header"},
		{name: "wrong scheme", secret: "secret", header: "Basic abc", msg: "missing authorization header"},
		{name: "wrong secret", secret: "secret", header: "Bearer " + validToken(t, "wrong"), msg: "invalid token"},
		{name: "expired", secret: "secret", header: "Bearer " + expired, msg: "invalid token"},
		{name: "no expiry", secret: "secret", header: "Bearer " + noExpiry, msg: "invalid token"},
		{name: "garbage", secret: "secret", header: "Bearer not.a.jwt", msg: "invalid token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, called := serveAdmin(t, tc.secret, tc.header)
			if called {
				t.Fatal("handler must not be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, body["error"])
			}
		})
	}
}

func TestAdminJWT_ValidToken(t *testing.T) {
	rec, called := serveAdmin(t, "secret", "Bearer "+validToken(t, "secret"))
	if !called {
		t.Fatal("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func validToken(t *testing.T, secret string) string {
	return signedToken(t, jwt.SigningMethodHS256, secret, jwt.NewNumericDate(time.Now().Add(5*time.Minute)))
}

func signedToken(t *testing.T, method jwt.SigningMethod, secret string, exp *jwt.NumericDate) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "ops", ExpiresAt: exp}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
