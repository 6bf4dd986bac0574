package redirects

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/summitlift/elevator-site/internal/observability/metrics"
)

func testRules(t *testing.T) []Rule {
	t.Helper()
	return Parse([]byte(`[
		{"source": "/products", "destination": "/elevators/home", "query": {"type": "home"}},
		{"source": "/products", "destination": "/elevators/any-ref", "query": {"ref": ""}},
		{"source": "/products", "destination": "/elevators"},
		{"source": "/about-us/", "destination": "/about"},
		{"source": "/", "destination": "/home"}
	]`))
}

func TestTableMatch(t *testing.T) {
	table := NewTable(testRules(t))

	cases := []struct {
		url  string
		want string
		ok   bool
	}{
		{url: "/products?type=home", want: "/elevators/home", ok: true},
		{url: "/products?type=commercial", want: "/elevators", ok: true},
		{url: "/products?ref=newsletter", want: "/elevators/any-ref", ok: true},
		{url: "/products/", want: "/elevators", ok: true},
		{url: "/about-us", want: "/about", ok: true},
		{url: "/", want: "/home", ok: true},
		{url: "/contact", ok: false},
		{url: "/products/extra", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rule, ok := table.Match(req)
			if ok != tc.ok {
				t.Fatalf("match = %v, want %v", ok, tc.ok)
			}
			if ok && rule.Destination != tc.want {
				t.Fatalf("destination = %s, want %s", rule.Destination, tc.want)
			}
		})
	}
}

func TestTableNilAndEmpty(t *testing.T) {
	var nilTable *Table
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	if _, ok := nilTable.Match(req); ok {
		t.Fatal("nil table must not match")
	}
	if nilTable.Len() != 0 {
		t.Fatal("nil table must be empty")
	}
	if _, ok := NewTable(nil).Match(req); ok {
		t.Fatal("empty table must not match")
	}
}

func TestTableRulesReturnsCopy(t *testing.T) {
	table := NewTable(testRules(t))
	rules := table.Rules()
	rules[0].Destination = "/mutated"
	if table.Rules()[0].Destination == "/mutated" {
		t.Fatal("expected Rules to return a copy")
	}
}

func TestMiddlewareRedirects(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewRedirectMetrics(reg)
	holder := NewHolder(testRules(t), m)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := Middleware(holder)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?type=home", nil))
	if rec.Code != http.StatusPermanentRedirect {
		t.Fatalf("expected 308, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/elevators/home" {
		t.Fatalf("unexpected location %q", loc)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about-us?utm_source=mail", nil))
	if loc := rec.Header().Get("Location"); loc != "/about?utm_source=mail" {
		t.Fatalf("expected query to carry over, got %q", loc)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contact", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}

	if got := gatheredValue(t, reg, "site_redirects_served_total"); got != 2 {
		t.Fatalf("expected 2 redirects served, got %v", got)
	}
}

func TestHolderStoreSwapsTable(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewRedirectMetrics(reg)
	holder := NewHolder(nil, m)
	if holder.Load().Len() != 0 {
		t.Fatal("expected empty table")
	}

	holder.Store(NewTable(testRules(t)))
	if holder.Load().Len() != 5 {
		t.Fatalf("expected 5 rules, got %d", holder.Load().Len())
	}
	if got := gatheredValue(t, reg, "site_redirects_rules"); got != 5 {
		t.Fatalf("expected rules gauge 5, got %v", got)
	}
}

func gatheredValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	return 0
}
