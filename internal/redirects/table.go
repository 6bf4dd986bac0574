package redirects

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/summitlift/elevator-site/internal/observability/metrics"
)

// Table is an immutable compiled redirect table indexed by source path.
type Table struct {
	rules    []Rule
	bySource map[string][]int
}

// NewTable indexes rules for lookup. Rule order is preserved.
func NewTable(rules []Rule) *Table {
	t := &Table{
		rules:    append([]Rule(nil), rules...),
		bySource: make(map[string][]int, len(rules)),
	}
	for i, r := range t.rules {
		path := normalizePath(r.Source)
		t.bySource[path] = append(t.bySource[path], i)
	}
	return t
}

// Len returns the number of rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Rules returns a copy of the rules in table order.
func (t *Table) Rules() []Rule {
	if t == nil {
		return nil
	}
	return append([]Rule(nil), t.rules...)
}

// Match returns the first rule whose source equals the request path and whose
// matchers are all satisfied by the request's query string.
func (t *Table) Match(r *http.Request) (Rule, bool) {
	if t == nil || len(t.rules) == 0 {
		return Rule{}, false
	}
	candidates := t.bySource[normalizePath(r.URL.Path)]
	if len(candidates) == 0 {
		return Rule{}, false
	}
	query := r.URL.Query()
	for _, i := range candidates {
		rule := t.rules[i]
		if matchersSatisfied(rule.Matchers, query) {
			return rule, true
		}
	}
	return Rule{}, false
}

// matchersSatisfied requires each key to be present; a non-empty value must
// also match exactly.
func matchersSatisfied(matchers []Matcher, query map[string][]string) bool {
	for _, m := range matchers {
		values, ok := query[m.Key]
		if !ok {
			return false
		}
		if m.Value == "" {
			continue
		}
		found := false
		for _, v := range values {
			if v == m.Value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func normalizePath(p string) string {
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		return p[:len(p)-1]
	}
	return p
}

// Holder publishes the active table to concurrent readers.
type Holder struct {
	table   atomic.Pointer[Table]
	metrics *metrics.RedirectMetrics
}

// NewHolder returns a holder serving the given rules.
func NewHolder(rules []Rule, m *metrics.RedirectMetrics) *Holder {
	h := &Holder{metrics: m}
	h.Store(NewTable(rules))
	return h
}

// Load returns the active table.
func (h *Holder) Load() *Table {
	return h.table.Load()
}

// Store swaps in a new table.
func (h *Holder) Store(t *Table) {
	h.table.Store(t)
	h.metrics.SetRules(t.Len())
}

// Middleware answers matching requests with 308 Permanent Redirect.
// Rules without matchers carry the request's query string over when the
// destination has none of its own.
func Middleware(h *Holder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := h.Load().Match(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			location := rule.Destination
			if len(rule.Matchers) == 0 && r.URL.RawQuery != "" && !strings.Contains(location, "?") {
				location += "?" + r.URL.RawQuery
			}
			h.metrics.ObserveServed()
			http.Redirect(w, r, location, http.StatusPermanentRedirect)
		})
	}
}
