package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/summitlift/elevator-site/internal/content"
	"github.com/summitlift/elevator-site/internal/redirects"
	"github.com/summitlift/elevator-site/pkg/logging"
)

// SettingsInvalidator drops cached form settings so the next submission
// reads the content store again.
type SettingsInvalidator interface {
	Invalidate(ctx context.Context, form string) error
}

var _ SettingsInvalidator = (*content.CachedSource)(nil)

type healthResponse struct {
	Status    string `json:"status"`
	Redirects int    `json:"redirects"`
}

func healthCheck(holder *redirects.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		if holder != nil {
			resp.Redirects = holder.Load().Len()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type redirectsResponse struct {
	Redirects []redirects.Rule `json:"redirects"`
	Count     int              `json:"count"`
}

// listRedirects returns the rule table currently being served.
func listRedirects(holder *redirects.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules := holder.Load().Rules()
		writeJSON(w, http.StatusOK, redirectsResponse{Redirects: rules, Count: len(rules)})
	}
}

func refreshSettings(cache SettingsInvalidator, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := chi.URLParam(r, "form")
		if form != content.FormContact && form != content.FormCatalog {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown form"})
			return
		}
		if err := cache.Invalidate(r.Context(), form); err != nil {
			logger.Error("failed to invalidate form settings", "form", form, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to refresh settings"})
			return
		}
		logger.Info("form settings cache invalidated", "form", form)
		writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed", "form": form})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
