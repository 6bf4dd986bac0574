package submissions

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/summitlift/elevator-site/pkg/logging"
)

// Lister lists archived submissions.
type Lister interface {
	List(ctx context.Context, filter ListFilter) ([]*Submission, error)
}

// Handler serves the admin listing of archived submissions.
type Handler struct {
	store  Lister
	logger *logging.Logger
}

// NewHandler creates a submissions handler.
func NewHandler(store Lister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// ListResponse is the response for listing submissions.
type ListResponse struct {
	Submissions []*Submission `json:"submissions"`
	Count       int           `json:"count"`
	Offset      int           `json:"offset"`
	Limit       int           `json:"limit"`
}

// List handles GET /admin/submissions requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Limit:  DefaultListLimit,
		Offset: 0,
		Form:   r.URL.Query().Get("form"),
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = min(limit, MaxListLimit)
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	subs, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list submissions", "error", err, "form", filter.Form)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "failed to list submissions"})
		return
	}
	if subs == nil {
		subs = []*Submission{}
	}

	response := ListResponse{
		Submissions: subs,
		Count:       len(subs),
		Offset:      filter.Offset,
		Limit:       filter.Limit,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}
