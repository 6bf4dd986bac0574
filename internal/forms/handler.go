package forms

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/summitlift/elevator-site/pkg/logging"
)

const defaultMaxBodyBytes = 64 << 10

// Submitter runs a raw submission through the pipeline.
type Submitter interface {
	Submit(ctx context.Context, kind Kind, raw []byte) (*Response, error)
}

// Handler exposes the form endpoints.
type Handler struct {
	pipeline     Submitter
	logger       *logging.Logger
	maxBodyBytes int64
}

// NewHandler creates a forms handler.
func NewHandler(pipeline Submitter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{pipeline: pipeline, logger: logger, maxBodyBytes: defaultMaxBodyBytes}
}

// SubmitContact handles POST /api/contact requests
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, KindContact)
}

// SubmitCatalog handles POST /api/catalog requests
func (h *Handler) SubmitCatalog(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, KindCatalog)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, kind Kind) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("form handler panic", "form", kind, "panic", rec)
			writeError(w, http.StatusInternalServerError, MsgUnexpected)
		}
	}()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.logger.Error("failed to read form body", "form", kind, "error", err)
		writeError(w, http.StatusInternalServerError, MsgUnexpected)
		return
	}

	resp, err := h.pipeline.Submit(r.Context(), kind, raw)
	if err != nil {
		var fe *Error
		if errors.As(err, &fe) {
			writeError(w, fe.Status, fe.Message)
			return
		}
		h.logger.Error("form submission error", "form", kind, "error", err)
		writeError(w, http.StatusInternalServerError, MsgUnexpected)
		return
	}

	h.logger.Info("form submission accepted", "form", kind)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
