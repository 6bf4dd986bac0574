package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/summitlift/elevator-site/pkg/logging"
)

// DefaultTimeout bounds a single spreadsheet append.
const DefaultTimeout = 10 * time.Second

var tracer = otel.Tracer("elevator-site.internal.sheets")

// ErrRejected is returned when the endpoint answers but reports a failure.
var ErrRejected = errors.New("sheets: append rejected")

// WebhookWriter posts rows as JSON to a script endpoint (e.g. an Apps Script
// web app bound to the sheet).
type WebhookWriter struct {
	client  *http.Client
	timeout time.Duration
	logger  *logging.Logger
}

// NewWebhookWriter returns a writer with the given per-call timeout
// (DefaultTimeout when zero).
func NewWebhookWriter(client *http.Client, timeout time.Duration, logger *logging.Logger) *WebhookWriter {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookWriter{client: client, timeout: timeout, logger: logger}
}

type webhookResult struct {
	Result  string `json:"result"`
	Status  string `json:"status"`
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (r webhookResult) failed() bool {
	return strings.EqualFold(r.Result, "error") ||
		strings.EqualFold(r.Status, "error") ||
		(r.Success != nil && !*r.Success)
}

// Append posts row to endpoint. The call is abandoned after the timeout.
func (w *WebhookWriter) Append(ctx context.Context, endpoint string, row Row) error {
	ctx, span := tracer.Start(ctx, "sheets.webhook.append")
	defer span.End()
	span.SetAttributes(attribute.Int("sheets.fields", len(row.Fields)))

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	payload, err := json.Marshal(row)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("sheets: encode row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("sheets: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("sheets: post row: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
		span.RecordError(err)
		return err
	}

	var result webhookResult
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &result) == nil && result.failed() {
		detail := result.Error
		if detail == "" {
			detail = result.Message
		}
		err := fmt.Errorf("%w: %s", ErrRejected, detail)
		span.RecordError(err)
		return err
	}

	w.logger.Debug("sheets: row appended via webhook", "status", resp.StatusCode)
	return nil
}

var _ Writer = (*WebhookWriter)(nil)
