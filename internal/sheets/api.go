package sheets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/summitlift/elevator-site/pkg/logging"
)

var spreadsheetIDPattern = regexp.MustCompile(`docs\.google\.com/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// ErrNotSpreadsheetURL is returned when a URL does not name a Google sheet.
var ErrNotSpreadsheetURL = errors.New("sheets: not a spreadsheet url")

// SpreadsheetID extracts the document id from a docs.google.com sheet URL.
func SpreadsheetID(rawURL string) (string, error) {
	m := spreadsheetIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", ErrNotSpreadsheetURL
	}
	return m[1], nil
}

// IsSpreadsheetURL reports whether rawURL names a Google sheet directly.
func IsSpreadsheetURL(rawURL string) bool {
	return spreadsheetIDPattern.MatchString(rawURL)
}

// APIWriter appends rows through the Google Sheets API using a service
// account that has been shared on the target sheet.
type APIWriter struct {
	svc        *gsheets.Service
	valueRange string
	timeout    time.Duration
	logger     *logging.Logger
}

// APIConfig configures an APIWriter.
type APIConfig struct {
	// CredentialsJSON is a service account key.
	CredentialsJSON []byte
	// Range is the A1 range rows are appended after, e.g. "Submissions!A1".
	Range           string
	Timeout         time.Duration
}

// NewAPIWriter authenticates with the service account key and builds a
// Sheets client.
func NewAPIWriter(ctx context.Context, cfg APIConfig, logger *logging.Logger) (*APIWriter, error) {
	creds, err := google.CredentialsFromJSON(ctx, cfg.CredentialsJSON, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: load credentials: %w", err)
	}
	return NewAPIWriterWithOptions(ctx, cfg, logger, option.WithCredentials(creds))
}

// NewAPIWriterWithOptions builds a writer from explicit client options.
func NewAPIWriterWithOptions(ctx context.Context, cfg APIConfig, logger *logging.Logger, opts ...option.ClientOption) (*APIWriter, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Range == "" {
		cfg.Range = "Sheet1!A1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &APIWriter{svc: svc, valueRange: cfg.Range, timeout: cfg.Timeout, logger: logger}, nil
}

// Append adds row below the last row of the configured range.
func (w *APIWriter) Append(ctx context.Context, endpoint string, row Row) error {
	ctx, span := tracer.Start(ctx, "sheets.api.append")
	defer span.End()

	id, err := SpreadsheetID(endpoint)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.String("sheets.spreadsheet_id", id))

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	vr := &gsheets.ValueRange{Values: [][]any{row.Values()}}
	resp, err := w.svc.Spreadsheets.Values.Append(id, w.valueRange, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("sheets: append via api: %w", err)
	}

	updated := ""
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRange
	}
	w.logger.Debug("sheets: row appended via api", "spreadsheet_id", id, "range", updated)
	return nil
}

var _ Writer = (*APIWriter)(nil)
