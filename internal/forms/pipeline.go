// Package forms runs contact and catalog form submissions through
// validation, settings lookup and delivery to the spreadsheet and email sinks.
package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/summitlift/elevator-site/internal/content"
	"github.com/summitlift/elevator-site/internal/notify"
	"github.com/summitlift/elevator-site/internal/observability/metrics"
	"github.com/summitlift/elevator-site/internal/sheets"
	"github.com/summitlift/elevator-site/internal/submissions"
	"github.com/summitlift/elevator-site/pkg/logging"
)

var tracer = otel.Tracer("elevator-site.internal.forms")

// Archive keeps a copy of accepted submissions.
type Archive interface {
	Record(ctx context.Context, sub *submissions.Submission) error
}

// PipelineConfig wires the pipeline's collaborators. Settings, Sheets and
// Mailer are required; the rest are optional.
type PipelineConfig struct {
	Settings        content.Source
	Sheets          sheets.Writer
	Mailer          notify.SenderFactory
	Archive         Archive
	Policy          Policy
	Metrics         *metrics.FormsMetrics
	Logger          *logging.Logger
	Now             func() time.Time
	DefaultFromName string
}

// Pipeline handles form submissions. It holds no per-request state and is
// safe for concurrent use.
type Pipeline struct {
	settings        content.Source
	sheets          sheets.Writer
	mailer          notify.SenderFactory
	archive         Archive
	policy          Policy
	metrics         *metrics.FormsMetrics
	logger          *logging.Logger
	now             func() time.Time
	defaultFromName string
}

// NewPipeline validates cfg and returns a pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Settings == nil {
		return nil, errors.New("forms: settings source is required")
	}
	if cfg.Sheets == nil {
		return nil, errors.New("forms: spreadsheet writer is required")
	}
	if cfg.Mailer == nil {
		return nil, errors.New("forms: mailer is required")
	}
	if cfg.Policy == nil {
		cfg.Policy = DefaultPolicy
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultFromName == "" {
		cfg.DefaultFromName = notify.DefaultFromName
	}
	return &Pipeline{
		settings:        cfg.Settings,
		sheets:          cfg.Sheets,
		mailer:          cfg.Mailer,
		archive:         cfg.Archive,
		policy:          cfg.Policy,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
		now:             cfg.Now,
		defaultFromName: cfg.DefaultFromName,
	}, nil
}

// Response is the success body returned to the caller. CatalogURL is only
// serialized for catalog requests, as null when no document is configured.
type Response struct {
	Success    bool
	Message    string
	CatalogURL *string
	Kind       Kind
}

func (r Response) MarshalJSON() ([]byte, error) {
	if r.Kind == KindCatalog {
		return json.Marshal(struct {
			Success    bool    `json:"success"`
			Message    string  `json:"message"`
			CatalogURL *string `json:"catalogUrl"`
		}{r.Success, r.Message, r.CatalogURL})
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{r.Success, r.Message})
}

// Submit runs one submission. The returned error is a *Error for validation
// and configuration failures; any other error is unexpected and must be
// reported to the caller generically.
func (p *Pipeline) Submit(ctx context.Context, kind Kind, raw []byte) (*Response, error) {
	started := p.now()
	ctx, span := tracer.Start(ctx, "forms.submit", trace.WithAttributes(attribute.String("forms.kind", string(kind))))
	defer span.End()

	resp, err := p.submit(ctx, kind, raw)

	result := "success"
	var fe *Error
	switch {
	case err == nil:
	case errors.As(err, &fe) && fe.Status == http.StatusBadRequest:
		result = "invalid"
	case errors.As(err, &fe):
		result = "config_error"
	default:
		result = "error"
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	p.metrics.ObserveSubmission(string(kind), result, p.now().Sub(started).Seconds())
	return resp, err
}

func (p *Pipeline) submit(ctx context.Context, kind Kind, raw []byte) (*Response, error) {
	sub, err := Decode(kind, raw)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			p.logger.Info("form submission rejected", "form", kind, "field", ve.Field, "reason", ve.Message)
			return nil, badRequest(ve)
		}
		return nil, err
	}
	if err := sub.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			p.logger.Info("form submission rejected", "form", kind, "field", ve.Field, "reason", ve.Message)
			return nil, badRequest(ve)
		}
		return nil, err
	}

	settings, err := p.settings.FormSettings(ctx, string(kind))
	if err != nil {
		return nil, fmt.Errorf("forms: load %s settings: %w", kind, err)
	}
	if settings == nil {
		p.logger.Error("form settings not configured", "form", kind)
		return nil, configError(MsgSettingsMissing, ErrSettingsMissing)
	}
	if settings.SpreadsheetURL == "" && settings.Email == nil {
		p.logger.Warn("form has no delivery channel configured", "form", kind)
	}

	received := p.now()
	outcomes := p.deliver(ctx, sub, settings, received)
	if fatal := p.policy.Aggregate(outcomes); fatal != nil {
		p.logger.Error("form submission failed", "form", kind, "error", logging.RedactError(fatal.Err))
		return nil, fatal
	}

	p.archiveSubmission(ctx, sub, outcomes, received)

	resp := &Response{Success: true, Kind: kind}
	switch kind {
	case KindCatalog:
		resp.Message = MsgCatalogSuccess
		if settings.CatalogURL != "" {
			url := settings.CatalogURL
			resp.CatalogURL = &url
		}
	default:
		resp.Message = MsgContactSuccess
	}
	return resp, nil
}

// deliver runs the spreadsheet and email sinks concurrently. Neither waits on
// or cancels the other; outcomes are returned in sink order.
func (p *Pipeline) deliver(ctx context.Context, sub Submission, settings *content.FormSettings, received time.Time) []Outcome {
	outcomes := make([]Outcome, 2)
	var g errgroup.Group
	g.Go(func() error {
		outcomes[0] = p.appendRow(ctx, sub, settings, received)
		return nil
	})
	g.Go(func() error {
		outcomes[1] = p.sendEmail(ctx, sub, settings, received)
		return nil
	})
	_ = g.Wait()

	for _, o := range outcomes {
		p.metrics.ObserveSink(string(o.Sink), string(o.Status))
		if o.Status == StatusFailed {
			p.logger.Error("form sink failed", "form", sub.Kind(), "sink", o.Sink, "error", logging.RedactError(o.Err))
		}
	}
	return outcomes
}

func (p *Pipeline) appendRow(ctx context.Context, sub Submission, settings *content.FormSettings, received time.Time) Outcome {
	if settings.SpreadsheetURL == "" {
		return skipped(SinkSpreadsheet)
	}
	row := sheets.Row{Timestamp: received, Fields: sub.Fields()}
	if err := p.sheets.Append(ctx, settings.SpreadsheetURL, row); err != nil {
		return failed(SinkSpreadsheet, err)
	}
	return delivered(SinkSpreadsheet)
}

func (p *Pipeline) sendEmail(ctx context.Context, sub Submission, settings *content.FormSettings, received time.Time) Outcome {
	cfg := settings.Email
	if cfg == nil {
		return skipped(SinkEmail)
	}
	recipients := cfg.RecipientEmail.Normalize()
	if len(recipients) == 0 {
		return failed(SinkEmail, ErrNoRecipients)
	}

	sender, err := p.mailer(notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Secure:   cfg.Secure,
		User:     cfg.User,
		Password: cfg.Password,
	})
	if err != nil {
		return failed(SinkEmail, err)
	}

	msg, err := composeEmail(sub, fromAddress(cfg.FromName, p.defaultFromName, cfg.User), recipients, received)
	if err != nil {
		return failed(SinkEmail, err)
	}
	if err := sender.Send(ctx, msg); err != nil {
		return failed(SinkEmail, err)
	}
	return delivered(SinkEmail)
}

func (p *Pipeline) archiveSubmission(ctx context.Context, sub Submission, outcomes []Outcome, received time.Time) {
	if p.archive == nil {
		return
	}
	fields := sub.Fields()
	payload := make(map[string]string, len(fields))
	record := &submissions.Submission{Form: string(sub.Kind()), CreatedAt: received.UTC()}
	for _, f := range fields {
		payload[f.Name] = f.Value
		switch f.Name {
		case "name":
			record.Name = f.Value
		case "email":
			record.Email = f.Value
		case "phone":
			record.Phone = f.Value
		}
	}
	for _, o := range outcomes {
		switch o.Sink {
		case SinkSpreadsheet:
			record.SpreadsheetStatus = string(o.Status)
		case SinkEmail:
			record.EmailStatus = string(o.Status)
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("form archive encode failed", "form", sub.Kind(), "error", err)
		return
	}
	record.Payload = data

	outcome := delivered(SinkArchive)
	if err := p.archive.Record(ctx, record); err != nil {
		outcome = failed(SinkArchive, err)
		p.logger.Error("form sink failed", "form", sub.Kind(), "sink", SinkArchive, "error", logging.RedactError(err))
	}
	p.metrics.ObserveSink(string(outcome.Sink), string(outcome.Status))
}
