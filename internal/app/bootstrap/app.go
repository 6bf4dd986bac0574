package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/summitlift/elevator-site/internal/api/router"
	appconfig "github.com/summitlift/elevator-site/internal/config"
	"github.com/summitlift/elevator-site/internal/forms"
	httpmiddleware "github.com/summitlift/elevator-site/internal/http/middleware"
	"github.com/summitlift/elevator-site/internal/notify"
	"github.com/summitlift/elevator-site/internal/observability/metrics"
	"github.com/summitlift/elevator-site/internal/redirects"
	"github.com/summitlift/elevator-site/internal/submissions"
	"github.com/summitlift/elevator-site/pkg/logging"
)

// Deps carries clients built by the caller. Both may be nil.
type Deps struct {
	S3  redirects.S3GetObjectAPI
	SES notify.SESAPI
	// Registry receives the site metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// App is the assembled site backend.
type App struct {
	Handler   http.Handler
	Redirects *redirects.Holder
	Pipeline  *forms.Pipeline

	closers []func() error
}

// Build wires the redirect table, the form pipeline and the admin endpoints
// into a single handler. ctx bounds the lifetime of background work such as
// the redirect file watcher.
func Build(ctx context.Context, cfg *appconfig.Config, deps Deps, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	app := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close()
		}
	}()

	redirectMetrics := metrics.NewRedirectMetrics(reg)
	holder, watcher, err := BuildRedirects(ctx, cfg, deps.S3, redirectMetrics, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: redirects: %w", err)
	}
	if watcher != nil {
		app.closers = append(app.closers, watcher.Close)
	}
	app.Redirects = holder

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, redisClient.Close)
	}
	settings := BuildSettingsSource(cfg, redisClient, logger)

	sheetsWriter, err := BuildSheetsWriter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	mailer, err := BuildSenderFactory(cfg, deps.SES, logger)
	if err != nil {
		return nil, err
	}

	pool, err := ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	var archive forms.Archive
	var submissionsHandler *submissions.Handler
	if pool != nil {
		app.closers = append(app.closers, func() error { pool.Close(); return nil })
		store := submissions.NewPostgresStore(pool)
		archive = store
		submissionsHandler = submissions.NewHandler(store, logger)
	}

	pipeline, err := forms.NewPipeline(forms.PipelineConfig{
		Settings:        settings,
		Sheets:          sheetsWriter,
		Mailer:          mailer,
		Archive:         archive,
		Metrics:         metrics.NewFormsMetrics(reg),
		Logger:          logger,
		DefaultFromName: cfg.DefaultFromName,
	})
	if err != nil {
		return nil, err
	}
	app.Pipeline = pipeline

	var limiter *httpmiddleware.RateLimiter
	if cfg.FormsRateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.FormsRateLimitRPS, cfg.FormsRateLimitBurst)
		app.closers = append(app.closers, func() error { limiter.Close(); return nil })
	}

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		FormsHandler:       forms.NewHandler(pipeline, logger),
		SubmissionsHandler: submissionsHandler,
		Redirects:          holder,
		SettingsCache:      settings,
		RateLimiter:        limiter,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	ok = true
	return app, nil
}

// Close releases background resources in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
