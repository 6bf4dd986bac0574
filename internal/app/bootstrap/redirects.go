package bootstrap

import (
	"context"
	"strings"

	appconfig "github.com/summitlift/elevator-site/internal/config"
	"github.com/summitlift/elevator-site/internal/observability/metrics"
	"github.com/summitlift/elevator-site/internal/redirects"
	"github.com/summitlift/elevator-site/pkg/logging"
)

// BuildRedirects loads the redirect table from S3 when a bucket is configured
// and from REDIRECTS_PATH otherwise. File tables are hot reloaded when
// REDIRECTS_WATCH is set; the returned watcher is nil when nothing is watched.
func BuildRedirects(ctx context.Context, cfg *appconfig.Config, s3api redirects.S3GetObjectAPI, m *metrics.RedirectMetrics, logger *logging.Logger) (*redirects.Holder, *redirects.Watcher, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if bucket := strings.TrimSpace(cfg.RedirectsS3Bucket); bucket != "" {
		rules := redirects.LoadS3(ctx, s3api, bucket, cfg.RedirectsS3Key, logger)
		m.ObserveReload("s3")
		logger.Info("redirects loaded", "source", "s3", "bucket", bucket, "key", cfg.RedirectsS3Key, "rules", len(rules))
		return redirects.NewHolder(rules, m), nil, nil
	}

	path := strings.TrimSpace(cfg.RedirectsPath)
	if path == "" {
		return redirects.NewHolder(nil, m), nil, nil
	}
	rules := redirects.LoadFile(path, logger)
	m.ObserveReload("file")
	logger.Info("redirects loaded", "source", "file", "path", path, "rules", len(rules))
	holder := redirects.NewHolder(rules, m)
	if !cfg.RedirectsWatch {
		return holder, nil, nil
	}

	watcher := redirects.NewWatcher(path, holder, m, logger)
	if err := watcher.Start(ctx); err != nil {
		return nil, nil, err
	}
	return holder, watcher, nil
}
