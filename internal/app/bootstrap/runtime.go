package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/summitlift/elevator-site/internal/config"
	"github.com/summitlift/elevator-site/internal/content"
	"github.com/summitlift/elevator-site/internal/notify"
	"github.com/summitlift/elevator-site/internal/sheets"
	"github.com/summitlift/elevator-site/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSettingsSource returns the content store client wrapped in the Redis
// cache. The cache is a pass-through without Redis or a TTL.
func BuildSettingsSource(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) *content.CachedSource {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.ContentProjectID) == "" && strings.TrimSpace(cfg.ContentAPIHost) == "" {
		logger.Warn("content store not configured; form submissions will fail until CONTENT_PROJECT_ID is set")
	}
	client := content.NewClient(content.ClientConfig{
		ProjectID:  cfg.ContentProjectID,
		Dataset:    cfg.ContentDataset,
		APIVersion: cfg.ContentAPIVersion,
		Token:      cfg.ContentToken,
		APIHost:    cfg.ContentAPIHost,
		UseCDN:     cfg.ContentUseCDN,
	}, logger)
	if redisClient != nil && cfg.ContentCacheTTL > 0 {
		logger.Info("form settings cache enabled", "ttl", cfg.ContentCacheTTL.String())
	}
	return content.NewCachedSource(client, redisClient, cfg.ContentCacheTTL, logger)
}

// BuildSheetsWriter returns the spreadsheet dispatcher. Google Sheets URLs are
// only writable when GOOGLE_CREDENTIALS_FILE names a service account key.
func BuildSheetsWriter(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*sheets.Dispatcher, error) {
	d := &sheets.Dispatcher{Webhook: sheets.NewWebhookWriter(nil, cfg.SheetsTimeout, logger)}
	path := strings.TrimSpace(cfg.GoogleCredentialsFile)
	if path == "" {
		return d, nil
	}
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: read google credentials: %w", err)
	}
	api, err := sheets.NewAPIWriter(ctx, sheets.APIConfig{
		CredentialsJSON: key,
		Range:           cfg.SheetsRange,
		Timeout:         cfg.SheetsTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	d.API = api
	return d, nil
}

// BuildSenderFactory selects the email transport from EMAIL_PROVIDER.
func BuildSenderFactory(cfg *appconfig.Config, ses notify.SESAPI, logger *logging.Logger) (notify.SenderFactory, error) {
	return notify.NewSenderFactory(notify.ProviderConfig{
		Provider:       cfg.EmailProvider,
		SendGridAPIKey: cfg.SendGridAPIKey,
		SES:            ses,
		FromName:       cfg.DefaultFromName,
	}, logger)
}

// ConnectPostgresPool opens the archive pool, or returns nil when no
// DATABASE_URL is set.
func ConnectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) (*pgxpool.Pool, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	if logger != nil {
		logger.Info("submission archive enabled")
	}
	return pool, nil
}
