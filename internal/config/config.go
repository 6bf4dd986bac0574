package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Redirect table
	RedirectsPath     string
	RedirectsS3Bucket string
	RedirectsS3Key    string
	RedirectsWatch    bool

	// Content store (form settings documents)
	ContentProjectID  string
	ContentDataset    string
	ContentAPIVersion string
	ContentToken      string
	ContentAPIHost    string
	ContentUseCDN     bool
	ContentCacheTTL   time.Duration

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Email delivery
	EmailProvider   string
	DefaultFromName string
	SendGridAPIKey  string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Spreadsheet delivery
	SheetsTimeout         time.Duration
	GoogleCredentialsFile string
	SheetsRange           string

	// Submission archive
	DatabaseURL string

	AdminJWTSecret      string
	CORSAllowedOrigins  []string
	FormsRateLimitRPS   float64
	FormsRateLimitBurst int
}

// Load reads configuration from environment variables. When CONFIG_PATH names
// a YAML file its values act as defaults underneath the environment.
func Load() (*Config, error) {
	src := source{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		values, err := readYAML(path)
		if err != nil {
			return nil, err
		}
		src.file = values
	}

	return &Config{
		Port:     src.get("PORT", "8080"),
		Env:      src.get("ENV", "development"),
		LogLevel: src.get("LOG_LEVEL", "info"),

		RedirectsPath:     src.get("REDIRECTS_PATH", "redirects.json"),
		RedirectsS3Bucket: src.get("REDIRECTS_S3_BUCKET", ""),
		RedirectsS3Key:    src.get("REDIRECTS_S3_KEY", "redirects.json"),
		RedirectsWatch:    src.getBool("REDIRECTS_WATCH", true),

		ContentProjectID:  src.get("CONTENT_PROJECT_ID", ""),
		ContentDataset:    src.get("CONTENT_DATASET", "production"),
		ContentAPIVersion: src.get("CONTENT_API_VERSION", "2024-01-01"),
		ContentToken:      src.get("CONTENT_TOKEN", ""),
		ContentAPIHost:    src.get("CONTENT_API_HOST", ""),
		ContentUseCDN:     src.getBool("CONTENT_USE_CDN", false),
		ContentCacheTTL:   src.getDuration("CONTENT_CACHE_TTL", 0),

		RedisAddr:     src.get("REDIS_ADDR", ""),
		RedisPassword: src.get("REDIS_PASSWORD", ""),
		RedisTLS:      src.getBool("REDIS_TLS", false),

		EmailProvider:   strings.ToLower(strings.TrimSpace(src.get("EMAIL_PROVIDER", "smtp"))),
		DefaultFromName: src.get("EMAIL_DEFAULT_FROM_NAME", "Summit Lift Website"),
		SendGridAPIKey:  src.get("SENDGRID_API_KEY", ""),

		AWSRegion:           src.get("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      src.get("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  src.get("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: src.get("AWS_ENDPOINT_OVERRIDE", ""),

		SheetsTimeout:         src.getDuration("SHEETS_TIMEOUT", 10*time.Second),
		GoogleCredentialsFile: src.get("GOOGLE_CREDENTIALS_FILE", ""),
		SheetsRange:           src.get("SHEETS_RANGE", "Submissions!A1"),

		DatabaseURL: src.get("DATABASE_URL", ""),

		AdminJWTSecret:      src.get("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins:  splitList(src.get("CORS_ALLOWED_ORIGINS", "")),
		FormsRateLimitRPS:   src.getFloat("FORMS_RATE_LIMIT_RPS", 1),
		FormsRateLimitBurst: src.getInt("FORMS_RATE_LIMIT_BURST", 5),
	}, nil
}

// UsesAWS reports whether any configured component needs an AWS client.
func (c *Config) UsesAWS() bool {
	return c.EmailProvider == "ses" || strings.TrimSpace(c.RedirectsS3Bucket) != ""
}

// source resolves a key from the environment first, then the YAML file.
type source struct {
	file map[string]string
}

// get retrieves a value or returns a default value
func (s source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := s.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (s source) getInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(s.get(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func (s source) getFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(s.get(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func (s source) getBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(s.get(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func (s source) getDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := s.get(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// readYAML loads a YAML document (with ${VAR} expansion) and flattens nested
// mappings into env-style keys: content.project_id -> CONTENT_PROJECT_ID.
// A missing file is not an error.
func readYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	values := make(map[string]string)
	flatten("", raw, values)
	return values, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		name := strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if prefix != "" {
			name = prefix + "_" + name
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(name, v, out)
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			out[name] = strings.Join(parts, ",")
		case nil:
		default:
			out[name] = fmt.Sprint(v)
		}
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
