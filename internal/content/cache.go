package content

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/summitlift/elevator-site/pkg/logging"
)

// CachedSource keeps settings documents in Redis for a short TTL so bursts of
// submissions do not each hit the content API. Redis failures fall through to
// the wrapped source. SMTP passwords never reach Redis: they are held in
// process memory, and a cached document whose password this process has not
// seen is treated as a miss.
type CachedSource struct {
	next   Source
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger

	mu        sync.Mutex
	passwords map[string]string
}

// NewCachedSource wraps next. With a nil client or a non-positive TTL the
// wrapper is a pass-through.
func NewCachedSource(next Source, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedSource {
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedSource{
		next:      next,
		redis:     client,
		ttl:       ttl,
		logger:    logger,
		passwords: make(map[string]string),
	}
}

func (s *CachedSource) key(form string) string {
	return "content:form-settings:" + form
}

// FormSettings returns the cached document or loads and caches it. A missing
// document is cached as well.
func (s *CachedSource) FormSettings(ctx context.Context, form string) (*FormSettings, error) {
	if s.redis == nil || s.ttl <= 0 {
		return s.next.FormSettings(ctx, form)
	}

	data, err := s.redis.Get(ctx, s.key(form)).Bytes()
	switch {
	case err == nil:
		var settings *FormSettings
		if jsonErr := json.Unmarshal(data, &settings); jsonErr != nil {
			s.logger.Warn("content: discarding unreadable cached settings", "form", form)
			break
		}
		if s.restorePassword(form, settings) {
			return settings, nil
		}
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("content: settings cache unavailable", "form", form, "error", err)
	}

	settings, err := s.next.FormSettings(ctx, form)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(s.withoutPassword(form, settings))
	if err == nil {
		err = s.redis.Set(ctx, s.key(form), encoded, s.ttl).Err()
	}
	if err != nil {
		s.logger.Warn("content: cache settings failed", "form", form, "error", err)
	}
	return settings, nil
}

// withoutPassword remembers the SMTP password for form and returns a copy of
// settings safe to write to Redis.
func (s *CachedSource) withoutPassword(form string, settings *FormSettings) *FormSettings {
	if settings == nil || settings.Email == nil {
		return settings
	}
	s.mu.Lock()
	s.passwords[form] = settings.Email.Password
	s.mu.Unlock()

	email := *settings.Email
	email.Password = ""
	stripped := *settings
	stripped.Email = &email
	return &stripped
}

// restorePassword fills in the remembered password. It reports false when
// the document has email settings but this process holds no password for it.
func (s *CachedSource) restorePassword(form string, settings *FormSettings) bool {
	if settings == nil || settings.Email == nil {
		return true
	}
	s.mu.Lock()
	password, ok := s.passwords[form]
	s.mu.Unlock()
	if !ok {
		return false
	}
	settings.Email.Password = password
	return true
}

// Invalidate drops the cached document for form.
func (s *CachedSource) Invalidate(ctx context.Context, form string) error {
	s.mu.Lock()
	delete(s.passwords, form)
	s.mu.Unlock()
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, s.key(form)).Err()
}
