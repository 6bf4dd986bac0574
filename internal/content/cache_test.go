package content

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingSource struct {
	calls    int
	settings *FormSettings
	err      error
}

func (s *countingSource) FormSettings(ctx context.Context, form string) (*FormSettings, error) {
	s.calls++
	return s.settings, s.err
}

func TestCachedSource_CachesSettings(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	next := &countingSource{settings: &FormSettings{
		SpreadsheetURL: "https://script.example/exec",
		Email: &EmailConfig{
			Host:           "smtp.example.com",
			Port:           587,
			User:           "forms@summitlift.example",
			RecipientEmail: RecipientList("a@x.com", "b@x.com"),
		},
	}}
	cache := NewCachedSource(next, client, time.Minute, nil)

	for i := 0; i < 3; i++ {
		got, err := cache.FormSettings(context.Background(), FormContact)
		if err != nil {
			t.Fatalf("form settings: %v", err)
		}
		if got.Email == nil || !got.Email.RecipientEmail.IsList() {
			t.Fatalf("expected list recipients to survive caching, got %+v", got.Email)
		}
		if n := len(got.Email.RecipientEmail.Normalize()); n != 2 {
			t.Fatalf("expected 2 recipients, got %d", n)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls)
	}
	if ttl := mr.TTL("content:form-settings:contact"); ttl != time.Minute {
		t.Fatalf("unexpected ttl %s", ttl)
	}

	if err := cache.Invalidate(context.Background(), FormContact); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := cache.FormSettings(context.Background(), FormContact); err != nil {
		t.Fatalf("form settings: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected refetch after invalidate, got %d calls", next.calls)
	}
}

func TestCachedSource_KeepsPasswordOutOfRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	next := &countingSource{settings: &FormSettings{
		Email: &EmailConfig{
			Host:           "smtp.example.com",
			User:           "forms@summitlift.example",
			Password:       "s3cret-pass",
			RecipientEmail: SingleRecipient("a@x.com"),
		},
	}}
	cache := NewCachedSource(next, client, time.Minute, nil)

	for i := 0; i < 2; i++ {
		got, err := cache.FormSettings(context.Background(), FormContact)
		if err != nil {
			t.Fatalf("form settings: %v", err)
		}
		if got.Email.Password != "s3cret-pass" {
			t.Fatalf("expected password to be restored, got %q", got.Email.Password)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls)
	}
	if next.settings.Email.Password != "s3cret-pass" {
		t.Fatal("upstream settings must not be modified")
	}

	stored, err := mr.Get("content:form-settings:contact")
	if err != nil {
		t.Fatalf("cached document missing: %v", err)
	}
	if strings.Contains(stored, "s3cret-pass") {
		t.Fatalf("password written to redis: %s", stored)
	}

	// A process that did not load the document itself goes back upstream.
	other := NewCachedSource(next, client, time.Minute, nil)
	got, err := other.FormSettings(context.Background(), FormContact)
	if err != nil {
		t.Fatalf("form settings: %v", err)
	}
	if got.Email.Password != "s3cret-pass" || next.calls != 2 {
		t.Fatalf("expected upstream reload, password %q after %d calls", got.Email.Password, next.calls)
	}
}

func TestCachedSource_CachesMissingDocument(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	next := &countingSource{}
	cache := NewCachedSource(next, client, time.Minute, nil)

	for i := 0; i < 2; i++ {
		got, err := cache.FormSettings(context.Background(), FormCatalog)
		if err != nil || got != nil {
			t.Fatalf("expected nil settings, got %+v, %v", got, err)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected missing document to be cached, got %d calls", next.calls)
	}
}

func TestCachedSource_ErrorsAreNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	next := &countingSource{err: errors.New("content api down")}
	cache := NewCachedSource(next, client, time.Minute, nil)

	if _, err := cache.FormSettings(context.Background(), FormContact); err == nil {
		t.Fatal("expected upstream error")
	}
	if mr.Exists("content:form-settings:contact") {
		t.Fatal("error must not be cached")
	}
}

func TestCachedSource_RedisDownFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	next := &countingSource{settings: &FormSettings{SpreadsheetURL: "https://script.example/exec"}}
	cache := NewCachedSource(next, client, time.Minute, nil)

	got, err := cache.FormSettings(context.Background(), FormContact)
	if err != nil {
		t.Fatalf("expected fall-through, got %v", err)
	}
	if got.SpreadsheetURL == "" {
		t.Fatalf("unexpected settings %+v", got)
	}
}

func TestCachedSource_DisabledIsPassThrough(t *testing.T) {
	next := &countingSource{settings: &FormSettings{}}
	cache := NewCachedSource(next, nil, time.Minute, nil)
	for i := 0; i < 2; i++ {
		if _, err := cache.FormSettings(context.Background(), FormContact); err != nil {
			t.Fatalf("form settings: %v", err)
		}
	}
	if next.calls != 2 {
		t.Fatalf("expected pass-through, got %d calls", next.calls)
	}
}
