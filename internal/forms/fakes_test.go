package forms

import (
	"context"
	"sync"
	"time"

	"github.com/summitlift/elevator-site/internal/content"
	"github.com/summitlift/elevator-site/internal/notify"
	"github.com/summitlift/elevator-site/internal/sheets"
	"github.com/summitlift/elevator-site/internal/submissions"
)

type fakeSettings struct {
	mu       sync.Mutex
	settings *content.FormSettings
	err      error
	forms    []string
}

func (f *fakeSettings) FormSettings(ctx context.Context, form string) (*content.FormSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forms = append(f.forms, form)
	return f.settings, f.err
}

func (f *fakeSettings) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.forms)
}

type fakeSheets struct {
	mu        sync.Mutex
	err       error
	endpoints []string
	rows      []sheets.Row
	hook      func(ctx context.Context) error
}

func (f *fakeSheets) Append(ctx context.Context, endpoint string, row sheets.Row) error {
	if f.hook != nil {
		if err := f.hook(ctx); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoints = append(f.endpoints, endpoint)
	f.rows = append(f.rows, row)
	return f.err
}

func (f *fakeSheets) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeSender struct {
	mu      sync.Mutex
	err     error
	msgs    []notify.EmailMessage
	configs []notify.SMTPConfig
	sent    chan struct{}
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(chan struct{}, 16)}
}

func (f *fakeSender) Send(ctx context.Context, msg notify.EmailMessage) error {
	f.mu.Lock()
	f.msgs = append(f.msgs, msg)
	f.mu.Unlock()
	f.sent <- struct{}{}
	return f.err
}

func (f *fakeSender) factory() notify.SenderFactory {
	return func(cfg notify.SMTPConfig) (notify.EmailSender, error) {
		f.mu.Lock()
		f.configs = append(f.configs, cfg)
		f.mu.Unlock()
		return f, nil
	}
}

func (f *fakeSender) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

type fakeArchive struct {
	mu      sync.Mutex
	err     error
	records []*submissions.Submission
}

func (f *fakeArchive) Record(ctx context.Context, sub *submissions.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, sub)
	return f.err
}

var fixedNow = time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC)

func validEmailConfig() *content.EmailConfig {
	return &content.EmailConfig{
		Host:           "smtp.summitlift.example",
		Port:           465,
		Secure:         true,
		User:           "forms@summitlift.example",
		Password:       "secret",
		RecipientEmail: content.SingleRecipient("sales@summitlift.example; ops@summitlift.example"),
	}
}

func validSettings() *content.FormSettings {
	return &content.FormSettings{
		SpreadsheetURL: "https://script.google.com/macros/s/abc/exec",
		Email:          validEmailConfig(),
	}
}
