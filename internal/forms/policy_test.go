package forms

import (
	"errors"
	"net/http"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	sheetErr := errors.New("sheet down")
	smtpErr := errors.New("smtp down")

	cases := []struct {
		name     string
		outcomes []Outcome
		fatal    bool
	}{
		{
			name:     "all delivered",
			outcomes: []Outcome{delivered(SinkSpreadsheet), delivered(SinkEmail)},
		},
		{
			name:     "spreadsheet failure tolerated",
			outcomes: []Outcome{failed(SinkSpreadsheet, sheetErr), delivered(SinkEmail)},
		},
		{
			name:     "email transport failure tolerated",
			outcomes: []Outcome{delivered(SinkSpreadsheet), failed(SinkEmail, smtpErr)},
		},
		{
			name:     "both transient failures tolerated",
			outcomes: []Outcome{failed(SinkSpreadsheet, sheetErr), failed(SinkEmail, smtpErr)},
		},
		{
			name:     "skipped sinks",
			outcomes: []Outcome{skipped(SinkSpreadsheet), skipped(SinkEmail)},
		},
		{
			name:     "no recipients is fatal",
			outcomes: []Outcome{delivered(SinkSpreadsheet), failed(SinkEmail, ErrNoRecipients)},
			fatal:    true,
		},
		{
			name:     "no recipients is fatal regardless of spreadsheet",
			outcomes: []Outcome{failed(SinkSpreadsheet, sheetErr), failed(SinkEmail, ErrNoRecipients)},
			fatal:    true,
		},
		{
			name:     "archive failure tolerated",
			outcomes: []Outcome{failed(SinkArchive, errors.New("db down"))},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DefaultPolicy.Aggregate(tc.outcomes)
			if (got != nil) != tc.fatal {
				t.Fatalf("fatal = %v, want %v", got, tc.fatal)
			}
			if tc.fatal {
				if got.Status != http.StatusInternalServerError || got.Message != MsgNoRecipients {
					t.Fatalf("unexpected fatal error %+v", got)
				}
				if !errors.Is(got, ErrNoRecipients) {
					t.Fatalf("expected wrapped ErrNoRecipients")
				}
			}
		})
	}
}

func TestPolicy_CustomRule(t *testing.T) {
	strict := Policy{
		SinkSpreadsheet: func(err error) *Error {
			return &Error{Status: http.StatusBadGateway, Message: "spreadsheet unavailable", Err: err}
		},
	}
	got := strict.Aggregate([]Outcome{failed(SinkEmail, errors.New("x")), failed(SinkSpreadsheet, errors.New("y"))})
	if got == nil || got.Status != http.StatusBadGateway {
		t.Fatalf("expected custom fatal rule to apply, got %+v", got)
	}
}
