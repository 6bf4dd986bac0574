package forms

import (
	"errors"
	"net/http"
)

// Caller-facing messages.
const (
	MsgContactSuccess  = "Thank you for your inquiry. We'll get back to you within 24 hours."
	MsgCatalogSuccess  = "Thank you! Your catalog download will begin shortly."
	MsgSettingsMissing = "Form settings not configured. Please contact the administrator."
	MsgNoRecipients    = "Email recipients are not configured. Please contact the administrator."
	MsgUnexpected      = "Something went wrong. Please try again later."
)

var (
	// ErrUnknownKind is returned for a form kind without a schema.
	ErrUnknownKind = errors.New("forms: unknown form kind")

	// ErrSettingsMissing is returned when no settings document exists for the form.
	ErrSettingsMissing = errors.New("forms: settings document not found")

	// ErrNoRecipients is returned when email is configured but no recipient
	// survives normalization.
	ErrNoRecipients = errors.New("forms: email configured without recipients")

	// ErrTrailingData is returned when a body holds more than one JSON value.
	ErrTrailingData = errors.New("forms: unexpected data after submission")
)

// Error is a failure with a status and a message that is safe to show the caller.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ValidationError describes the first invalid field of a submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func badRequest(ve *ValidationError) *Error {
	return &Error{Status: http.StatusBadRequest, Message: ve.Message, Err: ve}
}

func configError(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg, Err: err}
}
