package forms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/summitlift/elevator-site/internal/sheets"
)

// Kind names a form.
type Kind string

const (
	KindContact Kind = "contact"
	KindCatalog Kind = "catalog"
)

// Valid reports whether k has a schema.
func (k Kind) Valid() bool {
	return k == KindContact || k == KindCatalog
}

const (
	maxNameLen         = 100
	maxRequirementsLen = 5000
	maxFieldLen        = 200
)

var fieldLabels = map[string]string{
	"name":            "Name",
	"email":           "Email",
	"phone":           "Phone",
	"productInterest": "Product interest",
	"location":        "Location",
	"requirements":    "Requirements",
}

// Submission is a decoded, trimmed form payload.
type Submission interface {
	Kind() Kind
	Validate() error
	// Fields returns the submission as ordered spreadsheet cells.
	Fields() []sheets.Field
}

// ContactSubmission is the contact inquiry form.
type ContactSubmission struct {
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	ProductInterest string `json:"productInterest"`
	Location        string `json:"location,omitempty"`
	Requirements    string `json:"requirements,omitempty"`
}

func (s *ContactSubmission) Kind() Kind { return KindContact }

// Validate returns a *ValidationError for the first invalid field.
func (s *ContactSubmission) Validate() error {
	return firstInvalid(
		required("name", s.Name),
		maxLen("name", s.Name, maxNameLen),
		optionalEmail("email", s.Email),
		maxLen("phone", s.Phone, maxFieldLen),
		required("productInterest", s.ProductInterest),
		maxLen("productInterest", s.ProductInterest, maxFieldLen),
		maxLen("location", s.Location, maxFieldLen),
		maxLen("requirements", s.Requirements, maxRequirementsLen),
	)
}

func (s *ContactSubmission) Fields() []sheets.Field {
	return []sheets.Field{
		{Name: "formType", Value: string(KindContact)},
		{Name: "name", Value: s.Name},
		{Name: "email", Value: s.Email},
		{Name: "phone", Value: s.Phone},
		{Name: "productInterest", Value: s.ProductInterest},
		{Name: "location", Value: s.Location},
		{Name: "requirements", Value: s.Requirements},
	}
}

func (s *ContactSubmission) trim() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.ProductInterest = strings.TrimSpace(s.ProductInterest)
	s.Location = strings.TrimSpace(s.Location)
	s.Requirements = strings.TrimSpace(s.Requirements)
}

// CatalogSubmission is the catalog download request form.
type CatalogSubmission struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location,omitempty"`
}

func (s *CatalogSubmission) Kind() Kind { return KindCatalog }

// Validate returns a *ValidationError for the first invalid field.
func (s *CatalogSubmission) Validate() error {
	return firstInvalid(
		required("name", s.Name),
		maxLen("name", s.Name, maxNameLen),
		required("phone", s.Phone),
		maxLen("phone", s.Phone, maxFieldLen),
		maxLen("location", s.Location, maxFieldLen),
	)
}

func (s *CatalogSubmission) Fields() []sheets.Field {
	return []sheets.Field{
		{Name: "formType", Value: string(KindCatalog)},
		{Name: "name", Value: s.Name},
		{Name: "phone", Value: s.Phone},
		{Name: "location", Value: s.Location},
	}
}

func (s *CatalogSubmission) trim() {
	s.Name = strings.TrimSpace(s.Name)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Location = strings.TrimSpace(s.Location)
}

// Decode parses raw into the submission type for kind. Values of the wrong
// JSON type yield a *ValidationError; malformed JSON yields a plain error.
func Decode(kind Kind, raw []byte) (Submission, error) {
	var sub interface {
		Submission
		trim()
	}
	switch kind {
	case KindContact:
		sub = &ContactSubmission{}
	case KindCatalog:
		sub = &CatalogSubmission{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(sub); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, typeError(typeErr)
		}
		return nil, fmt.Errorf("forms: decode %s submission: %w", kind, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("forms: decode %s submission: %w", kind, ErrTrailingData)
	}
	sub.trim()
	return sub, nil
}

func typeError(err *json.UnmarshalTypeError) *ValidationError {
	label, ok := fieldLabels[err.Field]
	if !ok {
		return &ValidationError{Field: err.Field, Message: "Invalid submission"}
	}
	return &ValidationError{Field: err.Field, Message: label + " must be text"}
}

func firstInvalid(checks ...*ValidationError) error {
	for _, ve := range checks {
		if ve != nil {
			return ve
		}
	}
	return nil
}

func required(field, value string) *ValidationError {
	if value == "" {
		return &ValidationError{Field: field, Message: fieldLabels[field] + " is required"}
	}
	return nil
}

func maxLen(field, value string, limit int) *ValidationError {
	if utf8.RuneCountInString(value) > limit {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %d characters", fieldLabels[field], limit),
		}
	}
	return nil
}

func optionalEmail(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	if !validEmail(value) {
		return &ValidationError{Field: field, Message: "Invalid email address"}
	}
	return maxLen(field, value, maxFieldLen)
}

// validEmail accepts a bare address whose domain has at least one dot.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
