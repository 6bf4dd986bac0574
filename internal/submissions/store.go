// Package submissions archives accepted form submissions in Postgres so the
// team has a record even when a spreadsheet or email delivery was lost.
package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Submission is one archived form submission.
type Submission struct {
	ID                uuid.UUID       `json:"id"`
	Form              string          `json:"form"`
	Name              string          `json:"name"`
	Email             string          `json:"email,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	Payload           json.RawMessage `json:"payload"`
	SpreadsheetStatus string          `json:"spreadsheet_status"`
	EmailStatus       string          `json:"email_status"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Listing page sizes. Larger limits are capped at MaxListLimit.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ListFilter narrows a listing.
type ListFilter struct {
	Form   string
	Limit  int
	Offset int
}

// ErrInvalidSubmission is returned when a record lacks its form name.
var ErrInvalidSubmission = errors.New("submissions: form is required")

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore persists submissions in the form_submissions table.
type PostgresStore struct {
	db db
}

// NewPostgresStore wraps a pgx pool (or any compatible querier).
func NewPostgresStore(db db) *PostgresStore {
	if db == nil {
		panic("submissions: db required")
	}
	return &PostgresStore{db: db}
}

// Record inserts s, assigning its ID and timestamp when unset.
func (s *PostgresStore) Record(ctx context.Context, sub *Submission) error {
	if sub == nil || sub.Form == "" {
		return ErrInvalidSubmission
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	payload := sub.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	query := `
		INSERT INTO form_submissions (id, form, name, email, phone, payload, spreadsheet_status, email_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := s.db.Exec(ctx, query,
		sub.ID,
		sub.Form,
		sub.Name,
		sub.Email,
		sub.Phone,
		[]byte(payload),
		sub.SpreadsheetStatus,
		sub.EmailStatus,
		sub.CreatedAt,
	); err != nil {
		return fmt.Errorf("submissions: insert failed: %w", err)
	}
	return nil
}

// List returns submissions newest first.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Submission, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	query := `
		SELECT id, form, name, email, phone, payload, spreadsheet_status, email_status, created_at
		FROM form_submissions
		WHERE ($1 = '' OR form = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.Query(ctx, query, filter.Form, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("submissions: select failed: %w", err)
	}
	defer rows.Close()

	var out []*Submission
	for rows.Next() {
		var sub Submission
		var payload []byte
		if err := rows.Scan(
			&sub.ID,
			&sub.Form,
			&sub.Name,
			&sub.Email,
			&sub.Phone,
			&payload,
			&sub.SpreadsheetStatus,
			&sub.EmailStatus,
			&sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("submissions: scan failed: %w", err)
		}
		sub.Payload = json.RawMessage(payload)
		out = append(out, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("submissions: rows: %w", err)
	}
	return out, nil
}
