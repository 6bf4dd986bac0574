package forms

import (
	"errors"
	"net/http"
)

// Sink names a delivery channel.
type Sink string

const (
	SinkSpreadsheet Sink = "spreadsheet"
	SinkEmail       Sink = "email"
	SinkArchive     Sink = "archive"
)

// Status is the result of one delivery attempt.
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Outcome records what happened at one sink.
type Outcome struct {
	Sink   Sink
	Status Status
	Err    error
}

func delivered(s Sink) Outcome { return Outcome{Sink: s, Status: StatusDelivered} }
func skipped(s Sink) Outcome { return Outcome{Sink: s, Status: StatusSkipped} }
func failed(s Sink, err error) Outcome { return Outcome{Sink: s, Status: StatusFailed, Err: err} }

// FatalFunc decides whether a sink failure must fail the whole request. It
// returns nil to tolerate the failure.
type FatalFunc func(err error) *Error

// Policy maps each sink to its fatality rule. Sinks without a rule are
// never fatal.
type Policy map[Sink]FatalFunc

// DefaultPolicy tolerates every sink failure except an email setup that
// resolved to no recipients.
var DefaultPolicy = Policy{
	SinkSpreadsheet: neverFatal,
	SinkEmail: func(err error) *Error {
		if errors.Is(err, ErrNoRecipients) {
			return &Error{Status: http.StatusInternalServerError, Message: MsgNoRecipients, Err: err}
		}
		return nil
	},
	SinkArchive: neverFatal,
}

func neverFatal(error) *Error { return nil }

// Aggregate returns the first fatal failure among outcomes, in order, or nil
// when the request can succeed.
func (p Policy) Aggregate(outcomes []Outcome) *Error {
	for _, o := range outcomes {
		if o.Status != StatusFailed {
			continue
		}
		rule, ok := p[o.Sink]
		if !ok {
			continue
		}
		if fatal := rule(o.Err); fatal != nil {
			return fatal
		}
	}
	return nil
}
