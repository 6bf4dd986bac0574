// Package sheets appends form submissions to spreadsheets, either through a
// script webhook or the Google Sheets API.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Field is one named cell of a row.
type Field struct {
	Name  string
	Value string
}

// Row is a flattened submission: a timestamp followed by ordered fields.
type Row struct {
	Timestamp time.Time
	Fields    []Field
}

// Values returns the cells in column order, timestamp first.
func (r Row) Values() []any {
	out := make([]any, 0, len(r.Fields)+1)
	out = append(out, r.timestamp())
	for _, f := range r.Fields {
		out = append(out, f.Value)
	}
	return out
}

func (r Row) timestamp() string {
	return r.Timestamp.UTC().Format(TimestampLayout)
}

// MarshalJSON encodes the row as {"timestamp": ..., "<name>": "<value>", ...}
// keeping field order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"timestamp":`)
	ts, _ := json.Marshal(r.timestamp())
	buf.Write(ts)
	for _, f := range r.Fields {
		if f.Name == "timestamp" {
			continue
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Writer appends a row to the spreadsheet identified by endpoint.
type Writer interface {
	Append(ctx context.Context, endpoint string, row Row) error
}
