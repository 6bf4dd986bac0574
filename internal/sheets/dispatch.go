package sheets

import (
	"context"
	"errors"
)

// ErrAPINotConfigured is returned for a sheet URL when no service account is set.
var ErrAPINotConfigured = errors.New("sheets: google sheets api not configured")

// Dispatcher routes docs.google.com sheet URLs to the API writer and every
// other endpoint to the webhook writer.
type Dispatcher struct {
	Webhook Writer
	API     Writer
}

// Append implements Writer.
func (d *Dispatcher) Append(ctx context.Context, endpoint string, row Row) error {
	if IsSpreadsheetURL(endpoint) {
		if d.API == nil {
			return ErrAPINotConfigured
		}
		return d.API.Append(ctx, endpoint, row)
	}
	return d.Webhook.Append(ctx, endpoint, row)
}

var _ Writer = (*Dispatcher)(nil)
