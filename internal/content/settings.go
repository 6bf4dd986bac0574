package content

import (
	"context"
	"errors"
	"fmt"
)

// Form names with a settings document.
const (
	FormContact = "contact"
	FormCatalog = "catalog"
)

// ErrUnknownForm is returned for a form without a settings document type.
var ErrUnknownForm = errors.New("content: unknown form")

// EmailConfig is the notification transport an editor configured for a form.
type EmailConfig struct {
	Host           string     `json:"host"`
	Port           int        `json:"port"`
	Secure         bool       `json:"secure"`
	User           string     `json:"user"`
	Password       string     `json:"password"`
	RecipientEmail Recipients `json:"recipientEmail"`
	FromName       string     `json:"fromName,omitempty"`
}

// FormSettings is the delivery configuration for one form.
type FormSettings struct {
	SpreadsheetURL string       `json:"spreadsheetUrl,omitempty"`
	Email          *EmailConfig `json:"emailConfig,omitempty"`
	CatalogURL     string       `json:"catalogUrl,omitempty"`
}

// Source provides form settings. A nil result with a nil error means no
// settings document exists.
type Source interface {
	FormSettings(ctx context.Context, form string) (*FormSettings, error)
}

const emailProjection = `emailConfig{host, port, secure, user, password, recipientEmail, fromName}`

var settingsQueries = map[string]string{
	FormContact: `*[_type == "contactFormSettings"][0]{"spreadsheetUrl": googleSheetsUrl, ` + emailProjection + `}`,
	FormCatalog: `*[_type == "catalogSettings"][0]{"spreadsheetUrl": googleSheetsUrl, ` + emailProjection + `, "catalogUrl": catalogPdf.asset->url}`,
}

// FormSettings fetches the settings document for form.
func (c *Client) FormSettings(ctx context.Context, form string) (*FormSettings, error) {
	query, ok := settingsQueries[form]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownForm, form)
	}

	var settings FormSettings
	err := c.Query(ctx, query, nil, &settings)
	if errors.Is(err, ErrNoResult) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("content: load %s settings: %w", form, err)
	}
	return &settings, nil
}
