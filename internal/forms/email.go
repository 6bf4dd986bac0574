package forms

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/summitlift/elevator-site/internal/notify"
)

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "contact"}}<h2>New Contact Form Submission</h2>
<table cellpadding="6" style="border-collapse:collapse">
  <tr><td><strong>Name:</strong></td><td>{{.Sub.Name}}</td></tr>
  <tr><td><strong>Email:</strong></td><td>{{or .Sub.Email "Not provided"}}</td></tr>
  <tr><td><strong>Phone:</strong></td><td>{{or .Sub.Phone "Not provided"}}</td></tr>
  <tr><td><strong>Product Interest:</strong></td><td>{{.Sub.ProductInterest}}</td></tr>
  <tr><td><strong>Location:</strong></td><td>{{or .Sub.Location "Not provided"}}</td></tr>
</table>
<h3>Requirements</h3>
<p style="white-space:pre-wrap">{{or .Sub.Requirements "None provided"}}</p>
<p style="color:#666;font-size:12px">Submitted {{.Submitted}}</p>
{{end}}
{{define "catalog"}}<h2>New Catalog Download Request</h2>
<table cellpadding="6" style="border-collapse:collapse">
  <tr><td><strong>Name:</strong></td><td>{{.Sub.Name}}</td></tr>
  <tr><td><strong>Phone:</strong></td><td>{{.Sub.Phone}}</td></tr>
  <tr><td><strong>Location:</strong></td><td>{{or .Sub.Location "Not provided"}}</td></tr>
</table>
<p style="color:#666;font-size:12px">Submitted {{.Submitted}}</p>
{{end}}`))

type emailData struct {
	Sub       Submission
	Submitted string
}

// composeEmail renders the notification for sub. User input is HTML escaped.
func composeEmail(sub Submission, from string, to []string, now time.Time) (notify.EmailMessage, error) {
	msg := notify.EmailMessage{From: from, To: to}

	switch s := sub.(type) {
	case *ContactSubmission:
		msg.Subject = "New Contact Form Submission - " + s.ProductInterest
		msg.ReplyTo = s.Email
	case *CatalogSubmission:
		msg.Subject = "New Catalog Download Request - " + s.Name
	default:
		return notify.EmailMessage{}, fmt.Errorf("%w: %T", ErrUnknownKind, sub)
	}

	var buf bytes.Buffer
	data := emailData{Sub: sub, Submitted: now.UTC().Format(time.RFC1123)}
	if err := emailTemplates.ExecuteTemplate(&buf, string(sub.Kind()), data); err != nil {
		return notify.EmailMessage{}, fmt.Errorf("forms: render %s email: %w", sub.Kind(), err)
	}
	msg.HTML = buf.String()
	return msg, nil
}

// fromAddress formats the sender as a quoted "name" <user> header value. An empty user leaves
// the choice of sender to the transport.
func fromAddress(fromName, defaultName, user string) string {
	if user == "" {
		return ""
	}
	if fromName == "" {
		fromName = defaultName
	}
	return notify.FormatAddress(fromName, user)
}
