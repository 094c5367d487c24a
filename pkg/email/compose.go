package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// ContactEmailData holds the data for contact form emails
type ContactEmailData struct {
	SenderName  string
	SenderEmail string
	Phone       string
	Message     string
	Attachment  *Attachment
}

// contactEmailTemplate is the HTML body. html/template escapes every value.
const contactEmailTemplate = `
<div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;line-height:1.6;color:#111;">
  <h2 style="margin:0 0 16px;">New Website Inquiry</h2>
  <table style="border-collapse:collapse;margin-bottom:20px;">
    <tr><td style="padding:4px 12px 4px 0;font-weight:600;">Name</td><td>{{.SenderName}}</td></tr>
    <tr><td style="padding:4px 12px 4px 0;font-weight:600;">Email</td><td>{{.SenderEmail}}</td></tr>
    <tr><td style="padding:4px 12px 4px 0;font-weight:600;">Phone</td><td>{{.Phone}}</td></tr>
  </table>
  <div style="margin-bottom:6px;font-weight:600;">Message</div>
  <div style="white-space:pre-wrap;padding:12px;border-left:3px solid #000;background:#f7f7f7;">{{.Message}}</div>
</div>
`

var contactTemplate = template.Must(template.New("contact").Parse(contactEmailTemplate))

// Composer builds contact messages with a fixed sender and business recipient
type Composer struct {
	from Address
	to   Address
}

func NewComposer(from, to Address) *Composer {
	return &Composer{from: from, to: to}
}

// Compose is pure: the same data always yields the same subject and bodies.
func (c *Composer) Compose(data ContactEmailData) (*Message, error) {
	var html bytes.Buffer
	if err := contactTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to execute email template: %w", err)
	}

	msg := &Message{
		From:    c.from,
		To:      c.to,
		ReplyTo: Address{Name: data.SenderName, Email: data.SenderEmail},
		Subject: "New Website Inquiry — " + data.SenderName,
		Text:    contactText(data),
		HTML:    html.String(),
	}

	if a := data.Attachment; a != nil && len(a.Data) > 0 {
		filename := a.Filename
		if filename == "" {
			filename = "attachment"
		}
		msg.Attachment = &Attachment{
			Filename:    filename,
			ContentType: a.ContentType,
			Data:        a.Data,
		}
	}
	return msg, nil
}

func contactText(data ContactEmailData) string {
	return strings.Join([]string{
		"NEW WEBSITE INQUIRY",
		"-------------------",
		"",
		"Name:  " + data.SenderName,
		"Email: " + data.SenderEmail,
		"Phone: " + data.Phone,
		"",
		"Message:",
		data.Message,
	}, "\n")
}
