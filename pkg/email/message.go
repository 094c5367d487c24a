package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Address is a display name plus mailbox
type Address struct {
	Name  string
	Email string
}

// String renders `"Name" <email>`, RFC 2047 encoding the name when needed
func (a Address) String() string {
	return (&mail.Address{Name: a.Name, Address: a.Email}).String()
}

// Attachment is a file carried by a Message
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a composed email. Treat it as read-only once built.
type Message struct {
	From       Address
	To         Address
	ReplyTo    Address
	Subject    string
	Text       string
	HTML       string
	Attachment *Attachment
}

// Recipients returns the envelope recipients
func (m *Message) Recipients() []string {
	return []string{m.To.Email}
}

// Bytes renders the message as RFC 5322 text with CRLF line endings:
// multipart/alternative (text + HTML), wrapped in multipart/mixed when an
// attachment is present.
func (m *Message) Bytes() ([]byte, error) {
	var body bytes.Buffer
	var contentType string

	alt, altType, err := m.alternative()
	if err != nil {
		return nil, err
	}

	if m.Attachment == nil {
		body.Write(alt)
		contentType = altType
	} else {
		mixed := multipart.NewWriter(&body)
		part, err := mixed.CreatePart(textproto.MIMEHeader{"Content-Type": {altType}})
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(alt); err != nil {
			return nil, err
		}
		if err := m.writeAttachment(mixed); err != nil {
			return nil, err
		}
		if err := mixed.Close(); err != nil {
			return nil, err
		}
		contentType = mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": mixed.Boundary()})
	}

	var out bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&out, "%s: %s\r\n", k, foldEncodedWords(v)) }
	header("From", m.From.String())
	header("To", m.To.String())
	if m.ReplyTo.Email != "" {
		header("Reply-To", m.ReplyTo.String())
	}
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("Date", time.Now().Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(m.From.Email)))
	header("MIME-Version", "1.0")
	header("Content-Type", contentType)
	out.WriteString("\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func (m *Message) alternative() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range []struct{ ctype, content string }{
		{"text/plain; charset=utf-8", m.Text},
		{"text/html; charset=utf-8", m.HTML},
	} {
		part, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.ctype},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, "", err
		}
		qp := quotedprintable.NewWriter(part)
		if _, err := io.WriteString(qp, p.content); err != nil {
			return nil, "", err
		}
		if err := qp.Close(); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mime.FormatMediaType("multipart/alternative", map[string]string{"boundary": w.Boundary()}), nil
}

func (m *Message) writeAttachment(w *multipart.Writer) error {
	a := m.Attachment
	ctype := a.ContentType
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {ctype},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
	})
	if err != nil {
		return err
	}
	enc := base64.NewEncoder(base64.StdEncoding, &lineWrapper{w: part})
	if _, err := enc.Write(a.Data); err != nil {
		return err
	}
	return enc.Close()
}

// lineWrapper breaks base64 output into 76 character lines
type lineWrapper struct {
	w   io.Writer
	col int
}

func (l *lineWrapper) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		n := 76 - l.col
		if n > len(p) {
			n = len(p)
		}
		if _, err := l.w.Write(p[:n]); err != nil {
			return written, err
		}
		written += n
		l.col += n
		p = p[n:]
		if l.col == 76 {
			if _, err := io.WriteString(l.w, "\r\n"); err != nil {
				return written, err
			}
			l.col = 0
		}
	}
	return written, nil
}

// foldEncodedWords puts each RFC 2047 encoded word after the first on its own
// continuation line. Whitespace between adjacent encoded words is not part of
// the decoded text.
func foldEncodedWords(v string) string {
	return strings.ReplaceAll(v, "?= =?", "?=\r\n =?")
}

func domainOf(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == '@' {
			return addr[i+1:]
		}
	}
	return "localhost"
}
