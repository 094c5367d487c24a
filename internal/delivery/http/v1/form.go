package v1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"contact-relay/internal/domain"
	"contact-relay/pkg/security"
	"contact-relay/pkg/security/antivirus"
)

// Form field names posted by the site
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldMessage    = "message"
	FieldCaptcha    = "g-recaptcha-response"
	FieldAttachment = "attachment"
)

// MsgInvalidFormData is used when a parse error carries no message
const MsgInvalidFormData = "Invalid form data."

// Reasons an attachment part was dropped
const (
	DropNotImage        = "not_image"
	DropTooLarge        = "too_large"
	DropExtra           = "extra_attachment"
	DropContentMismatch = "content_mismatch"
	DropInfected        = "infected"
	DropScanError       = "scan_error"
)

// FormOptions bounds the decoder
type FormOptions struct {
	MaxAttachmentBytes int64 // default 2 MiB
	MaxFieldBytes      int64 // per text value, default 64 KiB
	MaxBodyBytes       int64 // whole request body, default 10 MiB
	VerifyContent      bool  // require jpeg/png magic bytes
	Scanner            antivirus.Scanner
}

func (o FormOptions) withDefaults() FormOptions {
	if o.MaxAttachmentBytes <= 0 {
		o.MaxAttachmentBytes = 2 << 20
	}
	if o.MaxFieldBytes <= 0 {
		o.MaxFieldBytes = 64 << 10
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 10 << 20
	}
	return o
}

// DroppedAttachment records a file part that was silently discarded
type DroppedAttachment struct {
	Filename string
	Reason   string
	Size     int64
	Threat   string
}

// ContactForm is the decoded multipart body
type ContactForm struct {
	Name         string
	Email        string
	Phone        string
	Message      string
	CaptchaToken string
	Attachment   *domain.Attachment
	Dropped      []DroppedAttachment
}

// Submission converts the form into the usecase input
func (f *ContactForm) Submission() *domain.ContactSubmission {
	return &domain.ContactSubmission{
		Name:         f.Name,
		Email:        f.Email,
		Phone:        f.Phone,
		Message:      f.Message,
		CaptchaToken: f.CaptchaToken,
		Attachment:   f.Attachment,
	}
}

// FormError is a body that could not be parsed. Its message is returned to
// the client as is.
type FormError struct {
	Err error
}

func (e *FormError) Error() string {
	if e.Err == nil || e.Err.Error() == "" {
		return MsgInvalidFormData
	}
	return e.Err.Error()
}

func (e *FormError) Unwrap() error { return e.Err }

// DecodeContactForm streams a multipart/form-data body. Text values are
// trimmed and the first value of each name wins. The first .jpg/.jpeg/.png
// part of the attachment field within the size cap is kept; every other file
// part is read to the end and dropped. Nothing is written to disk.
func DecodeContactForm(r *http.Request, opts FormOptions) (*ContactForm, error) {
	opts = opts.withDefaults()

	if r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, opts.MaxBodyBytes)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, &FormError{Err: err}
	}

	form := &ContactForm{}
	seen := make(map[string]bool)

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &FormError{Err: err}
		}

		name := part.FormName()
		filename := part.FileName()

		if filename == "" {
			value, err := readField(part, name, opts.MaxFieldBytes)
			part.Close()
			if err != nil {
				return nil, &FormError{Err: err}
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			form.setField(name, strings.TrimSpace(value))
			continue
		}

		if name != FieldAttachment {
			err := drain(part)
			part.Close()
			if err != nil {
				return nil, &FormError{Err: err}
			}
			continue
		}

		dropped, err := form.readAttachment(r.Context(), part, filename, opts)
		part.Close()
		if err != nil {
			return nil, &FormError{Err: err}
		}
		if dropped != nil {
			form.Dropped = append(form.Dropped, *dropped)
		}
	}

	return form, nil
}

func (f *ContactForm) setField(name, value string) {
	switch name {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldPhone:
		f.Phone = value
	case FieldMessage:
		f.Message = value
	case FieldCaptcha:
		f.CaptchaToken = value
	}
}

// readAttachment keeps the part or reports why it was dropped. Only read
// errors are returned as errors.
func (f *ContactForm) readAttachment(ctx context.Context, part *multipart.Part, filename string, opts FormOptions) (*DroppedAttachment, error) {
	if f.Attachment != nil {
		n, err := io.Copy(io.Discard, part)
		return &DroppedAttachment{Filename: filename, Reason: DropExtra, Size: n}, err
	}
	if !security.IsAllowedImageName(filename) {
		n, err := io.Copy(io.Discard, part)
		return &DroppedAttachment{Filename: filename, Reason: DropNotImage, Size: n}, err
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(part, opts.MaxAttachmentBytes+1))
	if err != nil {
		return nil, err
	}
	if n > opts.MaxAttachmentBytes {
		rest, err := io.Copy(io.Discard, part)
		return &DroppedAttachment{Filename: filename, Reason: DropTooLarge, Size: n + rest}, err
	}

	data := buf.Bytes()
	if opts.VerifyContent && !security.MatchesMagicBytes(filename, data) {
		return &DroppedAttachment{Filename: filename, Reason: DropContentMismatch, Size: n}, nil
	}
	if opts.Scanner != nil {
		result := opts.Scanner.Scan(ctx, filename, bytes.NewReader(data))
		if result.Rejected() {
			reason := DropInfected
			if result.Error != nil {
				reason = DropScanError
			}
			return &DroppedAttachment{Filename: filename, Reason: reason, Size: n, Threat: result.ThreatName}, nil
		}
	}

	f.Attachment = &domain.Attachment{
		Filename:    filename,
		ContentType: security.ResolveContentType(part.Header.Get("Content-Type"), data),
		Data:        data,
	}
	return nil, nil
}

func readField(r io.Reader, name string, limit int64) (string, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return "", err
	}
	if n > limit {
		return "", fmt.Errorf("form field %q exceeds %d bytes", name, limit)
	}
	return buf.String(), nil
}

func drain(r io.Reader) error {
	_, err := io.Copy(io.Discard, r)
	return err
}
