package domain

import "context"

// ContactSubmission is a decoded contact form. Text values are already trimmed.
type ContactSubmission struct {
	Name         string `validate:"required,max=100"`
	Email        string `validate:"required,max=254,simple_email"`
	Phone        string `validate:"required,max=40"`
	Message      string `validate:"required"`
	CaptchaToken string `validate:"required"`
	Attachment   *Attachment
	// Request metadata, not part of the form
	RemoteIP  string `validate:"-"`
	RequestID string `validate:"-"`
}

// Attachment is the single image accepted from the form
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size is the attachment length in bytes
func (a *Attachment) Size() int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.Data))
}

// ContactUsecase defines the interface for contact form operations
type ContactUsecase interface {
	// SendContactMessage validates, verifies and relays a submission
	SendContactMessage(ctx context.Context, sub *ContactSubmission) error
}
