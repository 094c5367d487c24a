package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"contact-relay/internal/domain"
	"contact-relay/pkg/apperror"
	"contact-relay/pkg/captcha"
	"contact-relay/pkg/email"
	"contact-relay/pkg/security"
	"contact-relay/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// CaptchaVerifier checks a client CAPTCHA token
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// Messages returned to the submitter
const (
	MsgCaptchaMisconfigured = "CAPTCHA verification is misconfigured."
	MsgCaptchaError         = "CAPTCHA verification error."
	MsgCaptchaFailed        = "CAPTCHA verification failed."
	MsgSendFailedPrefix     = "Error sending message: "
)

type contactUsecase struct {
	validate *validator.Validate
	verifier CaptchaVerifier
	composer *email.Composer
	sender   email.Sender
	secLog   *security.SecurityLogger
}

// NewContactUsecase creates a new contact usecase
func NewContactUsecase(validate *validator.Validate, verifier CaptchaVerifier, composer *email.Composer, sender email.Sender, secLog *security.SecurityLogger) domain.ContactUsecase {
	if secLog == nil {
		secLog = security.NopSecurityLogger()
	}
	return &contactUsecase{
		validate: validate,
		verifier: verifier,
		composer: composer,
		sender:   sender,
		secLog:   secLog,
	}
}

// SendContactMessage runs validate, verify, compose and deliver in order and
// stops at the first failing stage. Every returned error is an *apperror.AppError.
func (uc *contactUsecase) SendContactMessage(ctx context.Context, sub *domain.ContactSubmission) error {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Phone = strings.TrimSpace(sub.Phone)
	sub.Message = strings.TrimSpace(sub.Message)
	sub.CaptchaToken = strings.TrimSpace(sub.CaptchaToken)

	if err := uc.validate.Struct(sub); err != nil {
		uc.secLog.LogSubmission(ctx, security.EventValidationFailed, sub.Email, sub.RemoteIP, sub.RequestID,
			map[string]interface{}{"fields": validation.FormatValidationErrors(err)})
		return apperror.BadRequest(validation.ContactMessage(err))
	}

	ok, err := uc.verifier.Verify(ctx, sub.CaptchaToken, sub.RemoteIP)
	if err != nil {
		uc.secLog.LogSubmission(ctx, security.EventCaptchaError, sub.Email, sub.RemoteIP, sub.RequestID,
			map[string]interface{}{"error": err.Error()})
		if errors.Is(err, captcha.ErrMissingSecret) {
			return apperror.New(http.StatusInternalServerError, MsgCaptchaMisconfigured, err)
		}
		return apperror.New(http.StatusInternalServerError, MsgCaptchaError, err)
	}
	if !ok {
		uc.secLog.LogSubmission(ctx, security.EventCaptchaFailed, sub.Email, sub.RemoteIP, sub.RequestID, nil)
		return apperror.BadRequest(MsgCaptchaFailed)
	}

	data := email.ContactEmailData{
		SenderName:  sub.Name,
		SenderEmail: sub.Email,
		Phone:       sub.Phone,
		Message:     sub.Message,
	}
	if sub.Attachment != nil {
		data.Attachment = &email.Attachment{
			Filename:    sub.Attachment.Filename,
			ContentType: sub.Attachment.ContentType,
			Data:        sub.Attachment.Data,
		}
	}

	msg, err := uc.composer.Compose(data)
	if err != nil {
		return uc.deliveryFailed(ctx, sub, err)
	}
	if err := uc.sender.Send(ctx, msg); err != nil {
		return uc.deliveryFailed(ctx, sub, err)
	}

	uc.secLog.LogSubmission(ctx, security.EventContactSubmitted, sub.Email, sub.RemoteIP, sub.RequestID,
		map[string]interface{}{"attachment_bytes": sub.Attachment.Size()})
	return nil
}

func (uc *contactUsecase) deliveryFailed(ctx context.Context, sub *domain.ContactSubmission, err error) error {
	uc.secLog.LogSubmission(ctx, security.EventDeliveryFailed, sub.Email, sub.RemoteIP, sub.RequestID,
		map[string]interface{}{"error": err.Error()})
	return apperror.New(http.StatusInternalServerError, MsgSendFailedPrefix+err.Error(), err)
}
