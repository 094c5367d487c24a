package v1

import (
	"net/http"

	"contact-relay/internal/delivery/http/middleware"
	"contact-relay/internal/delivery/http/response"
	"contact-relay/internal/domain"
	"contact-relay/pkg/apperror"
	"contact-relay/pkg/security"

	"github.com/gin-gonic/gin"
)

// MsgMessageSent is the success body
const MsgMessageSent = "Message sent successfully."

type ContactHandler struct {
	contactUC domain.ContactUsecase
	formOpts  FormOptions
	secLog    *security.SecurityLogger
}

// NewContactHandler builds the handler; routes are registered by the router
func NewContactHandler(contactUC domain.ContactUsecase, formOpts FormOptions, secLog *security.SecurityLogger) *ContactHandler {
	if secLog == nil {
		secLog = security.NopSecurityLogger()
	}
	return &ContactHandler{
		contactUC: contactUC,
		formOpts:  formOpts,
		secLog:    secLog,
	}
}

// SubmitContact godoc
// @Summary      Submit Contact Form
// @Description  Relays a website inquiry to the business inbox. Public, rate limited per client.
// @Tags         contact
// @Accept       multipart/form-data
// @Produce      plain
// @Param        name                  formData  string  true   "Sender name"
// @Param        email                 formData  string  true   "Sender email"
// @Param        phone                 formData  string  true   "Sender phone"
// @Param        message               formData  string  true   "Message"
// @Param        g-recaptcha-response  formData  string  true   "reCAPTCHA token"
// @Param        attachment            formData  file    false  "Optional .jpg/.jpeg/.png image, at most 2 MiB"
// @Success      200  {string}  string  "Message sent successfully."
// @Failure      400  {string}  string
// @Failure      405  {string}  string
// @Failure      429  {string}  string
// @Failure      500  {string}  string
// @Failure      503  {string}  string
// @Router       /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	requestID := c.GetString("RequestID")
	clientIP := middleware.ClientIdentity(c.Request)

	form, err := DecodeContactForm(c.Request, h.formOpts)
	if err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	for _, d := range form.Dropped {
		details := map[string]interface{}{
			"filename": d.Filename,
			"reason":   d.Reason,
			"size":     d.Size,
		}
		if d.Threat != "" {
			details["threat"] = d.Threat
		}
		h.secLog.LogSubmission(c.Request.Context(), security.EventAttachmentRejected, form.Email, clientIP, requestID, details)
	}

	sub := form.Submission()
	sub.RemoteIP = clientIP
	sub.RequestID = requestID

	if err := h.contactUC.SendContactMessage(c.Request.Context(), sub); err != nil {
		c.Error(err)
		return
	}

	response.Text(c, http.StatusOK, MsgMessageSent)
}
