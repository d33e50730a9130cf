package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/notify"
	"github.com/Zachkp/portfolio/internal/store"
	"github.com/gin-gonic/gin"
)

const (
	msgSent          = "Message sent successfully!"
	msgInvalid       = "Invalid form data"
	msgSendFailed    = "Failed to send message"
	msgListFailed    = "Failed to retrieve contacts"
	msgResumeMissing = "Resume not found"
	msgTooLarge      = "Request body too large"
)

// maxBodyBytes caps a contact submission. The form's fields are short, so
// anything larger is refused before it is parsed.
const maxBodyBytes = 100 << 10

type handler struct {
	store    store.Store
	notifier notify.Notifier
	log      *slog.Logger
	resume   Resume
}

// submitContact validates the posted form and stores it. Storage failures
// are logged with their cause and reported to the visitor generically.
func (h *handler) submitContact(c *gin.Context) {
	ctx := c.Request.Context()
	log := h.log.With("request_id", c.GetString(requestIDKey))

	draft, err := decodeDraft(c)
	if h.rejected(c, log, err) {
		return
	}
	if err != nil {
		log.Error("Failed to read contact submission", "error", err)
		c.JSON(http.StatusInternalServerError, response{Success: false, Message: msgSendFailed})
		return
	}

	rec, err := h.store.Create(ctx, draft)
	if h.rejected(c, log, err) {
		return
	}
	if err != nil {
		log.Error("Failed to store contact", "error", err)
		c.JSON(http.StatusInternalServerError, response{Success: false, Message: msgSendFailed})
		return
	}
	log.Info("Contact stored", "contact_id", rec.ID)

	// The record is kept either way, so a mail failure is not the visitor's
	// problem. Deployments wrap the notifier in notify.Async so a slow mail
	// server does not hold the response.
	if err := h.notifier.Notify(ctx, rec); err != nil {
		log.Warn("Failed to notify owner", "contact_id", rec.ID, "error", err)
	}

	c.JSON(http.StatusOK, response{Success: true, Message: msgSent})
}

// rejected answers the visitor when err is their fault: an oversized body
// or a form that fails validation.
func (h *handler) rejected(c *gin.Context, log *slog.Logger, err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		log.Info("Rejected oversized contact submission", "limit", tooLarge.Limit)
		c.JSON(http.StatusRequestEntityTooLarge, response{Success: false, Message: msgTooLarge})
		return true
	}
	var invalid *contact.ValidationError
	if errors.As(err, &invalid) {
		log.Info("Rejected contact submission", "fields", invalid.Fields())
		c.JSON(http.StatusBadRequest, response{
			Success: false,
			Message: msgInvalid,
			Errors:  invalid.Violations,
		})
		return true
	}
	return false
}

func decodeDraft(c *gin.Context) (contact.Draft, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		return contact.Draft{}, err
	}
	raw, err := contact.Decode(body)
	if err != nil {
		return contact.Draft{}, err
	}
	return contact.Validate(raw)
}

func (h *handler) listContacts(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list contacts", "request_id", c.GetString(requestIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, response{Success: false, Message: msgListFailed})
		return
	}
	if records == nil {
		records = []contact.Record{}
	}
	c.JSON(http.StatusOK, records)
}
