// Package server exposes the contact pipeline and the résumé download over
// HTTP using gin.
package server

import (
	"log/slog"
	"net/http"

	"github.com/Zachkp/portfolio/internal/notify"
	"github.com/Zachkp/portfolio/internal/store"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the handlers need. The caller owns their
// lifecycle.
type Deps struct {
	Store    store.Store
	Notifier notify.Notifier
	Log      *slog.Logger
	Resume   Resume
}

// response is the envelope used by every non-list endpoint.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}

// New builds the gin engine. gin's global mode is left to the caller.
func New(d Deps) *gin.Engine {
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	h := &handler{
		store:    d.Store,
		notifier: d.Notifier,
		log:      d.Log,
		resume:   d.Resume,
	}

	r := gin.New()
	r.Use(requestID(), accessLog(d.Log, newIPHasher()), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/contact", h.submitContact)
	api.GET("/contacts", h.listContacts)
	api.GET("/resume", h.downloadResume)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, response{Success: false, Message: "Not found"})
	})
	return r
}
