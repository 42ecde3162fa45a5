// Package httpapi groups the HTTP handlers for dependency injection.
// Handlers stay thin: parse and validate input, call internal services,
// map sentinel errors to status codes, return JSON.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"outreach-platform/internal/auth"
	"outreach-platform/internal/campaign"
	"outreach-platform/internal/contact"
	"outreach-platform/internal/content"
	"outreach-platform/internal/dispatch"
	"outreach-platform/internal/executor"
	"outreach-platform/internal/funnel"
	"outreach-platform/internal/inbox"
	"outreach-platform/internal/media"
	"outreach-platform/internal/stats"
	"outreach-platform/internal/user"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Log *slog.Logger

	Auth      *auth.Service
	Funnels   *funnel.Service
	Content   content.Repository
	Campaigns *campaign.Service
	Contacts  *contact.Service
	Inbox     inbox.Repository
	Users     user.Repository
	Stats     *stats.Service

	Exec      *executor.Executor
	SMS       executor.SMSSender
	Email     executor.EmailSender
	Voicemail dispatch.VoicemailDropper
	TTS       dispatch.Synthesizer
	Blobs     media.Store

	// PublicBase mints externally reachable media URLs.
	PublicBase string

	// BonzoWebhookToken, when set, gates the bonzo inbound webhook.
	BonzoWebhookToken string
}

var notFoundSentinels = []error{
	funnel.ErrNotFound,
	content.ErrNotFound,
	campaign.ErrNotFound,
	contact.ErrNotFound,
	inbox.ErrNotFound,
	user.ErrNotFound,
	executor.ErrNotFound,
	media.ErrNotFound,
}

var badRequestSentinels = []error{
	funnel.ErrInvalidArgument,
	content.ErrInvalidArgument,
	campaign.ErrInvalidArgument,
	contact.ErrInvalidArgument,
	inbox.ErrInvalidArgument,
	user.ErrInvalidArgument,
}

// fail maps package sentinels onto status codes. Unknown errors are 500s
// with the detail kept out of the response body.
func (h Handlers) fail(c *gin.Context, err error) {
	for _, s := range notFoundSentinels {
		if errors.Is(err, s) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
	}
	for _, s := range badRequestSentinels {
		if errors.Is(err, s) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	h.logger().Error("request failed", "path", c.FullPath(), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (h Handlers) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

func badJSON(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
}

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
