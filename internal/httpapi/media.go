package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"outreach-platform/internal/media"

	"github.com/gin-gonic/gin"
)

// ServeVoicemailAudio serves ephemeral synthesized MP3s to the voicemail
// gateway. Unknown or expired ids are plain 404s.
func (h Handlers) ServeVoicemailAudio(c *gin.Context) {
	id := strings.TrimSuffix(c.Param("file"), ".mp3")
	if id == "" {
		c.Status(http.StatusNotFound)
		return
	}
	data, err := h.Blobs.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		h.fail(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "audio/mpeg", data)
}

// UploadRawAudio accepts a raw MP3 body and returns a public URL for it.
// Meant for wiring checks against the drop gateway, not production upload.
func (h Handlers) UploadRawAudio(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(data) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "empty body"})
		return
	}
	id, err := h.Blobs.Put(c.Request.Context(), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": media.PublicURL(h.PublicBase, id)})
}
