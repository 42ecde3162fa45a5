package httpapi

import (
	"net/http"
	"time"

	"outreach-platform/internal/content"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h Handlers) ListContentTemplates(c *gin.Context) {
	typ := content.TemplateType(c.Query("type"))
	ts, err := h.Content.List(c.Request.Context(), typ)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (h Handlers) CreateContentTemplate(c *gin.Context) {
	var req struct {
		Type      content.TemplateType `json:"type"`
		Name      string               `json:"name"`
		Subject   string               `json:"subject,omitempty"`
		Body      string               `json:"body,omitempty"`
		Text      string               `json:"text,omitempty"`
		TTSScript string               `json:"tts_script,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	now := time.Now().UTC()
	t := content.Template{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Name:      req.Name,
		Subject:   req.Subject,
		Body:      req.Body,
		Text:      req.Text,
		TTSScript: req.TTSScript,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Content.Create(c.Request.Context(), t); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h Handlers) GetContentTemplate(c *gin.Context) {
	t, err := h.Content.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h Handlers) DeleteContentTemplate(c *gin.Context) {
	if err := h.Content.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
