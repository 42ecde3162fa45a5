package httpapi

import (
	"net/http"

	"outreach-platform/internal/contact"
	"outreach-platform/internal/inbox"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ListCampaignContacts(c *gin.Context) {
	cs, err := h.Contacts.ListByCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

func (h Handlers) CreateContact(c *gin.Context) {
	var req contact.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	created, err := h.Contacts.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

// BulkCreateContacts loads a roster in one call. Bad rows are skipped, not
// fatal; the response reports how many made it in.
func (h Handlers) BulkCreateContacts(c *gin.Context) {
	var req struct {
		Contacts []contact.CreateRequest `json:"contacts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	created, err := h.Contacts.BulkCreate(c.Request.Context(), c.Param("id"), req.Contacts)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "created": len(created), "contacts": created})
}

func (h Handlers) GetContact(c *gin.Context) {
	ct, err := h.Contacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

func (h Handlers) PatchContact(c *gin.Context) {
	var req struct {
		Status  *string `json:"status,omitempty"`
		StageID *string `json:"stageId,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	if req.Status != nil {
		if err := h.Contacts.UpdateStatus(ctx, id, *req.Status); err != nil {
			h.fail(c, err)
			return
		}
	}
	if req.StageID != nil {
		if err := h.Contacts.UpdateStage(ctx, id, *req.StageID); err != nil {
			h.fail(c, err)
			return
		}
	}
	ct, err := h.Contacts.Get(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

func (h Handlers) ListContactConversations(c *gin.Context) {
	convs, err := h.Inbox.ListConversationsByContact(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (h Handlers) ListConversationMessages(c *gin.Context) {
	msgs, err := h.Inbox.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// PostMessage appends a message to a conversation. With a contactId but no
// conversationId the contact's conversation on the channel (default sms)
// is found or created first.
func (h Handlers) PostMessage(c *gin.Context) {
	var req struct {
		ConversationID    string `json:"conversationId,omitempty"`
		ContactID         string `json:"contactId,omitempty"`
		Channel           string `json:"channel,omitempty"`
		Direction         string `json:"direction"`
		Text              string `json:"text"`
		Subject           string `json:"subject,omitempty"`
		Provider          string `json:"provider,omitempty"`
		ProviderMessageID string `json:"providerMessageId,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}

	ctx := c.Request.Context()
	convID := req.ConversationID
	if convID == "" {
		if req.ContactID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "conversationId or contactId required"})
			return
		}
		channel := req.Channel
		if channel == "" {
			channel = inbox.ChannelSMS
		}
		conv, err := h.Inbox.FindOrCreateConversation(ctx, req.ContactID, channel)
		if err != nil {
			h.fail(c, err)
			return
		}
		convID = conv.ID
	}

	msg := inbox.Message{
		ConversationID:    convID,
		Direction:         req.Direction,
		Text:              req.Text,
		Subject:           req.Subject,
		Provider:          req.Provider,
		ProviderMessageID: req.ProviderMessageID,
	}
	if err := h.Inbox.AppendMessage(ctx, msg); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "conversationId": convID})
}
