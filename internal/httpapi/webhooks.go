package httpapi

import (
	"net/http"
	"strings"

	"outreach-platform/internal/contact"
	"outreach-platform/internal/inbox"

	"github.com/gin-gonic/gin"
)

const emptyTwiML = "<Response></Response>"

// TwilioInboundSMS receives form-encoded inbound messages. The response
// is always empty TwiML with a 200, even on lookup failures, so the
// carrier never retries into an error loop.
func (h Handlers) TwilioInboundSMS(c *gin.Context) {
	from := strings.TrimSpace(c.PostForm("From"))
	text := strings.TrimSpace(c.PostForm("Body"))
	if from != "" && text != "" {
		h.recordInbound(c, from, text)
	}
	c.Data(http.StatusOK, "text/xml", []byte(emptyTwiML))
}

// BonzoInboundSMS receives JSON inbound messages, optionally gated by a
// shared token carried in header, query or body.
func (h Handlers) BonzoInboundSMS(c *gin.Context) {
	var body struct {
		Token string `json:"token,omitempty"`
		From  string `json:"from,omitempty"`
		FromU string `json:"From,omitempty"`
		Text  string `json:"text,omitempty"`
		Body  string `json:"body,omitempty"`
		BodyU string `json:"Body,omitempty"`
	}
	_ = c.ShouldBindJSON(&body)

	if h.BonzoWebhookToken != "" {
		provided := c.GetHeader("X-Bonzo-Token")
		if provided == "" {
			provided = c.Query("token")
		}
		if provided == "" {
			provided = body.Token
		}
		if provided != h.BonzoWebhookToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false})
			return
		}
	}

	from := strings.TrimSpace(firstNonEmpty(body.From, body.FromU))
	text := strings.TrimSpace(firstNonEmpty(body.Text, body.Body, body.BodyU))
	if from != "" && text != "" {
		h.recordInbound(c, from, text)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// recordInbound matches the sender to a contact by the last ten digits of
// the phone number, appends the reply to the sms conversation and flags
// the contact for follow-up. No match is not an error.
func (h Handlers) recordInbound(c *gin.Context, from, text string) {
	ctx := c.Request.Context()
	digits := onlyDigits(from)
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}

	ct, err := h.Contacts.FindByPhoneLast10(ctx, digits)
	if err != nil {
		h.logger().Info("inbound sms without matching contact", "from", from)
		return
	}

	conv, err := h.Inbox.FindOrCreateConversation(ctx, ct.ID, inbox.ChannelSMS)
	if err != nil {
		h.logger().Warn("inbound conversation lookup failed", "contact_id", ct.ID, "error", err)
		return
	}
	if err := h.Inbox.AppendMessage(ctx, inbox.Message{
		ConversationID: conv.ID,
		Direction:      inbox.DirectionIn,
		Text:           text,
	}); err != nil {
		h.logger().Warn("inbound message log failed", "conversation_id", conv.ID, "error", err)
		return
	}
	if err := h.Contacts.UpdateStatus(ctx, ct.ID, contact.StatusNeedsBDR); err != nil {
		h.logger().Warn("inbound status bump failed", "contact_id", ct.ID, "error", err)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
