package httpapi

import (
	"net/http"

	"outreach-platform/internal/dispatch"
	"outreach-platform/internal/inbox"
	"outreach-platform/internal/media"

	"github.com/gin-gonic/gin"
)

// SendSMS sends one message outside any funnel run. The destination is
// the explicit number or the contact's phone; with a contactId the send
// is logged to the contact's sms conversation whether or not a provider
// accepted it, so the inbox shows the attempt.
func (h Handlers) SendSMS(c *gin.Context) {
	var req struct {
		To        string `json:"to,omitempty"`
		Text      string `json:"text"`
		ContactID string `json:"contactId,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	if req.Text == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "text required"})
		return
	}

	ctx := c.Request.Context()
	to := req.To
	if to == "" && req.ContactID != "" {
		ct, err := h.Contacts.Get(ctx, req.ContactID)
		if err != nil {
			h.fail(c, err)
			return
		}
		to = ct.Phone
	}
	to = dispatch.NormalizeE164BestEffort(to)
	if to == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing destination number"})
		return
	}

	res := h.SMS.Send(ctx, dispatch.SMSRequest{To: to, Text: req.Text})

	if req.ContactID != "" {
		conv, err := h.Inbox.FindOrCreateConversation(ctx, req.ContactID, inbox.ChannelSMS)
		if err == nil {
			_ = h.Inbox.AppendMessage(ctx, inbox.Message{
				ConversationID:    conv.ID,
				Direction:         inbox.DirectionOut,
				Text:              req.Text,
				Provider:          res.Provider,
				ProviderMessageID: res.SID,
			})
		} else {
			h.logger().Warn("could not log direct sms", "contact_id", req.ContactID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"sent":      res.Sent,
		"sid":       res.SID,
		"provider":  res.Provider,
		"simulated": !res.Sent,
	})
}

// DropVoicemail queues a single ringless voicemail. A ttsScript without an
// audioUrl is synthesized and hosted under the public media base first.
func (h Handlers) DropVoicemail(c *gin.Context) {
	var req struct {
		To         string `json:"to,omitempty"`
		ContactID  string `json:"contactId,omitempty"`
		AudioURL   string `json:"audioUrl,omitempty"`
		TTSScript  string `json:"ttsScript,omitempty"`
		CallerID   string `json:"callerId,omitempty"`
		ScheduleAt string `json:"scheduleAt,omitempty"`
		CampaignID string `json:"campaignId,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}

	ctx := c.Request.Context()
	to := req.To
	if to == "" && req.ContactID != "" {
		ct, err := h.Contacts.Get(ctx, req.ContactID)
		if err != nil {
			h.fail(c, err)
			return
		}
		to = ct.Phone
	}
	if to == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing destination number"})
		return
	}

	audioURL := req.AudioURL
	if audioURL == "" && req.TTSScript != "" && h.TTS != nil && h.Blobs != nil && h.PublicBase != "" {
		tts := h.TTS.Synthesize(ctx, dispatch.TTSRequest{Script: req.TTSScript})
		if tts.OK {
			id, err := h.Blobs.Put(ctx, tts.Audio)
			if err == nil {
				audioURL = media.PublicURL(h.PublicBase, id)
			} else {
				h.logger().Warn("could not store synthesized audio", "error", err)
			}
		} else {
			h.logger().Warn("tts synthesis failed, dropping without audio url", "reason", tts.Raw)
		}
	}

	res := h.Voicemail.Drop(ctx, dispatch.VoicemailRequest{
		To:         to,
		AudioURL:   audioURL,
		CallerID:   req.CallerID,
		ScheduleAt: req.ScheduleAt,
		CampaignID: req.CampaignID,
	})

	if req.ContactID != "" {
		conv, err := h.Inbox.FindOrCreateConversation(ctx, req.ContactID, inbox.ChannelSMS)
		if err == nil {
			_ = h.Inbox.AppendMessage(ctx, inbox.Message{
				ConversationID: conv.ID,
				Direction:      inbox.DirectionOut,
				Text:           "[Voicemail drop queued]",
				Provider:       res.Provider,
			})
		} else {
			h.logger().Warn("could not log voicemail drop", "contact_id", req.ContactID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       res.Queued,
		"provider": res.Provider,
		"id":       res.SessionID,
		"raw":      res.Raw,
	})
}

// SendEmail sends one plain-text email. With a contactId a successful send
// lands in the contact's email conversation, subject folded into the text.
func (h Handlers) SendEmail(c *gin.Context) {
	var req struct {
		To        string `json:"to"`
		Subject   string `json:"subject,omitempty"`
		Body      string `json:"body,omitempty"`
		UserID    string `json:"userId,omitempty"`
		ContactID string `json:"contactId,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	if req.To == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to required"})
		return
	}

	ctx := c.Request.Context()
	res := h.Email.Send(ctx, dispatch.EmailRequest{
		To:           req.To,
		Subject:      req.Subject,
		Body:         req.Body,
		SenderUserID: req.UserID,
	})
	if !res.Sent {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": res.Raw})
		return
	}

	if req.ContactID != "" {
		text := req.Body
		if req.Subject != "" {
			text = "[" + req.Subject + "]\n\n" + req.Body
		}
		conv, err := h.Inbox.FindOrCreateConversation(ctx, req.ContactID, inbox.ChannelEmail)
		if err == nil {
			_ = h.Inbox.AppendMessage(ctx, inbox.Message{
				ConversationID: conv.ID,
				Direction:      inbox.DirectionOut,
				Text:           text,
				Subject:        req.Subject,
				Provider:       res.Provider,
			})
		} else {
			h.logger().Warn("could not log email send", "contact_id", req.ContactID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "from": res.From})
}
