// Package executor runs funnel nodes against campaign rosters: it resolves
// node content once, then renders, dispatches and logs per contact.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outreach-platform/internal/campaign"
	"outreach-platform/internal/contact"
	"outreach-platform/internal/content"
	"outreach-platform/internal/dispatch"
	"outreach-platform/internal/funnel"
	"outreach-platform/internal/inbox"
	"outreach-platform/internal/media"
	"outreach-platform/internal/mergetag"
	"outreach-platform/internal/user"
)

var ErrNotFound = errors.New("not found")

// Skip reasons carried per item.
const (
	SkipNoPhone = "no_phone"
	SkipNoEmail = "no_email"
)

// Narrow views of the dispatch surface; tests swap in fakes.
type SMSSender interface {
	Send(ctx context.Context, req dispatch.SMSRequest) dispatch.SMSResult
}

type EmailSender interface {
	Send(ctx context.Context, req dispatch.EmailRequest) dispatch.EmailResult
}

// ItemResult is the outcome for one (contact, node) pair.
type ItemResult struct {
	ContactID string `json:"contactId"`
	NodeKey   string `json:"nodeKey"`
	Channel   string `json:"channel"`
	Sent      bool   `json:"sent"`
	Skipped   string `json:"skipped,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Report is the aggregate outcome of one execution. The HTTP layer returns
// the counts; Items keep the per-contact trail for logs and tests.
type Report struct {
	CampaignID string       `json:"campaignId"`
	SMSSent    int          `json:"smsSent"`
	EmailSent  int          `json:"emailSent"`
	VMQueued   int          `json:"vmQueued"`
	Items      []ItemResult `json:"items,omitempty"`
}

// Executor wires the graph, roster, resolver and channel adapters.
type Executor struct {
	campaigns campaign.Repository
	contacts  contact.Repository
	users     user.Repository
	graphs    funnel.Store
	resolver  *content.Resolver
	inbox     inbox.Repository

	sms   SMSSender
	email EmailSender
	vm    dispatch.VoicemailDropper
	tts   dispatch.Synthesizer
	blobs media.Store

	publicBase string
	log        *slog.Logger
}

type Config struct {
	Campaigns  campaign.Repository
	Contacts   contact.Repository
	Users      user.Repository
	Graphs     funnel.Store
	Resolver   *content.Resolver
	Inbox      inbox.Repository
	SMS        SMSSender
	Email      EmailSender
	Voicemail  dispatch.VoicemailDropper
	TTS        dispatch.Synthesizer
	Blobs      media.Store
	PublicBase string
	Logger     *slog.Logger
}

func New(cfg Config) *Executor {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		campaigns:  cfg.Campaigns,
		contacts:   cfg.Contacts,
		users:      cfg.Users,
		graphs:     cfg.Graphs,
		resolver:   cfg.Resolver,
		inbox:      cfg.Inbox,
		sms:        cfg.SMS,
		email:      cfg.Email,
		vm:         cfg.Voicemail,
		tts:        cfg.TTS,
		blobs:      cfg.Blobs,
		publicBase: cfg.PublicBase,
		log:        log,
	}
}

// Execute runs one node (by key) or, when nodeKey is empty, the first node
// of each message channel in graph order. A nodeKey matching no message
// node yields an empty report. Campaign and roster lookup failures are
// fatal; per-contact dispatch failures are recorded and the run continues.
func (e *Executor) Execute(ctx context.Context, campaignID, nodeKey string) (Report, error) {
	camp, err := e.campaigns.Get(ctx, campaignID)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			return Report{}, fmt.Errorf("campaign %s: %w", campaignID, ErrNotFound)
		}
		return Report{}, fmt.Errorf("load campaign: %w", err)
	}

	g, err := e.graphs.GetGraph(ctx, funnel.CampaignScope(campaignID))
	if err != nil {
		return Report{}, fmt.Errorf("load graph: %w", err)
	}

	nodes := selectNodes(g, nodeKey)

	roster, err := e.contacts.ListByCampaign(ctx, campaignID)
	if err != nil {
		return Report{}, fmt.Errorf("load roster: %w", err)
	}

	smsFrom, vmCaller := e.senderOverrides(ctx, camp)
	campaignCtx := camp.MergeContext()

	report := Report{CampaignID: campaignID}
	for _, node := range nodes {
		switch node.Type {
		case funnel.NodeSMSSend:
			err = e.runSMS(ctx, camp, node, roster, campaignCtx, smsFrom, &report)
		case funnel.NodeEmailSend:
			err = e.runEmail(ctx, camp, node, roster, campaignCtx, &report)
		case funnel.NodeVoicemailDrop:
			err = e.runVoicemail(ctx, camp, node, roster, campaignCtx, vmCaller, &report)
		}
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// selectNodes picks the first node per message channel in graph order. A
// non-empty nodeKey restricts the match to that key; a key naming no
// message node selects nothing and the run completes with zero counts.
func selectNodes(g funnel.Graph, nodeKey string) []funnel.Node {
	seen := map[funnel.NodeType]bool{}
	var out []funnel.Node
	for _, n := range g.Nodes {
		switch n.Type {
		case funnel.NodeSMSSend, funnel.NodeEmailSend, funnel.NodeVoicemailDrop:
			if nodeKey != "" && n.Key != nodeKey {
				continue
			}
			if !seen[n.Type] {
				seen[n.Type] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// senderOverrides loads the campaign's sender user, whose personal numbers
// take precedence over process-level provider defaults.
func (e *Executor) senderOverrides(ctx context.Context, camp campaign.Campaign) (smsFrom, vmCaller string) {
	if camp.SenderUserID == "" || e.users == nil {
		return "", ""
	}
	u, err := e.users.Get(ctx, camp.SenderUserID)
	if err != nil {
		e.log.Warn("sender user lookup failed", "user_id", camp.SenderUserID, "error", err)
		return "", ""
	}
	return u.SMSFromNumber, u.VMCallerID
}

func mergeContext(c contact.Contact, campaignCtx map[string]any) mergetag.Context {
	return mergetag.Context{
		"contact":  c.MergeValues(),
		"campaign": campaignCtx,
	}
}

func (e *Executor) runSMS(ctx context.Context, camp campaign.Campaign, node funnel.Node, roster []contact.Contact, campaignCtx map[string]any, smsFrom string, report *Report) error {
	template := e.resolver.ResolveSMSText(ctx, node.Config)

	for _, c := range roster {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := ItemResult{ContactID: c.ID, NodeKey: node.Key, Channel: inbox.ChannelSMS}
		if c.Phone == "" {
			item.Skipped = SkipNoPhone
			report.Items = append(report.Items, item)
			continue
		}

		text := strings.TrimSpace(mergetag.Render(template, mergeContext(c, campaignCtx)))
		res := e.sms.Send(ctx, dispatch.SMSRequest{To: c.Phone, Text: text, FromNumber: smsFrom})
		item.Sent = res.Sent
		item.Provider = res.Provider
		if res.Sent {
			report.SMSSent++
		} else {
			item.Detail = res.Raw
		}
		// The attempt is logged whether or not a provider accepted it;
		// only the count is gated on success.
		e.logOutbound(ctx, c.ID, inbox.ChannelSMS, inbox.Message{
			Direction:         inbox.DirectionOut,
			Text:              text,
			Provider:          res.Provider,
			ProviderMessageID: res.SID,
		})
		report.Items = append(report.Items, item)
	}
	return nil
}

func (e *Executor) runEmail(ctx context.Context, camp campaign.Campaign, node funnel.Node, roster []contact.Contact, campaignCtx map[string]any, report *Report) error {
	resolved := e.resolver.ResolveEmail(ctx, node.Config)

	for _, c := range roster {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := ItemResult{ContactID: c.ID, NodeKey: node.Key, Channel: inbox.ChannelEmail}
		if c.Email == "" {
			item.Skipped = SkipNoEmail
			report.Items = append(report.Items, item)
			continue
		}

		mctx := mergeContext(c, campaignCtx)
		subject := strings.TrimSpace(mergetag.Render(resolved.Subject, mctx))
		body := strings.TrimSpace(mergetag.Render(resolved.Body, mctx))
		res := e.email.Send(ctx, dispatch.EmailRequest{
			To:           c.Email,
			Subject:      subject,
			Body:         body,
			SenderUserID: camp.SenderUserID,
		})
		item.Sent = res.Sent
		item.Provider = res.Provider
		if !res.Sent {
			item.Detail = res.Raw
			report.Items = append(report.Items, item)
			continue
		}

		report.EmailSent++
		e.logOutbound(ctx, c.ID, inbox.ChannelEmail, inbox.Message{
			Direction: inbox.DirectionOut,
			Text:      body,
			Subject:   subject,
			Provider:  res.Provider,
		})
		report.Items = append(report.Items, item)
	}
	return nil
}

func (e *Executor) runVoicemail(ctx context.Context, camp campaign.Campaign, node funnel.Node, roster []contact.Contact, campaignCtx map[string]any, vmCaller string, report *Report) error {
	script := e.resolver.ResolveVoicemailScript(ctx, node.Config)

	var voiceID, modelID string
	if node.Config.TTS != nil {
		voiceID = node.Config.TTS.VoiceID
		modelID = node.Config.TTS.ModelID
	}

	for _, c := range roster {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := ItemResult{ContactID: c.ID, NodeKey: node.Key, Channel: inbox.ChannelSMS}
		if c.Phone == "" {
			item.Skipped = SkipNoPhone
			report.Items = append(report.Items, item)
			continue
		}

		rendered := mergetag.Render(script, mergeContext(c, campaignCtx))
		audioURL := e.synthesizeAudio(ctx, rendered, voiceID, modelID)

		res := e.vm.Drop(ctx, dispatch.VoicemailRequest{
			To:         c.Phone,
			AudioURL:   audioURL,
			CallerID:   vmCaller,
			CampaignID: camp.ID,
		})
		item.Sent = res.Queued
		item.Provider = res.Provider
		if !res.Queued {
			item.Detail = res.Raw
			report.Items = append(report.Items, item)
			continue
		}

		report.VMQueued++
		// Voicemail history rides in the sms conversation.
		e.logOutbound(ctx, c.ID, inbox.ChannelSMS, inbox.Message{
			Direction:         inbox.DirectionOut,
			Text:              "[Voicemail drop queued]",
			Provider:          res.Provider,
			ProviderMessageID: res.SessionID,
		})
		report.Items = append(report.Items, item)
	}
	return nil
}

// synthesizeAudio renders the script to MP3 and stores it behind a public
// URL. Any failure degrades to no audio URL; the drop provider falls back
// to its default recording.
func (e *Executor) synthesizeAudio(ctx context.Context, script, voiceID, modelID string) string {
	if script == "" || e.tts == nil || e.blobs == nil || e.publicBase == "" {
		return ""
	}
	res := e.tts.Synthesize(ctx, dispatch.TTSRequest{Script: script, VoiceID: voiceID, ModelID: modelID})
	if !res.OK {
		e.log.Warn("tts synthesis failed, dropping without audio url", "reason", res.Raw)
		return ""
	}
	id, err := e.blobs.Put(ctx, res.Audio)
	if err != nil {
		e.log.Warn("could not store synthesized audio", "error", err)
		return ""
	}
	return media.PublicURL(e.publicBase, id)
}

func (e *Executor) logOutbound(ctx context.Context, contactID, channel string, msg inbox.Message) {
	conv, err := e.inbox.FindOrCreateConversation(ctx, contactID, channel)
	if err != nil {
		e.log.Warn("conversation lookup failed", "contact_id", contactID, "channel", channel, "error", err)
		return
	}
	msg.ConversationID = conv.ID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if err := e.inbox.AppendMessage(ctx, msg); err != nil {
		e.log.Warn("message log failed", "conversation_id", conv.ID, "error", err)
	}
}
