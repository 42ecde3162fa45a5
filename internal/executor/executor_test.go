package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"outreach-platform/internal/campaign"
	"outreach-platform/internal/contact"
	"outreach-platform/internal/content"
	"outreach-platform/internal/dispatch"
	"outreach-platform/internal/funnel"
	"outreach-platform/internal/inbox"
	"outreach-platform/internal/media"
	"outreach-platform/internal/user"
)

type fakeSMS struct {
	requests []dispatch.SMSRequest
	fail     bool
}

func (f *fakeSMS) Send(ctx context.Context, req dispatch.SMSRequest) dispatch.SMSResult {
	_ = ctx
	f.requests = append(f.requests, req)
	if f.fail {
		return dispatch.SMSResult{Sent: false, Provider: "bonzo", Raw: "rejected"}
	}
	return dispatch.SMSResult{Sent: true, Provider: "twilio", SID: "SM1"}
}

type fakeEmail struct {
	requests []dispatch.EmailRequest
}

func (f *fakeEmail) Send(ctx context.Context, req dispatch.EmailRequest) dispatch.EmailResult {
	_ = ctx
	f.requests = append(f.requests, req)
	return dispatch.EmailResult{Sent: true, Provider: "smtp"}
}

type fakeDropper struct {
	requests []dispatch.VoicemailRequest
}

func (f *fakeDropper) Drop(ctx context.Context, req dispatch.VoicemailRequest) dispatch.VoicemailResult {
	_ = ctx
	f.requests = append(f.requests, req)
	return dispatch.VoicemailResult{Queued: true, Provider: "slybroadcast", SessionID: "42"}
}

type fakeTTS struct {
	scripts []string
	ok      bool
}

func (f *fakeTTS) Synthesize(ctx context.Context, req dispatch.TTSRequest) dispatch.TTSResult {
	_ = ctx
	f.scripts = append(f.scripts, req.Script)
	if !f.ok {
		return dispatch.TTSResult{OK: false, Raw: "quota"}
	}
	return dispatch.TTSResult{OK: true, Audio: []byte{1, 2, 3}}
}

type fixture struct {
	exec      *Executor
	campaigns *campaign.MemoryRepo
	contacts  *contact.MemoryRepo
	inbox     *inbox.MemoryRepo
	graphs    *funnel.MemoryStore
	sms       *fakeSMS
	email     *fakeEmail
	vm        *fakeDropper
	tts       *fakeTTS
	camp      campaign.Campaign
}

func newFixture(t *testing.T, nodes []funnel.Node) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		campaigns: campaign.NewMemoryRepo(),
		contacts:  contact.NewMemoryRepo(),
		inbox:     inbox.NewMemoryRepo(),
		graphs:    funnel.NewMemoryStore(),
		sms:       &fakeSMS{},
		email:     &fakeEmail{},
		vm:        &fakeDropper{},
		tts:       &fakeTTS{ok: true},
	}

	users := user.NewMemoryRepo()
	if err := users.Create(ctx, user.User{
		ID: "sender-1", Name: "Pat", Email: "pat@example.com", Role: "bdr",
		SMSFromNumber: "+15559990000", VMCallerID: "+15558880000",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	f.camp = campaign.Campaign{
		ID: "camp-1", Name: "Dallas Event", Status: campaign.StatusActive,
		OwnerName: "Alex Realtor", SenderUserID: "sender-1",
	}
	if err := f.campaigns.Create(ctx, f.camp); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}

	seed := []contact.Contact{
		{ID: "c1", CampaignID: "camp-1", Name: "Jane Doe", Phone: "+15551112222", Email: "jane@example.com", Status: contact.StatusNoActivity},
		{ID: "c2", CampaignID: "camp-1", Name: "Sam Lee", Phone: "+15553334444", Status: contact.StatusNoActivity},
		{ID: "c3", CampaignID: "camp-1", Name: "No Phone", Email: "np@example.com", Status: contact.StatusNoActivity},
	}
	for _, c := range seed {
		if err := f.contacts.Create(ctx, c); err != nil {
			t.Fatalf("seed contact: %v", err)
		}
	}

	if err := f.graphs.ReplaceGraph(ctx, funnel.CampaignScope("camp-1"), funnel.Graph{Nodes: nodes}); err != nil {
		t.Fatalf("seed graph: %v", err)
	}

	f.exec = New(Config{
		Campaigns:  f.campaigns,
		Contacts:   f.contacts,
		Users:      users,
		Graphs:     f.graphs,
		Resolver:   content.NewResolver(content.NewMemoryRepo(), nil),
		Inbox:      f.inbox,
		SMS:        f.sms,
		Email:      f.email,
		Voicemail:  f.vm,
		TTS:        f.tts,
		Blobs:      media.NewMemoryStore(time.Hour),
		PublicBase: "https://outreach.example.com",
	})
	return f
}

func smsNode(t *testing.T, key, text string) funnel.Node {
	t.Helper()
	cfg, err := funnel.NewNodeConfig([]byte(`{"text":"` + text + `"}`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return funnel.Node{Key: key, Type: funnel.NodeSMSSend, Name: "SMS", Config: cfg}
}

func TestExecute_SMSCountsAndSkips(t *testing.T) {
	f := newFixture(t, []funnel.Node{smsNode(t, "n1", "Hi {{contact.first_name}} from {{campaign.owner_name}}")})

	report, err := f.exec.Execute(context.Background(), "camp-1", "n1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if report.SMSSent != 2 {
		t.Fatalf("expected 2 sms sent, got %d", report.SMSSent)
	}
	if len(report.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(report.Items))
	}

	var skipped *ItemResult
	for i := range report.Items {
		if report.Items[i].ContactID == "c3" {
			skipped = &report.Items[i]
		}
	}
	if skipped == nil || skipped.Skipped != SkipNoPhone {
		t.Fatalf("phoneless contact should be skipped: %+v", skipped)
	}

	if f.sms.requests[0].Text != "Hi Jane from Alex Realtor" {
		t.Fatalf("merge tags not rendered: %q", f.sms.requests[0].Text)
	}
	if f.sms.requests[0].FromNumber != "+15559990000" {
		t.Fatalf("sender user sms from number not applied: %q", f.sms.requests[0].FromNumber)
	}
}

func TestExecute_LogsOutboundMessages(t *testing.T) {
	f := newFixture(t, []funnel.Node{smsNode(t, "n1", "hello")})
	ctx := context.Background()

	if _, err := f.exec.Execute(ctx, "camp-1", "n1"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	conv, err := f.inbox.FindOrCreateConversation(ctx, "c1", inbox.ChannelSMS)
	if err != nil {
		t.Fatalf("conv: %v", err)
	}
	msgs, err := f.inbox.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("msgs: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Direction != inbox.DirectionOut || msgs[0].ProviderMessageID != "SM1" {
		t.Fatalf("outbound log wrong: %+v", msgs)
	}
}

func TestExecute_DispatchFailureContinuesRun(t *testing.T) {
	f := newFixture(t, []funnel.Node{smsNode(t, "n1", "x")})
	f.sms.fail = true
	ctx := context.Background()

	report, err := f.exec.Execute(ctx, "camp-1", "n1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if report.SMSSent != 0 {
		t.Fatalf("nothing should count as sent, got %d", report.SMSSent)
	}
	if len(f.sms.requests) != 2 {
		t.Fatalf("both phone contacts should be attempted, got %d", len(f.sms.requests))
	}
	for _, item := range report.Items {
		if item.ContactID != "c3" && item.Detail != "rejected" {
			t.Fatalf("failure detail missing: %+v", item)
		}
	}

	// The rejected attempt still shows up in the conversation.
	conv, err := f.inbox.FindOrCreateConversation(ctx, "c1", inbox.ChannelSMS)
	if err != nil {
		t.Fatalf("conv: %v", err)
	}
	msgs, err := f.inbox.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("msgs: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Direction != inbox.DirectionOut || msgs[0].Provider != "bonzo" {
		t.Fatalf("failed send must be logged: %+v", msgs)
	}
}

func TestExecute_VoicemailLogsIntoSMSConversation(t *testing.T) {
	cfg, err := funnel.NewNodeConfig([]byte(`{"tts":{"custom_script":"Hi {{contact.first_name}}","voice_id":"v9"}}`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	f := newFixture(t, []funnel.Node{{Key: "vm1", Type: funnel.NodeVoicemailDrop, Name: "Drop", Config: cfg}})
	ctx := context.Background()

	report, err := f.exec.Execute(ctx, "camp-1", "vm1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if report.VMQueued != 2 {
		t.Fatalf("expected 2 drops queued, got %d", report.VMQueued)
	}

	if f.tts.scripts[0] != "Hi Jane" {
		t.Fatalf("script not rendered per contact: %q", f.tts.scripts[0])
	}
	if f.vm.requests[0].AudioURL == "" {
		t.Fatalf("synthesized audio URL missing")
	}
	if f.vm.requests[0].CallerID != "+15558880000" {
		t.Fatalf("vm caller id override not applied: %q", f.vm.requests[0].CallerID)
	}

	conv, _ := f.inbox.FindOrCreateConversation(ctx, "c1", inbox.ChannelSMS)
	msgs, _ := f.inbox.ListMessages(ctx, conv.ID)
	if len(msgs) != 1 || msgs[0].Text != "[Voicemail drop queued]" {
		t.Fatalf("voicemail must log into the sms conversation: %+v", msgs)
	}
}

func TestExecute_TTSFailureStillDrops(t *testing.T) {
	cfg, _ := funnel.NewNodeConfig([]byte(`{"tts":{"custom_script":"hello"}}`))
	f := newFixture(t, []funnel.Node{{Key: "vm1", Type: funnel.NodeVoicemailDrop, Name: "Drop", Config: cfg}})
	f.tts.ok = false

	report, err := f.exec.Execute(context.Background(), "camp-1", "vm1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if report.VMQueued != 2 {
		t.Fatalf("drops should proceed without audio, got %d", report.VMQueued)
	}
	if f.vm.requests[0].AudioURL != "" {
		t.Fatalf("failed synthesis must not produce a URL: %q", f.vm.requests[0].AudioURL)
	}
}

func TestExecute_FirstNodePerChannel(t *testing.T) {
	emailCfg, _ := funnel.NewNodeConfig([]byte(`{"content":{"subject":"Hello","body":"Body"}}`))
	f := newFixture(t, []funnel.Node{
		smsNode(t, "s1", "first sms"),
		smsNode(t, "s2", "second sms"),
		{Key: "e1", Type: funnel.NodeEmailSend, Name: "Email", Config: emailCfg},
		{Key: "w1", Type: funnel.NodeWait, Name: "Hold"},
	})

	report, err := f.exec.Execute(context.Background(), "camp-1", "")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if report.SMSSent != 2 || report.EmailSent != 2 {
		t.Fatalf("got %+v", report)
	}
	// Only the first sms node runs.
	for _, req := range f.sms.requests {
		if req.Text != "first sms" {
			t.Fatalf("second sms node must not run: %q", req.Text)
		}
	}
	if len(f.email.requests) != 2 {
		t.Fatalf("email roster wrong: %d", len(f.email.requests))
	}
}

func TestExecute_UnknownCampaign(t *testing.T) {
	f := newFixture(t, []funnel.Node{smsNode(t, "n1", "x")})

	if _, err := f.exec.Execute(context.Background(), "nope", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for campaign, got %v", err)
	}
}

func TestExecute_NodeKeySelectsOnlyMessageNodes(t *testing.T) {
	f := newFixture(t, []funnel.Node{
		{Key: "d1", Type: funnel.NodeDecision, Name: "Replied?"},
		smsNode(t, "s1", "hello"),
	})
	ctx := context.Background()

	// A key on a non-message node runs nothing and is not an error.
	report, err := f.exec.Execute(ctx, "camp-1", "d1")
	if err != nil {
		t.Fatalf("execute decision key: %v", err)
	}
	if report.SMSSent != 0 || report.EmailSent != 0 || report.VMQueued != 0 || len(f.sms.requests) != 0 {
		t.Fatalf("decision key must dispatch nothing: %+v", report)
	}

	// An unknown key behaves the same way.
	report, err = f.exec.Execute(ctx, "camp-1", "ghost")
	if err != nil {
		t.Fatalf("execute unknown key: %v", err)
	}
	if report.SMSSent != 0 || len(f.sms.requests) != 0 {
		t.Fatalf("unknown key must dispatch nothing: %+v", report)
	}

	// The real node still runs when named.
	report, err = f.exec.Execute(ctx, "camp-1", "s1")
	if err != nil {
		t.Fatalf("execute sms key: %v", err)
	}
	if report.SMSSent != 2 {
		t.Fatalf("named sms node should run, got %+v", report)
	}
}

func TestExecute_TrimsRenderedText(t *testing.T) {
	emailCfg, err := funnel.NewNodeConfig([]byte(`{"content":{"subject":"Hi {{contact.company}}","body":"Body {{contact.company}}"}}`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	f := newFixture(t, []funnel.Node{
		smsNode(t, "s1", "Hi {{contact.first_name}} {{contact.company}}"),
		{Key: "e1", Type: funnel.NodeEmailSend, Name: "Email", Config: emailCfg},
	})

	if _, err := f.exec.Execute(context.Background(), "camp-1", ""); err != nil {
		t.Fatalf("execute: %v", err)
	}
	// Contacts have no company, so the tag renders empty and the trailing
	// space is trimmed.
	if f.sms.requests[0].Text != "Hi Jane" {
		t.Fatalf("sms text not trimmed: %q", f.sms.requests[0].Text)
	}
	if f.email.requests[0].Subject != "Hi" || f.email.requests[0].Body != "Body" {
		t.Fatalf("email not trimmed: %q / %q", f.email.requests[0].Subject, f.email.requests[0].Body)
	}
}

func TestExecute_ContextCancellationStopsLoop(t *testing.T) {
	f := newFixture(t, []funnel.Node{smsNode(t, "n1", "x")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.exec.Execute(ctx, "camp-1", "n1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(f.sms.requests) != 0 {
		t.Fatalf("no sends after cancellation, got %d", len(f.sms.requests))
	}
}
