package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"outreach-platform/internal/auth"
	"outreach-platform/internal/campaign"
	"outreach-platform/internal/config"
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

type fakeSMS struct {
	reqs []dispatch.SMSRequest
	fail bool
}

func (f *fakeSMS) Send(_ context.Context, req dispatch.SMSRequest) dispatch.SMSResult {
	f.reqs = append(f.reqs, req)
	if f.fail {
		return dispatch.SMSResult{Sent: false, Provider: "bonzo", Raw: "rejected"}
	}
	return dispatch.SMSResult{Sent: true, Provider: "twilio", SID: "SM1"}
}

type fakeEmail struct {
	reqs []dispatch.EmailRequest
}

func (f *fakeEmail) Send(_ context.Context, req dispatch.EmailRequest) dispatch.EmailResult {
	f.reqs = append(f.reqs, req)
	return dispatch.EmailResult{Sent: true, Provider: "smtp", From: "ops@example.com"}
}

type fakeDropper struct {
	reqs []dispatch.VoicemailRequest
}

func (f *fakeDropper) Drop(_ context.Context, req dispatch.VoicemailRequest) dispatch.VoicemailResult {
	f.reqs = append(f.reqs, req)
	return dispatch.VoicemailResult{Queued: true, Provider: "slybroadcast", SessionID: "42"}
}

type fakeTTS struct{}

func (fakeTTS) Synthesize(context.Context, dispatch.TTSRequest) dispatch.TTSResult {
	return dispatch.TTSResult{OK: true, Audio: []byte("mp3-bytes")}
}

const testWebhookToken = "hook-secret"

type env struct {
	h       Handlers
	router  *gin.Engine
	manager *auth.Manager

	users     *user.MemoryRepo
	contacts  *contact.MemoryRepo
	inboxRepo *inbox.MemoryRepo
	campaigns *campaign.MemoryRepo
	blobs     *media.MemoryStore
	sms       *fakeSMS
	email     *fakeEmail
	vm        *fakeDropper
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := user.NewMemoryRepo()
	contactsRepo := contact.NewMemoryRepo()
	inboxRepo := inbox.NewMemoryRepo()
	campaignRepo := campaign.NewMemoryRepo()
	graphs := funnel.NewMemoryStore()
	contentRepo := content.NewMemoryRepo()
	blobs := media.NewMemoryStore(time.Hour)
	sms := &fakeSMS{}
	mail := &fakeEmail{}
	vm := &fakeDropper{}

	funnelSvc := funnel.NewService(funnel.NewMemoryTemplateRepo(), funnel.NewMemoryVersionRepo(), graphs, campaignRepo)

	exec := executor.New(executor.Config{
		Campaigns:  campaignRepo,
		Contacts:   contactsRepo,
		Users:      users,
		Graphs:     graphs,
		Resolver:   content.NewResolver(contentRepo, log),
		Inbox:      inboxRepo,
		SMS:        sms,
		Email:      mail,
		Voicemail:  vm,
		TTS:        fakeTTS{},
		Blobs:      blobs,
		PublicBase: "https://api.example.com",
		Logger:     log,
	})

	h := Handlers{
		Log:               log,
		Auth:              auth.NewService(users, manager),
		Funnels:           funnelSvc,
		Content:           contentRepo,
		Campaigns:         campaign.NewService(campaignRepo, graphs),
		Contacts:          contact.NewService(contactsRepo, inboxRepo, log),
		Inbox:             inboxRepo,
		Users:             users,
		Stats:             stats.NewService(stats.NewMemoryRepo()),
		Exec:              exec,
		SMS:               sms,
		Email:             mail,
		Voicemail:         vm,
		TTS:               fakeTTS{},
		Blobs:             blobs,
		PublicBase:        "https://api.example.com",
		BonzoWebhookToken: testWebhookToken,
	}

	r := gin.New()
	r.GET("/media/vm/:file", h.ServeVoicemailAudio)
	r.POST("/media/upload/raw", h.UploadRawAudio)
	r.POST("/api/twilio/inbound-sms", h.TwilioInboundSMS)
	r.POST("/api/bonzo/inbound-sms", h.BonzoInboundSMS)
	r.POST("/api/auth/login", h.Login)

	api := r.Group("/api")
	api.Use(auth.RequireAccessToken(manager))
	{
		api.GET("/auth/me", h.Me)
		api.POST("/templates", h.CreateTemplate)
		api.GET("/templates/:id/graph", h.GetTemplateGraph)
		api.PUT("/templates/:id/graph", h.PutTemplateGraph)
		api.GET("/templates/:id/export/csv", h.ExportTemplateCSV)
		api.POST("/templates/:id/import/csv", h.ImportTemplateCSV)
		api.POST("/campaigns", h.CreateCampaign)
		api.PATCH("/campaigns/:id", h.PatchCampaign)
		api.GET("/campaigns/:id/graph", h.GetCampaignGraph)
		api.POST("/campaigns/:id/execute", h.ExecuteCampaign)
		api.GET("/campaigns/:id/contacts", h.ListCampaignContacts)
		api.POST("/campaigns/:id/contacts/bulk", h.BulkCreateContacts)
		api.PATCH("/contacts/:id", h.PatchContact)
		api.POST("/sms/send", h.SendSMS)
		api.POST("/email/send", h.SendEmail)
	}

	return &env{
		h:         h,
		router:    r,
		manager:   manager,
		users:     users,
		contacts:  contactsRepo,
		inboxRepo: inboxRepo,
		campaigns: campaignRepo,
		blobs:     blobs,
		sms:       sms,
		email:     mail,
		vm:        vm,
	}
}

func (e *env) bearer(t *testing.T) string {
	t.Helper()
	pair, err := e.manager.IssuePair(time.Now(), "u1", "u1@example.com", "bdr")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	return "Bearer " + pair.AccessToken
}

func (e *env) do(t *testing.T, method, path, body, contentType, authz string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) doJSON(t *testing.T, method, path, body, authz string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, method, path, body, "application/json", authz)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestLoginIssuesTokensAndMe(t *testing.T) {
	e := newEnv(t)
	hash, err := auth.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := e.users.Create(context.Background(), user.User{
		ID: "u1", Name: "Pat", Email: "bdr@example.com", Role: "bdr", PasswordHash: hash,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	w := e.doJSON(t, http.MethodPost, "/api/auth/login", `{"email":"bdr@example.com","password":"hunter2"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", w.Code, w.Body.String())
	}
	var login struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	decode(t, w, &login)
	if login.AccessToken == "" {
		t.Fatalf("expected access token")
	}
	if login.User.Email != "bdr@example.com" {
		t.Fatalf("unexpected user: %q", login.User.Email)
	}

	w = e.do(t, http.MethodGet, "/api/auth/me", "", "", "Bearer "+login.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("me status %d: %s", w.Code, w.Body.String())
	}
	var me struct {
		Email string `json:"email"`
	}
	decode(t, w, &me)
	if me.Email != "bdr@example.com" {
		t.Fatalf("me returned %q", me.Email)
	}

	w = e.doJSON(t, http.MethodPost, "/api/auth/login", `{"email":"bdr@example.com","password":"wrong"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/auth/me", "", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status %d", w.Code)
	}
}

func TestTemplateGraphCSVRoundTrip(t *testing.T) {
	e := newEnv(t)
	tok := e.bearer(t)

	w := e.doJSON(t, http.MethodPost, "/api/templates", `{"name":"Default Funnel"}`, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("create template status %d: %s", w.Code, w.Body.String())
	}
	var tpl struct {
		ID string `json:"id"`
	}
	decode(t, w, &tpl)

	graphJSON := `{
		"nodes": [
			{"id":"s1","type":"sms_send","name":"Intro","config":{"message":"Hi {{contact.first_name}}"},"position":{"x":100,"y":80}},
			{"id":"w1","type":"wait","name":"Cool off","config":{},"position":{"x":100,"y":200}}
		],
		"edges": [{"from":"s1","to":"w1"}]
	}`
	w = e.doJSON(t, http.MethodPut, "/api/templates/"+tpl.ID+"/graph", graphJSON, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("put graph status %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/api/templates/"+tpl.ID+"/export/csv", "", "", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("export status %d", w.Code)
	}
	csvBody := w.Body.String()
	if !strings.Contains(csvBody, "NodeID") || !strings.Contains(csvBody, "s1") {
		t.Fatalf("unexpected csv: %q", csvBody)
	}

	w = e.doJSON(t, http.MethodPost, "/api/templates", `{"name":"Restored"}`, tok)
	var tpl2 struct {
		ID string `json:"id"`
	}
	decode(t, w, &tpl2)

	w = e.do(t, http.MethodPost, "/api/templates/"+tpl2.ID+"/import/csv", csvBody, "text/csv", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("import status %d: %s", w.Code, w.Body.String())
	}
	var imported struct {
		Nodes int `json:"nodes"`
		Edges int `json:"edges"`
	}
	decode(t, w, &imported)
	if imported.Nodes != 2 || imported.Edges != 1 {
		t.Fatalf("imported %d nodes %d edges", imported.Nodes, imported.Edges)
	}

	w = e.do(t, http.MethodGet, "/api/templates/"+tpl2.ID+"/graph", "", "", tok)
	var g funnel.Graph
	decode(t, w, &g)
	if len(g.Nodes) != 2 {
		t.Fatalf("restored graph has %d nodes", len(g.Nodes))
	}
}

func TestCreateCampaignClonesTemplateGraph(t *testing.T) {
	e := newEnv(t)
	tok := e.bearer(t)
	ctx := context.Background()

	tpl, err := e.h.Funnels.CreateTemplate(ctx, "Seller Event")
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	g := funnel.Graph{
		Nodes: []funnel.Node{{Key: "s1", Type: funnel.NodeSMSSend, Name: "Intro", Config: funnel.NodeConfig{Message: "Hi"}}},
		Edges: []funnel.Edge{},
	}
	if err := e.h.Funnels.SaveGraph(ctx, funnel.TemplateScope(tpl.ID), g); err != nil {
		t.Fatalf("save graph: %v", err)
	}

	w := e.doJSON(t, http.MethodPost, "/api/campaigns", `{"name":"Spring Tour","ownerName":"Alex Realtor","templateId":"`+tpl.ID+`"}`, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("create campaign status %d: %s", w.Code, w.Body.String())
	}
	var camp struct {
		ID string `json:"id"`
	}
	decode(t, w, &camp)

	w = e.do(t, http.MethodGet, "/api/campaigns/"+camp.ID+"/graph", "", "", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("campaign graph status %d", w.Code)
	}
	var cloned funnel.Graph
	decode(t, w, &cloned)
	if len(cloned.Nodes) != 1 || cloned.Nodes[0].Key != "s1" {
		t.Fatalf("clone missing nodes: %+v", cloned)
	}

	w = e.doJSON(t, http.MethodPatch, "/api/campaigns/nope", `{"name":"x"}`, tok)
	if w.Code != http.StatusNotFound {
		t.Fatalf("patch unknown campaign status %d", w.Code)
	}
}

func TestBulkContactsAndStatusPatch(t *testing.T) {
	e := newEnv(t)
	tok := e.bearer(t)
	ctx := context.Background()

	camp, err := e.h.Campaigns.Create(ctx, campaign.CreateRequest{Name: "Roster Test"})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	body := `{"contacts":[
		{"name":"Jane Doe","phone":"+15551234567"},
		{"name":"Sam Lee","email":"sam@example.com"},
		{"name":""}
	]}`
	w := e.doJSON(t, http.MethodPost, "/api/campaigns/"+camp.ID+"/contacts/bulk", body, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("bulk status %d: %s", w.Code, w.Body.String())
	}
	var bulk struct {
		Created  int               `json:"created"`
		Contacts []contact.Contact `json:"contacts"`
	}
	decode(t, w, &bulk)
	if bulk.Created != 2 {
		t.Fatalf("created %d, want 2", bulk.Created)
	}

	w = e.do(t, http.MethodGet, "/api/campaigns/"+camp.ID+"/contacts", "", "", tok)
	var roster []contact.Contact
	decode(t, w, &roster)
	if len(roster) != 2 {
		t.Fatalf("roster has %d contacts", len(roster))
	}

	w = e.doJSON(t, http.MethodPatch, "/api/contacts/"+bulk.Contacts[0].ID, `{"status":"Received RSVP"}`, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status %d: %s", w.Code, w.Body.String())
	}
	var patched contact.Contact
	decode(t, w, &patched)
	if patched.Status != contact.StatusReceivedRSVP {
		t.Fatalf("status %q after patch", patched.Status)
	}
}

func TestSendSMSLogsToConversation(t *testing.T) {
	e := newEnv(t)
	tok := e.bearer(t)
	ctx := context.Background()

	if err := e.contacts.Create(ctx, contact.Contact{
		ID: "c1", CampaignID: "camp-1", Name: "Jane Doe", Phone: "5551234567", Status: contact.StatusNoActivity,
	}); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	w := e.doJSON(t, http.MethodPost, "/api/sms/send", `{"contactId":"c1","text":"Hello there"}`, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("send status %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Sent bool   `json:"sent"`
		SID  string `json:"sid"`
	}
	decode(t, w, &res)
	if !res.Sent || res.SID != "SM1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(e.sms.reqs) != 1 {
		t.Fatalf("provider saw %d requests", len(e.sms.reqs))
	}

	conv, err := e.inboxRepo.FindOrCreateConversation(ctx, "c1", inbox.ChannelSMS)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	msgs, err := e.inboxRepo.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Direction != inbox.DirectionOut || msgs[0].ProviderMessageID != "SM1" {
		t.Fatalf("unexpected log: %+v", msgs)
	}

	w = e.doJSON(t, http.MethodPost, "/api/sms/send", `{"text":"no destination"}`, tok)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing destination status %d", w.Code)
	}
}

func TestTwilioInboundMatchesContact(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if err := e.contacts.Create(ctx, contact.Contact{
		ID: "c1", CampaignID: "camp-1", Name: "Jane Doe", Phone: "+1 (555) 123-4567", Status: contact.StatusNoActivity,
	}); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	form := "From=%2B15551234567&Body=What+time+is+the+event%3F"
	w := e.do(t, http.MethodPost, "/api/twilio/inbound-sms", form, "application/x-www-form-urlencoded", "")
	if w.Code != http.StatusOK {
		t.Fatalf("webhook status %d", w.Code)
	}
	if w.Body.String() != "<Response></Response>" {
		t.Fatalf("unexpected twiml: %q", w.Body.String())
	}

	conv, err := e.inboxRepo.FindOrCreateConversation(ctx, "c1", inbox.ChannelSMS)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	msgs, err := e.inboxRepo.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Direction != inbox.DirectionIn {
		t.Fatalf("unexpected inbound log: %+v", msgs)
	}

	ct, err := e.contacts.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("contact: %v", err)
	}
	if ct.Status != contact.StatusNeedsBDR {
		t.Fatalf("status %q after inbound", ct.Status)
	}

	// No match still returns empty TwiML.
	w = e.do(t, http.MethodPost, "/api/twilio/inbound-sms", "From=%2B19998887777&Body=hi", "application/x-www-form-urlencoded", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unmatched webhook status %d", w.Code)
	}
}

func TestBonzoWebhookTokenGate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if err := e.contacts.Create(ctx, contact.Contact{
		ID: "c1", CampaignID: "camp-1", Name: "Sam Lee", Phone: "5559876543", Status: contact.StatusNoActivity,
	}); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/bonzo/inbound-sms", strings.NewReader(`{"from":"+15559876543","text":"stop"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Bonzo-Token", "wrong")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/bonzo/inbound-sms", strings.NewReader(`{"from":"+15559876543","text":"stop"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Bonzo-Token", testWebhookToken)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("good token status %d: %s", w.Code, w.Body.String())
	}

	conv, err := e.inboxRepo.FindOrCreateConversation(ctx, "c1", inbox.ChannelSMS)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	msgs, err := e.inboxRepo.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "stop" {
		t.Fatalf("unexpected inbound log: %+v", msgs)
	}
}

func TestMediaUploadAndServe(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	w := e.do(t, http.MethodPost, "/media/upload/raw", "fake-mp3", "audio/mpeg", "")
	if w.Code != http.StatusOK {
		t.Fatalf("upload status %d: %s", w.Code, w.Body.String())
	}
	var up struct {
		URL string `json:"url"`
	}
	decode(t, w, &up)
	if !strings.Contains(up.URL, "/media/vm/") {
		t.Fatalf("unexpected url %q", up.URL)
	}

	id, err := e.blobs.Put(ctx, []byte("audio-bytes"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	w = e.do(t, http.MethodGet, "/media/vm/"+id+".mp3", "", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("serve status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("content type %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "max-age=86400") {
		t.Fatalf("cache control %q", cc)
	}
	if w.Body.String() != "audio-bytes" {
		t.Fatalf("body %q", w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/media/vm/unknown.mp3", "", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown media status %d", w.Code)
	}
}

func TestExecuteCampaignReturnsCounts(t *testing.T) {
	e := newEnv(t)
	tok := e.bearer(t)
	ctx := context.Background()

	camp, err := e.h.Campaigns.Create(ctx, campaign.CreateRequest{Name: "Launch", OwnerName: "Alex Realtor"})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	g := funnel.Graph{
		Nodes: []funnel.Node{{Key: "s1", Type: funnel.NodeSMSSend, Name: "Intro", Config: funnel.NodeConfig{Message: "Hi {{contact.first_name}}"}}},
		Edges: []funnel.Edge{},
	}
	if err := e.h.Funnels.SaveGraph(ctx, funnel.CampaignScope(camp.ID), g); err != nil {
		t.Fatalf("save graph: %v", err)
	}
	if err := e.contacts.Create(ctx, contact.Contact{
		ID: "c1", CampaignID: camp.ID, Name: "Jane Doe", Phone: "+15551234567", Status: contact.StatusNoActivity,
	}); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	w := e.do(t, http.MethodPost, "/api/campaigns/"+camp.ID+"/execute", "", "", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("execute status %d: %s", w.Code, w.Body.String())
	}
	var report struct {
		OK      bool `json:"ok"`
		SMSSent int  `json:"smsSent"`
	}
	decode(t, w, &report)
	if !report.OK || report.SMSSent != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(e.sms.reqs) != 1 || !strings.Contains(e.sms.reqs[0].Text, "Jane") {
		t.Fatalf("provider requests: %+v", e.sms.reqs)
	}

	w = e.do(t, http.MethodPost, "/api/campaigns/missing/execute", "", "", tok)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown campaign status %d", w.Code)
	}
}

func TestSendEmailLogsToEmailConversation(t *testing.T) {
	e := newEnv(t)
	tok := e.bearer(t)
	ctx := context.Background()

	if err := e.contacts.Create(ctx, contact.Contact{
		ID: "c1", CampaignID: "camp-1", Name: "Jane Doe", Email: "jane@example.com", Status: contact.StatusNoActivity,
	}); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	body := `{"to":"jane@example.com","subject":"Invite","body":"See you there","contactId":"c1"}`
	w := e.doJSON(t, http.MethodPost, "/api/email/send", body, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("send status %d: %s", w.Code, w.Body.String())
	}
	if len(e.email.reqs) != 1 || e.email.reqs[0].Subject != "Invite" {
		t.Fatalf("mailer requests: %+v", e.email.reqs)
	}

	conv, err := e.inboxRepo.FindOrCreateConversation(ctx, "c1", inbox.ChannelEmail)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	msgs, err := e.inboxRepo.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "[Invite]\n\nSee you there" {
		t.Fatalf("unexpected log: %+v", msgs)
	}
}
