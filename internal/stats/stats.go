// Package stats aggregates campaign and message activity into the
// dashboard and per-campaign analytics payloads.
package stats

import (
	"context"
	"regexp"
	"sort"
	"time"

	"outreach-platform/internal/contact"
	"outreach-platform/internal/inbox"
)

// recentWindow caps how many messages feed the dashboard aggregates.
const recentWindow = 500

// byDayDays is the length of the messagesByDay series.
const byDayDays = 30

var negativePattern = regexp.MustCompile(`(?i)\b(stop|no)\b`)

// ContactMessage is a message joined with its contact, the unit the
// aggregates work over.
type ContactMessage struct {
	inbox.Message
	ContactID   string `json:"contactId"`
	ContactName string `json:"contactName"`
	CampaignID  string `json:"campaignId"`
}

// Repository reads the joined views the aggregates need. campaignID ""
// means all campaigns; messages come newest first.
type Repository interface {
	CountCampaigns(ctx context.Context) (int, error)
	ListContacts(ctx context.Context, campaignID string) ([]contact.Contact, error)
	ListMessages(ctx context.Context, campaignID string, limit int) ([]ContactMessage, error)
}

// Activity is one row of the recent-activity feed.
type Activity struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Direction string    `json:"direction"`
	Time      time.Time `json:"time"`
	Contact   string    `json:"contact,omitempty"`
}

// DayCount is one point of the messagesByDay series.
type DayCount struct {
	Date string `json:"date"`
	In   int    `json:"in"`
	Out  int    `json:"out"`
}

// Funnel counts contacts by how far they progressed.
type Funnel struct {
	RSVPConfirmed int `json:"rsvpConfirmed"`
	Attended      int `json:"attended"`
	EsignSent     int `json:"esignSent"`
	Signed        int `json:"signed"`
}

// Dashboard is the cross-campaign overview payload.
type Dashboard struct {
	Enrolled          int        `json:"enrolled"`
	Messaged          int        `json:"messaged"`
	RespondedPos      int        `json:"respondedPos"`
	RespondedQuestion int        `json:"respondedQuestion"`
	RespondedNeg      int        `json:"respondedNeg"`
	RSVPConfirmed     int        `json:"rsvpConfirmed"`
	Attended          int        `json:"attended"`
	EsignSent         int        `json:"esignSent"`
	Signed            int        `json:"signed"`
	PodioCreated      int        `json:"podioCreated"`
	Campaigns         int        `json:"campaigns"`
	RecentActivity    []Activity `json:"recentActivity"`
	MessagesByDay     []DayCount `json:"messagesByDay"`
}

// CampaignTotals summarizes one campaign's roster and traffic.
type CampaignTotals struct {
	Contacts int `json:"contacts"`
	Messages int `json:"messages"`
	Inbound  int `json:"inbound"`
	Outbound int `json:"outbound"`
}

// CampaignStats is the per-campaign analytics payload.
type CampaignStats struct {
	Totals         CampaignTotals `json:"totals"`
	StatusCounts   map[string]int `json:"statusCounts"`
	MessagesByDay  []DayCount     `json:"messagesByDay"`
	Funnel         Funnel         `json:"funnel"`
	RecentMessages []Activity     `json:"recentMessages"`
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Dashboard aggregates the most recent messages plus contact and campaign
// counts. Inbound replies are bucketed: containing "?" counts as a
// question, a word-bounded stop/no counts as negative, the rest is
// positive. A reply can land in both question and negative at once.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	campaigns, err := s.repo.CountCampaigns(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	contacts, err := s.repo.ListContacts(ctx, "")
	if err != nil {
		return Dashboard{}, err
	}
	msgs, err := s.repo.ListMessages(ctx, "", recentWindow)
	if err != nil {
		return Dashboard{}, err
	}

	out := Dashboard{
		Enrolled:  len(contacts),
		Messaged:  len(msgs),
		Campaigns: campaigns,
	}

	for _, m := range msgs {
		if m.Direction != inbox.DirectionIn {
			continue
		}
		question := containsQuestion(m.Text)
		negative := negativePattern.MatchString(m.Text)
		if question {
			out.RespondedQuestion++
		}
		if negative {
			out.RespondedNeg++
		}
		if !question && !negative {
			out.RespondedPos++
		}
	}

	f := countFunnel(contacts)
	out.RSVPConfirmed = f.RSVPConfirmed
	out.Attended = f.Attended
	out.EsignSent = f.EsignSent
	out.Signed = f.Signed
	out.PodioCreated = f.Signed

	for i, m := range msgs {
		if i == 5 {
			break
		}
		name := m.ContactName
		if name == "" {
			name = "Contact"
		}
		out.RecentActivity = append(out.RecentActivity, Activity{
			ID:        m.ID,
			Text:      m.Text,
			Direction: m.Direction,
			Time:      m.CreatedAt,
			Contact:   name,
		})
	}

	out.MessagesByDay = s.messagesByDay(msgs)
	return out, nil
}

// Campaign aggregates one campaign's roster statuses and message traffic.
func (s *Service) Campaign(ctx context.Context, campaignID string) (CampaignStats, error) {
	contacts, err := s.repo.ListContacts(ctx, campaignID)
	if err != nil {
		return CampaignStats{}, err
	}
	msgs, err := s.repo.ListMessages(ctx, campaignID, 0)
	if err != nil {
		return CampaignStats{}, err
	}

	out := CampaignStats{
		Totals:       CampaignTotals{Contacts: len(contacts), Messages: len(msgs)},
		StatusCounts: map[string]int{},
	}
	for _, c := range contacts {
		out.StatusCounts[c.Status]++
	}
	for _, m := range msgs {
		if m.Direction == inbox.DirectionIn {
			out.Totals.Inbound++
		} else {
			out.Totals.Outbound++
		}
	}
	out.Funnel = countFunnel(contacts)
	out.MessagesByDay = s.messagesByDay(msgs)

	for i, m := range msgs {
		if i == 20 {
			break
		}
		out.RecentMessages = append(out.RecentMessages, Activity{
			ID:        m.ID,
			Text:      m.Text,
			Direction: m.Direction,
			Time:      m.CreatedAt,
		})
	}
	return out, nil
}

func countFunnel(contacts []contact.Contact) Funnel {
	var f Funnel
	for _, c := range contacts {
		switch c.Status {
		case contact.StatusReceivedRSVP:
			f.RSVPConfirmed++
		case contact.StatusShowedUp:
			f.Attended++
		case contact.StatusReceivedContract:
			f.EsignSent++
		case contact.StatusSignedContract:
			f.Signed++
		}
	}
	return f
}

// messagesByDay seeds the trailing 30 UTC days so the series has no gaps,
// then buckets every message by its UTC date. Messages older than the
// window still get a bucket, matching how the feed is capped upstream.
func (s *Service) messagesByDay(msgs []ContactMessage) []DayCount {
	byDay := map[string]*DayCount{}
	now := s.clock().UTC()
	for i := 0; i < byDayDays; i++ {
		key := now.AddDate(0, 0, -i).Format("2006-01-02")
		byDay[key] = &DayCount{Date: key}
	}
	for _, m := range msgs {
		key := m.CreatedAt.UTC().Format("2006-01-02")
		d, ok := byDay[key]
		if !ok {
			d = &DayCount{Date: key}
			byDay[key] = d
		}
		if m.Direction == inbox.DirectionIn {
			d.In++
		} else {
			d.Out++
		}
	}

	out := make([]DayCount, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func containsQuestion(text string) bool {
	for _, r := range text {
		if r == '?' {
			return true
		}
	}
	return false
}
