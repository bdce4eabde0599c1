package http

import (
	"fmt"
	"time"

	"github.com/aradsms/smsreader/internal/sms_reader_service/domain"
)

// InboundSMSRequest is a manually fed SMS.
type InboundSMSRequest struct {
	Sender  string `json:"sender" validate:"required,max=64"`
	Message string `json:"message" validate:"required,max=1600"`
}

// LogEntryView is an SMSLogEntry plus the presentation fields the UI needs.
type LogEntryView struct {
	domain.SMSLogEntry
	RelativeTime  string `json:"relative_time"`
	ProviderColor string `json:"provider_color"`
}

// LogsResponse is returned by GET /api/v1/sms/logs.
type LogsResponse struct {
	Logs       []LogEntryView `json:"logs"`
	MaxEntries int            `json:"max_entries"`
}

// ProcessResponse is returned after an SMS went through the pipeline.
type ProcessResponse struct {
	Entry     LogEntryView   `json:"entry"`
	Logs      []LogEntryView `json:"logs"`
	WebhookOK bool           `json:"webhook_ok"`
	Stored    bool           `json:"stored"`
}

// ServiceStatusResponse describes the reader service state.
type ServiceStatusResponse struct {
	Running    bool   `json:"running"`
	Source     string `json:"source"`
	MaxEntries int    `json:"max_entries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var providerColors = map[domain.ProviderTag]string{
	domain.ProviderBKash:  "#E2136E",
	domain.ProviderNagad:  "#EE4023",
	domain.ProviderRocket: "#8B3A9C",
	domain.ProviderUpay:   "#D91E3A",
}

// ProviderColor returns the brand color of a provider, grey for unknown ones.
func ProviderColor(p domain.ProviderTag) string {
	if c, ok := providerColors[p]; ok {
		return c
	}
	return "#757575"
}

// RelativeTime renders t relative to now: "Just now", "5m ago", "3h ago", and a
// short date for anything a day or older.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	default:
		return t.In(now.Location()).Format("Jan 2, 03:04 PM")
	}
}

func newLogEntryView(e domain.SMSLogEntry, now time.Time) LogEntryView {
	return LogEntryView{
		SMSLogEntry:   e,
		RelativeTime:  RelativeTime(e.Time(), now),
		ProviderColor: ProviderColor(e.Provider),
	}
}

func newLogEntryViews(entries []domain.SMSLogEntry, now time.Time) []LogEntryView {
	views := make([]LogEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newLogEntryView(e, now))
	}
	return views
}
