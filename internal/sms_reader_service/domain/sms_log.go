package domain

import "time"

// DefaultMaxLogEntries is the number of entries the log keeps by default.
// The same value bounds the "recent activity" window served to the UI.
const DefaultMaxLogEntries = 5

// DefaultLogKey is the name of the persisted slot holding the log.
const DefaultLogKey = "sms_log"

// ProviderTag classifies an SMS sender into a known mobile-payment brand.
type ProviderTag string

const (
	ProviderBKash   ProviderTag = "BKASH"
	ProviderNagad   ProviderTag = "NAGAD"
	ProviderRocket  ProviderTag = "ROCKET"
	ProviderUpay    ProviderTag = "UPAY"
	ProviderUnknown ProviderTag = "UNKNOWN"
)

// KnownProviders lists the payment providers in detection priority order.
var KnownProviders = []ProviderTag{ProviderBKash, ProviderNagad, ProviderRocket, ProviderUpay}

// Status is the outcome of the webhook notification for an entry.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusPending Status = "pending"
)

// SMSLogEntry is one observed payment notification. Entries are never modified
// after creation.
type SMSLogEntry struct {
	ID        string      `json:"id"`
	Sender    string      `json:"sender"`
	Message   string      `json:"message"`
	Amount    string      `json:"amount"`
	TrxID     string      `json:"trxId"`
	Provider  ProviderTag `json:"provider"`
	Timestamp int64       `json:"timestamp"` // milliseconds since epoch
	Status    Status      `json:"status"`
}

// Time returns the entry timestamp as a time.Time.
func (e SMSLogEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// InboundMessage is a (sender, message) pair supplied by an event source.
type InboundMessage struct {
	Sender     string
	Message    string
	Source     string
	ReceivedAt time.Time
}

// WebhookPayload is the body posted to the notification endpoint.
type WebhookPayload struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
	Amount  string `json:"amount"`
	TrxID   string `json:"trxId"`
}

// EntryLoggedEvent is published after an entry has been notified and stored.
type EntryLoggedEvent struct {
	Entry     SMSLogEntry `json:"entry"`
	Source    string      `json:"source"`
	Persisted bool        `json:"persisted"`
}
