package domain

import "time"

// RawInboundSMS is the payload published on sms.incoming.raw.<gateway> by an SMS
// gateway or device relay. The gateway name is part of the subject.
type RawInboundSMS struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Text      string    `json:"text"`
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}
