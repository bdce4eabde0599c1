package domain

import "errors"

var (
	// ErrWebhookTransport means the notification never got an HTTP response.
	ErrWebhookTransport = errors.New("webhook transport failure")
	// ErrWebhookRejected means the endpoint answered with a non-2xx status.
	ErrWebhookRejected = errors.New("webhook rejected notification")

	ErrStorageRead  = errors.New("log storage read failed")
	ErrStorageWrite = errors.New("log storage write failed")
	ErrCorruptLog   = errors.New("persisted log is corrupt")

	ErrServiceStopped   = errors.New("sms reader service is not running")
	ErrNotPaymentSender = errors.New("sender is not a known payment provider")
)
