package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aradsms/smsreader/internal/sms_reader_service/domain"
)

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook responded with status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return domain.ErrWebhookRejected }

// Client posts parsed SMS records to the confirmation webhook.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	url        string
	authToken  string
}

// NewClient builds a webhook client. A nil httpClient gets a client without a
// timeout; a hung endpoint is only abandoned when ctx is cancelled.
func NewClient(logger *slog.Logger, url, authToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		logger:     logger.With("adapter", "webhook"),
		httpClient: httpClient,
		url:        url,
		authToken:  authToken,
	}
}

// NewHTTPClient returns an *http.Client honouring timeout, where 0 means none.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Notify performs a single POST of payload. It does not retry.
func (c *Client) Notify(ctx context.Context, payload domain.WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", domain.ErrWebhookTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	c.logger.DebugContext(ctx, "Posting SMS to webhook", "url", c.url, "trx_id", payload.TrxID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWebhookTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Send reports whether the webhook accepted the record. Failures are logged and
// folded into false; callers mark the entry as errored and move on.
func (c *Client) Send(ctx context.Context, sender, message, amount, trxID string) bool {
	err := c.Notify(ctx, domain.WebhookPayload{
		Sender:  sender,
		Message: message,
		Amount:  amount,
		TrxID:   trxID,
	})
	if err == nil {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		c.logger.WarnContext(ctx, "Webhook rejected SMS", "status_code", statusErr.StatusCode, "trx_id", trxID)
	} else {
		c.logger.ErrorContext(ctx, "Webhook error", "error", err, "trx_id", trxID)
	}
	return false
}
