package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"budgettracker/logging"
	"budgettracker/telemetry"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultBrevoURL = "https://api.brevo.com/v3"

	defaultMaxTries   = 3
	defaultRetryDelay = time.Second
)

type BrevoOptions struct {
	APIKey  string
	BaseURL string
	Sender  Recipient
	Filter  *Filter

	// Zero values use http.DefaultClient, 3 tries and a 1s delay.
	HTTPClient *http.Client
	MaxTries   uint
	RetryDelay time.Duration
}

// Brevo sends transactional email through the Brevo SMTP API.
type Brevo struct {
	apiKey     string
	baseURL    string
	sender     Recipient
	filter     *Filter
	client     *http.Client
	maxTries   uint
	retryDelay time.Duration
}

func NewBrevo(opts BrevoOptions) *Brevo {
	b := &Brevo{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		sender:     opts.Sender,
		filter:     opts.Filter,
		client:     opts.HTTPClient,
		maxTries:   opts.MaxTries,
		retryDelay: opts.RetryDelay,
	}
	if b.baseURL == "" {
		b.baseURL = DefaultBrevoURL
	}
	if b.client == nil {
		b.client = http.DefaultClient
	}
	if b.maxTries == 0 {
		b.maxTries = defaultMaxTries
	}
	if b.retryDelay == 0 {
		b.retryDelay = defaultRetryDelay
	}
	return b
}

type sendRequest struct {
	Sender      Recipient   `json:"sender"`
	To          []Recipient `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

type brevoResponse struct {
	status int
	body   []byte
}

// Send posts msg to Brevo. Without an API key the message is logged and
// dropped. Outside production, recipients are narrowed by the filter first
// and the call is skipped when none remain.
func (b *Brevo) Send(ctx context.Context, msg Message) error {
	ctx, span := telemetry.Tracer().Start(ctx, "mail.send")
	defer span.End()

	log := logging.FromContext(ctx).WithField(logging.FieldComponent, logging.ComponentMail)

	if b.apiKey == "" {
		log.WithField(logging.FieldRecipients, emails(msg.To)).
			WithField("subject", msg.Subject).
			Warn("No Brevo key configured, mail was not sent")
		return nil
	}

	to := b.filter.Apply(msg.To)
	if len(to) == 0 {
		log.WithField(logging.FieldRecipients, emails(msg.To)).Info("No recipient left after filter, mail skipped")
		return nil
	}
	span.SetAttributes(attribute.Int("mail.recipients", len(to)))

	payload, err := json.Marshal(sendRequest{
		Sender:      b.sender,
		To:          to,
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("encode brevo request: %w", err)
	}

	resp, err := backoff.Retry(ctx, func() (brevoResponse, error) {
		return b.post(ctx, payload)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(b.retryDelay)),
		backoff.WithMaxTries(b.maxTries),
	)
	if err != nil {
		return fmt.Errorf("brevo send: %w", err)
	}

	if code := gjson.GetBytes(resp.body, "code"); code.Exists() {
		return fmt.Errorf("brevo rejected email (status %d): %s: %s",
			resp.status, code.String(), gjson.GetBytes(resp.body, "message").String())
	}
	if resp.status >= http.StatusBadRequest {
		return fmt.Errorf("brevo rejected email: status %d", resp.status)
	}

	log.WithField(logging.FieldRecipients, emails(to)).
		WithField(logging.FieldMessageID, gjson.GetBytes(resp.body, "messageId").String()).
		Info("Email sent")
	return nil
}

// post performs one attempt. Gateway errors and network failures are retried;
// any other response is returned as is.
func (b *Brevo) post(ctx context.Context, payload []byte) (brevoResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/smtp/email", bytes.NewReader(payload))
	if err != nil {
		return brevoResponse{}, backoff.Permanent(err)
	}
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := b.client.Do(req)
	if err != nil {
		return brevoResponse{}, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return brevoResponse{}, fmt.Errorf("read brevo response: %w", err)
	}

	switch res.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return brevoResponse{}, fmt.Errorf("brevo unavailable: status %d", res.StatusCode)
	}
	return brevoResponse{status: res.StatusCode, body: body}, nil
}
