package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"alerthub/internal/domain/entity"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var phonePattern = regexp.MustCompile(`^\+?1?-?\d{10,15}$`)

// Keep SMS bodies inside a single segment when possible.
const maxSMSLength = 160

// SMSConfig contains configuration for the SMS gateway. APIURL and APIKey
// are both required; when either is absent the channel fails fast with a
// not-configured error instead of attempting transport.
type SMSConfig struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

// Configured reports whether the gateway credentials are present.
func (c SMSConfig) Configured() bool {
	return c.APIURL != "" && c.APIKey != ""
}

// SMSChannel delivers alerts through an HTTP SMS gateway.
type SMSChannel struct {
	config      SMSConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewSMSChannel creates an SMS channel. Sends are rate limited to 5/s with a
// burst of 5 so a large reminder batch cannot overwhelm the gateway.
func NewSMSChannel(config SMSConfig) *SMSChannel {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &SMSChannel{
		config:      config,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

// Kind implements Channel.
func (c *SMSChannel) Kind() string { return entity.KindSMS }

// Validate checks a loose international phone-number pattern, tolerating
// spaces, dashes, and parentheses.
func (c *SMSChannel) Validate(recipient string) bool {
	normalized := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(recipient)
	return phonePattern.MatchString(normalized)
}

type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type smsResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// Send implements Channel.
func (c *SMSChannel) Send(ctx context.Context, recipient, title, message string, metadata map[string]any) Result {
	if !c.Validate(recipient) {
		return failure(c.Kind(), recipient, fmt.Sprintf("%v: invalid phone number format", ErrInvalidRecipient))
	}
	if !c.config.Configured() {
		return failure(c.Kind(), recipient, fmt.Sprintf("%v: SMS service not configured", ErrChannelUnavailable))
	}

	waitStart := time.Now()
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return failure(c.Kind(), recipient, fmt.Sprintf("rate limit wait: %v", err))
	}
	recordRateLimitWait(c.Kind(), time.Since(waitStart))

	resp, err := c.postMessage(ctx, recipient, c.formatMessage(title, message, metadata))
	if err != nil {
		return failure(c.Kind(), recipient, err.Error())
	}
	if !resp.Success {
		errText := resp.Error
		if errText == "" {
			errText = "SMS send failed"
		}
		return failure(c.Kind(), recipient, errText)
	}

	messageID := resp.MessageID
	if messageID == "" {
		messageID = "sms_" + uuid.New().String()
	}
	return Result{
		Status:    entity.DeliverySent,
		Channel:   c.Kind(),
		Recipient: recipient,
		Timestamp: time.Now(),
		MessageID: messageID,
	}
}

// formatMessage builds a short SMS body: severity prefix plus title, with
// the message appended only when the whole text stays inside one segment.
func (c *SMSChannel) formatMessage(title, message string, metadata map[string]any) string {
	prefix := ""
	if metadata != nil {
		if severity, ok := metadata["severity"].(string); ok && severity != "" {
			prefix = "[" + strings.ToUpper(severity) + "] "
		}
	}

	text := prefix + title
	if len(text)+len(message)+2 <= maxSMSLength {
		text += ": " + message
	}
	return text
}

func (c *SMSChannel) postMessage(ctx context.Context, to, message string) (*smsResponse, error) {
	payload, err := json.Marshal(smsRequest{To: to, Message: message})
	if err != nil {
		return nil, fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sms gateway: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read sms response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sms gateway returned HTTP %d", resp.StatusCode)
	}

	var parsed smsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode sms response: %w", err)
	}
	return &parsed, nil
}
