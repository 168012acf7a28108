package dispatch

import (
	"context"
	"fmt"
	"net/smtp"
	"regexp"
	"sort"
	"strings"
	"time"

	"alerthub/internal/domain/entity"

	"github.com/google/uuid"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// EmailConfig contains SMTP transport configuration.
type EmailConfig struct {
	Host     string // SMTP host
	Port     int    // SMTP port
	Username string // SMTP auth username (empty disables auth)
	Password string
	From     string // default sender identity
}

// sendMailFunc matches smtp.SendMail; swapped out in tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailChannel delivers alerts over SMTP.
type EmailChannel struct {
	config   EmailConfig
	sendMail sendMailFunc
}

// NewEmailChannel creates an email channel with the given SMTP configuration.
func NewEmailChannel(config EmailConfig) *EmailChannel {
	return &EmailChannel{config: config, sendMail: smtp.SendMail}
}

// Kind implements Channel.
func (c *EmailChannel) Kind() string { return entity.KindEmail }

// Validate checks the recipient against a standard address pattern.
func (c *EmailChannel) Validate(recipient string) bool {
	return emailPattern.MatchString(recipient)
}

// Send implements Channel. The subject carries an "Alert: " prefix and the
// body appends metadata lines so operators can read severity and scope
// without opening the platform.
func (c *EmailChannel) Send(ctx context.Context, recipient, title, message string, metadata map[string]any) Result {
	if !c.Validate(recipient) {
		return failure(c.Kind(), recipient, fmt.Sprintf("%v: invalid email address", ErrInvalidRecipient))
	}
	if err := ctx.Err(); err != nil {
		return failure(c.Kind(), recipient, err.Error())
	}

	body := c.formatBody(title, message, metadata)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Alert: %s\r\n\r\n%s",
		c.config.From, recipient, title, body)

	var auth smtp.Auth
	if c.config.Username != "" {
		auth = smtp.PlainAuth("", c.config.Username, c.config.Password, c.config.Host)
	}
	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)

	if err := c.sendMail(addr, auth, c.config.From, []string{recipient}, []byte(msg)); err != nil {
		return failure(c.Kind(), recipient, fmt.Sprintf("smtp send: %v", err))
	}

	return Result{
		Status:    entity.DeliverySent,
		Channel:   c.Kind(),
		Recipient: recipient,
		Timestamp: time.Now(),
		MessageID: "email_" + uuid.New().String(),
	}
}

func (c *EmailChannel) formatBody(title, message string, metadata map[string]any) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(message)
	b.WriteString("\n\n---\nThis is an automated alert from the notification system.\n")

	if len(metadata) > 0 {
		b.WriteString("\nAlert Details:\n")
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("- %s: %v\n", strings.ReplaceAll(k, "_", " "), metadata[k]))
		}
	}

	b.WriteString("\nSent at: " + time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	return b.String()
}
