package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"alerthub/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateAndKinds(t *testing.T) {
	registry := NewRegistry()
	registry.Register(entity.KindEmail, NewEmailChannel(EmailConfig{Host: "localhost", Port: 25}))
	registry.Register(entity.KindSMS, NewSMSChannel(SMSConfig{}))
	registry.Register(entity.KindInApp, NewInAppChannel(nil, nil))

	ch, err := registry.Create(entity.KindSMS)
	require.NoError(t, err)
	assert.Equal(t, entity.KindSMS, ch.Kind())

	_, err = registry.Create("pager")
	assert.ErrorIs(t, err, ErrUnsupportedKind)

	assert.Equal(t, []string{entity.KindEmail, entity.KindSMS, entity.KindInApp}, registry.Kinds())
}

func TestEmailChannel_Validate(t *testing.T) {
	ch := NewEmailChannel(EmailConfig{})

	tests := []struct {
		recipient string
		want      bool
	}{
		{"ops@example.com", true},
		{"first.last+tag@sub.example.co.jp", true},
		{"not-an-address", false},
		{"@example.com", false},
		{"ops@localhost", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ch.Validate(tt.recipient), "recipient %q", tt.recipient)
	}
}

// TestEmailChannel_Send verifies the SMTP envelope and body formatting
func TestEmailChannel_Send(t *testing.T) {
	// Arrange
	ch := NewEmailChannel(EmailConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "alerts@example.com",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	ch.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	// Act
	result := ch.Send(context.Background(), "ops@example.com", "Disk full", "Volume at 95%", map[string]any{
		"severity":   "critical",
		"alert_type": "outage",
	})

	// Assert
	require.Equal(t, entity.DeliverySent, result.Status)
	assert.True(t, strings.HasPrefix(result.MessageID, "email_"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "alerts@example.com", gotFrom)
	assert.Equal(t, []string{"ops@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Alert: Disk full")
	assert.Contains(t, gotMsg, "Volume at 95%")
	assert.Contains(t, gotMsg, "- alert type: outage")
	assert.Contains(t, gotMsg, "- severity: critical")
}

func TestEmailChannel_Send_TransportError(t *testing.T) {
	ch := NewEmailChannel(EmailConfig{Host: "smtp.example.com", Port: 587, From: "alerts@example.com"})
	ch.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	result := ch.Send(context.Background(), "ops@example.com", "Disk full", "Volume at 95%", nil)

	assert.Equal(t, entity.DeliveryFailed, result.Status)
	assert.Contains(t, result.Error, "connection refused")
	assert.Empty(t, result.MessageID)
}

func TestSMSChannel_Validate(t *testing.T) {
	ch := NewSMSChannel(SMSConfig{})

	tests := []struct {
		recipient string
		want      bool
	}{
		{"+15551234567", true},
		{"+1-555-123-4567", true},
		{"(555) 123-4567", true},
		{"5551234567", true},
		{"12345", false},
		{"not-a-number", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ch.Validate(tt.recipient), "recipient %q", tt.recipient)
	}
}

// TestSMSChannel_Send verifies the gateway request and response handling
func TestSMSChannel_Send(t *testing.T) {
	// Arrange
	var gotAuth string
	var gotReq smsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(smsResponse{Success: true, MessageID: "sms_gw_42"})
	}))
	defer server.Close()

	ch := NewSMSChannel(SMSConfig{APIURL: server.URL, APIKey: "test-key", Timeout: time.Second})

	// Act
	result := ch.Send(context.Background(), "+15551234567", "Disk full", "Volume at 95%", map[string]any{"severity": "high"})

	// Assert
	require.Equal(t, entity.DeliverySent, result.Status)
	assert.Equal(t, "sms_gw_42", result.MessageID)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "+15551234567", gotReq.To)
	assert.Equal(t, "[HIGH] Disk full: Volume at 95%", gotReq.Message)
}

func TestSMSChannel_Send_GatewayRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(smsResponse{Success: false, Error: "insufficient credits"})
	}))
	defer server.Close()

	ch := NewSMSChannel(SMSConfig{APIURL: server.URL, APIKey: "test-key"})
	result := ch.Send(context.Background(), "+15551234567", "Disk full", "Volume at 95%", nil)

	assert.Equal(t, entity.DeliveryFailed, result.Status)
	assert.Equal(t, "insufficient credits", result.Error)
}

func TestSMSChannel_Send_NotConfigured(t *testing.T) {
	ch := NewSMSChannel(SMSConfig{})
	result := ch.Send(context.Background(), "+15551234567", "Disk full", "Volume at 95%", nil)

	assert.Equal(t, entity.DeliveryFailed, result.Status)
	assert.Contains(t, result.Error, "not configured")
}

func TestSMSChannel_FormatMessage_TruncatesLongBody(t *testing.T) {
	ch := NewSMSChannel(SMSConfig{})
	long := strings.Repeat("x", 200)

	got := ch.formatMessage("Disk full", long, map[string]any{"severity": "low"})

	assert.Equal(t, "[LOW] Disk full", got, "oversized bodies keep only the prefixed title")
}

type mockInboxStore struct {
	saved []int64
	err   error
}

func (m *mockInboxStore) SaveNotification(ctx context.Context, userID int64, title, message string, metadata map[string]any) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, userID)
	return nil
}

func TestInAppChannel_Send(t *testing.T) {
	store := &mockInboxStore{}
	ch := NewInAppChannel(store, nil)

	result := ch.Send(context.Background(), "42", "Disk full", "Volume at 95%", nil)

	require.Equal(t, entity.DeliveryDelivered, result.Status, "in-app writes are final, not in transit")
	assert.True(t, strings.HasPrefix(result.MessageID, "in_app_42_"))
	assert.Equal(t, []int64{42}, store.saved)
}

func TestInAppChannel_Send_InvalidUserID(t *testing.T) {
	ch := NewInAppChannel(&mockInboxStore{}, nil)

	for _, recipient := range []string{"", "abc", "-1", "0"} {
		result := ch.Send(context.Background(), recipient, "t", "m", nil)
		assert.Equal(t, entity.DeliveryFailed, result.Status, "recipient %q", recipient)
	}
}

func TestInAppChannel_Send_StoreError(t *testing.T) {
	ch := NewInAppChannel(&mockInboxStore{err: errors.New("db down")}, nil)

	result := ch.Send(context.Background(), "42", "t", "m", nil)

	assert.Equal(t, entity.DeliveryFailed, result.Status)
	assert.Contains(t, result.Error, "db down")
}
