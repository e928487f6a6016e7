package notify

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/freight-ops-api/internal/logger"
)

type fakeChannel struct {
	name       string
	configured bool
	err        error

	mu   sync.Mutex
	sent []Alert
}

func (f *fakeChannel) Name() string     { return f.name }
func (f *fakeChannel) Configured() bool { return f.configured }

func (f *fakeChannel) Send(ctx context.Context, alert Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, alert)
	return f.err
}

func testAlert() Alert {
	return Alert{
		Service:   "calls",
		Status:    "fail",
		Message:   "no rows in calls",
		Diagnosis: "No data recorded yet for this table",
		Timestamp: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDispatcher_ChannelsAreIndependent(t *testing.T) {
	email := &fakeChannel{name: "email", configured: true, err: errors.New("smtp: 535 authentication failed")}
	sms := &fakeChannel{name: "sms", configured: true}

	result := NewDispatcher(logger.NewNopLogger(), email, sms).Alert(context.Background(), testAlert())

	require.Len(t, result.Channels, 2)
	assert.Equal(t, DeliveryFailed, result.Channels[0].Status)
	assert.Contains(t, result.Channels[0].Error, "535")
	assert.Equal(t, DeliverySent, result.Channels[1].Status)
	assert.Len(t, sms.sent, 1)
	assert.True(t, result.Attempted())
	assert.Equal(t, 1, result.Sent())
}

func TestDispatcher_UnconfiguredChannelSkipped(t *testing.T) {
	email := &fakeChannel{name: "email"}
	sms := &fakeChannel{name: "sms"}

	result := NewDispatcher(logger.NewNopLogger(), email, sms).Alert(context.Background(), testAlert())

	for _, ch := range result.Channels {
		assert.Equal(t, DeliverySkipped, ch.Status, ch.Channel)
	}
	assert.False(t, result.Attempted())
	assert.Empty(t, email.sent)
}

func TestAlert_Text(t *testing.T) {
	text := testAlert().Text()

	assert.Contains(t, text, "[Freight Ops] calls is FAIL")
	assert.Contains(t, text, "Cause: No data recorded yet for this table")
	assert.Contains(t, text, "2026-05-01T12:00:00Z")
}

func TestNormalizeE164(t *testing.T) {
	got, err := NormalizeE164("(202) 456-1111")
	require.NoError(t, err)
	assert.Equal(t, "+12024561111", got)

	got, err = NormalizeE164("+1 202 456 1111")
	require.NoError(t, err)
	assert.Equal(t, "+12024561111", got)

	_, err = NormalizeE164("12345")
	assert.Error(t, err)

	_, err = NormalizeE164("  ")
	assert.Error(t, err)
}

func TestSMSSender_PostsToTwilio(t *testing.T) {
	var gotPath, gotUser, gotPass, gotTo, gotFrom, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotTo = r.PostForm.Get("To")
		gotFrom = r.PostForm.Get("From")
		gotBody = r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer server.Close()

	sender := NewSMSSender(SMSConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+12024561111",
		To:         []string{"(202) 456-1414"},
		BaseURL:    server.URL,
	}, server.Client())

	require.True(t, sender.Configured())
	require.NoError(t, sender.Send(context.Background(), testAlert()))

	assert.Equal(t, "/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.Equal(t, "+12024561414", gotTo)
	assert.Equal(t, "+12024561111", gotFrom)
	assert.Contains(t, gotBody, "calls is FAIL")
}

func TestSMSSender_TwilioError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number."}`))
	}))
	defer server.Close()

	sender := NewSMSSender(SMSConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+12024561111",
		To:         []string{"+12024561414"},
		BaseURL:    server.URL,
	}, nil)

	err := sender.Send(context.Background(), testAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
}

func TestSMSSender_InvalidRecipientRejectedBeforeSending(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sender := NewSMSSender(SMSConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+12024561111",
		To:         []string{"+12024561414", "555"},
		BaseURL:    server.URL,
	}, nil)

	err := sender.Send(context.Background(), testAlert())
	require.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestEmailSender_Message(t *testing.T) {
	sender := NewEmailSender(EmailConfig{
		Host:     "smtp.resend.com",
		Port:     465,
		Username: "resend",
		Password: "re_test",
		From:     "alerts@freightops.example",
		To:       []string{"ops@freightops.example"},
	})
	require.True(t, sender.Configured())

	msg, err := sender.buildMessage(testAlert())
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[Freight Ops] calls is FAIL")
	assert.Contains(t, buf.String(), "ops@freightops.example")

	assert.False(t, NewEmailSender(EmailConfig{Host: "smtp.resend.com"}).Configured())
}
