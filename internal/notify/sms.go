package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used for numbers written without a country code
const DefaultPhoneRegion = "US"

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// NormalizeE164 parses a phone number and formats it as E.164. Invalid
// numbers are an error.
func NormalizeE164(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("empty phone number")
	}

	number, err := phonenumbers.Parse(trimmed, DefaultPhoneRegion)
	if err != nil {
		return "", fmt.Errorf("parse phone number %q: %w", trimmed, err)
	}
	if !phonenumbers.IsValidNumber(number) {
		return "", fmt.Errorf("invalid phone number %q", trimmed)
	}
	return phonenumbers.Format(number, phonenumbers.E164), nil
}

// SMSConfig holds Twilio credentials and recipients
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         []string
	// BaseURL overrides the Twilio API base, used in tests
	BaseURL string
}

// SMSSender delivers alerts through the Twilio Messages API
type SMSSender struct {
	cfg    SMSConfig
	client *http.Client
}

// NewSMSSender creates a Twilio SMS sender
func NewSMSSender(cfg SMSConfig, client *http.Client) *SMSSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = twilioAPIBase
	}
	return &SMSSender{cfg: cfg, client: client}
}

// Name returns the channel name
func (s *SMSSender) Name() string {
	return "sms"
}

// Configured reports whether credentials, sender and recipients are set
func (s *SMSSender) Configured() bool {
	return s.cfg.AccountSID != "" && s.cfg.AuthToken != "" && s.cfg.From != "" && len(s.cfg.To) > 0
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send texts every recipient. Recipients are validated before any request
// goes out; one failed recipient does not stop the rest.
func (s *SMSSender) Send(ctx context.Context, alert Alert) error {
	from, err := NormalizeE164(s.cfg.From)
	if err != nil {
		return fmt.Errorf("sms sender: %w", err)
	}

	recipients := make([]string, 0, len(s.cfg.To))
	for _, raw := range s.cfg.To {
		to, err := NormalizeE164(raw)
		if err != nil {
			return fmt.Errorf("sms recipient: %w", err)
		}
		recipients = append(recipients, to)
	}

	body := alert.Subject()
	if alert.Diagnosis != "" {
		body += ": " + alert.Diagnosis
	}

	var failures []string
	for _, to := range recipients {
		if err := s.sendOne(ctx, from, to, body); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("sms send: %s", strings.Join(failures, "; "))
	}
	return nil
}

func (s *SMSSender) sendOne(ctx context.Context, from, to, body string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.cfg.BaseURL, url.PathEscape(s.cfg.AccountSID))
	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create twilio request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request to %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var te twilioError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
		if json.Unmarshal(raw, &te) == nil && te.Message != "" {
			return fmt.Errorf("twilio %d to %s: %s (code %d)", resp.StatusCode, to, te.Message, te.Code)
		}
		return fmt.Errorf("twilio %d to %s", resp.StatusCode, to)
	}
	return nil
}
