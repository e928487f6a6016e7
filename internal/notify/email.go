package notify

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// EmailConfig holds SMTP settings. Resend's SMTP relay uses user "resend"
// with the API key as password.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// EmailSender delivers alerts over SMTP via go-mail
type EmailSender struct {
	cfg     EmailConfig
	timeout time.Duration
}

// NewEmailSender creates an SMTP alert sender
func NewEmailSender(cfg EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg, timeout: 15 * time.Second}
}

// Name returns the channel name
func (s *EmailSender) Name() string {
	return "email"
}

// Configured reports whether host, credentials and addresses are set
func (s *EmailSender) Configured() bool {
	return s.cfg.Host != "" && s.cfg.Password != "" && s.cfg.From != "" && len(s.cfg.To) > 0
}

var alertEmailTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html><body style="font-family:sans-serif">
<h2 style="color:#b91c1c">{{.Subject}}</h2>
{{if .Diagnosis}}<p><strong>Cause:</strong> {{.Diagnosis}}</p>{{end}}
{{if .Message}}<p><strong>Detail:</strong> <code>{{.Message}}</code></p>{{end}}
<p style="color:#6b7280">{{.Timestamp.UTC.Format "2006-01-02 15:04:05 MST"}}</p>
</body></html>`))

func (s *EmailSender) buildMessage(alert Alert) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(s.cfg.To...); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(alert.Subject())

	var html strings.Builder
	if err := alertEmailTemplate.Execute(&html, alert); err != nil {
		return nil, fmt.Errorf("render alert email: %w", err)
	}
	msg.SetBodyString(gomail.TypeTextPlain, alert.Text())
	msg.AddAlternativeString(gomail.TypeTextHTML, html.String())
	return msg, nil
}

// Send delivers one alert email to every configured recipient
func (s *EmailSender) Send(ctx context.Context, alert Alert) error {
	msg, err := s.buildMessage(alert)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTimeout(s.timeout),
	}
	// 465 is implicit TLS; anything else negotiates STARTTLS
	if s.cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSOpportunistic))
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
