package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"

	"propmarket-go/config"
	"propmarket-go/utils"
)

// Notifier delivers a login code to an email address.
type Notifier interface {
	SendLoginCode(ctx context.Context, email, code string, ttl time.Duration) error
}

const loginCodeSubject = "Your PropMarket Login Code"

var loginCodeHTML = template.Must(template.New("login_code").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2563eb;">PropMarket</h2>
  <p>Your login code is:</p>
  <div style="background: #f3f4f6; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 8px;">{{.Code}}</div>
  <p>This code expires in {{.Minutes}} minutes.</p>
  <p>If you did not request this code, you can ignore this email.</p>
</div>`))

type loginCodeEmail struct {
	Code    string
	Minutes int
}

func renderLoginCode(code string, ttl time.Duration) (plain string, html string, err error) {
	data := loginCodeEmail{Code: code, Minutes: int(ttl.Round(time.Minute) / time.Minute)}
	if data.Minutes < 1 {
		data.Minutes = 1
	}
	var buf bytes.Buffer
	if err := loginCodeHTML.Execute(&buf, data); err != nil {
		return "", "", err
	}
	plain = fmt.Sprintf("Your PropMarket login code is %s. It expires in %d minutes.", code, data.Minutes)
	return plain, buf.String(), nil
}

// SMTPNotifier sends codes through an SMTP relay.
type SMTPNotifier struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPNotifier(cfg config.EmailConfig) *SMTPNotifier {
	return &SMTPNotifier{
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
	}
}

func (n *SMTPNotifier) SendLoginCode(ctx context.Context, email, code string, ttl time.Duration) error {
	plain, html, err := renderLoginCode(code, ttl)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", n.from, n.fromName)
	m.SetHeader("To", email)
	m.SetHeader("Subject", loginCodeSubject)
	m.SetBody("text/plain", plain)
	m.AddAlternative("text/html", html)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", email, err)
	}
	return nil
}

// SendGridNotifier sends codes through the SendGrid API.
type SendGridNotifier struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridNotifier(cfg config.EmailConfig) *SendGridNotifier {
	return &SendGridNotifier{
		client:   sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
	}
}

func (n *SendGridNotifier) SendLoginCode(ctx context.Context, email, code string, ttl time.Duration) error {
	plain, html, err := renderLoginCode(code, ttl)
	if err != nil {
		return err
	}

	from := mail.NewEmail(n.fromName, n.from)
	to := mail.NewEmail("", email)
	message := mail.NewSingleEmail(from, loginCodeSubject, to, plain, html)

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s failed: %w", email, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send to %s failed with status %d", email, resp.StatusCode)
	}
	return nil
}

// LogNotifier writes codes to the log. It is only wired outside production.
type LogNotifier struct{}

func (LogNotifier) SendLoginCode(ctx context.Context, email, code string, ttl time.Duration) error {
	utils.Logger.WithField("email", email).Warnf("Login code %s (expires in %s)", code, ttl)
	return nil
}

// unconfiguredNotifier fails every send so a missing provider is visible
// to callers.
type unconfiguredNotifier struct{}

func (unconfiguredNotifier) SendLoginCode(context.Context, string, string, time.Duration) error {
	return ErrNotifierUnavailable
}

// NewNotifier picks SendGrid, then SMTP, then the log notifier when
// enabled. With none configured every send fails.
func NewNotifier(cfg config.EmailConfig) Notifier {
	switch {
	case cfg.SendGridAPIKey != "":
		return NewSendGridNotifier(cfg)
	case cfg.SMTPHost != "":
		return NewSMTPNotifier(cfg)
	case cfg.LogCodes:
		return LogNotifier{}
	}
	return unconfiguredNotifier{}
}
