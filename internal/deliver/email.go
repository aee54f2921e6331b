package deliver

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/wneessen/go-mail"

	"xdigest/internal/config"
	"xdigest/internal/model"
	"xdigest/internal/report"
)

// EmailSender delivers rendered reports over SMTP.
type EmailSender struct {
	cfg      config.Email
	password string
}

// NewEmailSender creates a sender; the SMTP password comes from the
// configured environment variable.
func NewEmailSender(cfg config.Email) *EmailSender {
	return &EmailSender{cfg: cfg, password: os.Getenv(cfg.PasswordEnv)}
}

// IsConfigured returns whether enough SMTP settings are present to send.
func (s *EmailSender) IsConfigured() bool {
	return s.cfg.Enabled && s.cfg.Host != "" && s.cfg.From != "" && len(s.cfg.To) > 0
}

// Send renders the report and submits it to every configured recipient.
func (s *EmailSender) Send(ctx context.Context, r *model.Report) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email sender not configured")
	}

	html, err := report.RenderHTML(r)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(s.cfg.To...); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(fmt.Sprintf("%s - %s", r.Title, r.Date.Format("2006-01-02")))
	msg.SetBodyString(mail.TypeTextHTML, html)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending report email: %w", err)
	}

	log.Printf("Report emailed to %d recipient(s)", len(s.cfg.To))
	return nil
}
