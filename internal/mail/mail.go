package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

type Mailer interface {
	SendVerification(ctx context.Context, email, token string) error
}

// VerificationLink builds the frontend URL a new account follows to confirm its email.
func VerificationLink(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/verify-email?token=" + url.QueryEscape(token)
}

func verificationBody(link string) string {
	return fmt.Sprintf(`<p>Welcome to CakeMarket!</p>
<p>Please confirm your email address by clicking the link below:</p>
<p><a href="%s">Verify my email</a></p>
<p>If you did not create an account you can ignore this message.</p>`, link)
}

type SMTPMailer struct {
	host        string
	port        int
	user        string
	password    string
	frontendURL string
}

func NewSMTPMailer(host string, port int, user, password, frontendURL string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, password: password, frontendURL: frontendURL}
}

func (m *SMTPMailer) message(email, token string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.user); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(email); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject("Verify your CakeMarket account")
	msg.SetBodyString(gomail.TypeTextHTML, verificationBody(VerificationLink(m.frontendURL, token)))
	return msg, nil
}

func (m *SMTPMailer) SendVerification(ctx context.Context, email, token string) error {
	msg, err := m.message(email, token)
	if err != nil {
		return err
	}
	client, err := gomail.NewClient(m.host,
		gomail.WithPort(m.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
		gomail.WithUsername(m.user),
		gomail.WithPassword(m.password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

// LogMailer prints the verification link instead of sending mail.
type LogMailer struct {
	log         *slog.Logger
	frontendURL string
}

func NewLogMailer(log *slog.Logger, frontendURL string) *LogMailer {
	if log == nil {
		log = slog.Default()
	}
	return &LogMailer{log: log, frontendURL: frontendURL}
}

func (m *LogMailer) SendVerification(ctx context.Context, email, token string) error {
	m.log.InfoContext(ctx, "[MAIL MOCK] verification", "to", email, "link", VerificationLink(m.frontendURL, token))
	return nil
}
