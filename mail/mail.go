// Package mail sends transactional emails over SMTP
package mail

import (
	"cms/config"
	"cms/logger"
	"context"
	"crypto/tls"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPClient struct {
	host      string
	port      int
	user      string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPClient(host string, port int, user, password, fromName, fromEmail string) *SMTPClient {
	return &SMTPClient{
		host:      host,
		port:      port,
		user:      user,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Build assembles the MIME message without sending it
func (c *SMTPClient) Build(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(c.fromName, c.fromEmail); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)
	if msg.TextBody != "" {
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
		if msg.HTMLBody != "" {
			m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
		}
	} else {
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	}
	return m, nil
}

func (c *SMTPClient) Send(ctx context.Context, msg Message) error {
	m, err := c.Build(msg)
	if err != nil {
		return err
	}
	opts := []gomail.Option{
		gomail.WithPort(c.port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTLSConfig(&tls.Config{ServerName: c.host}),
	}
	if c.user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(c.user),
			gomail.WithPassword(c.password))
	}
	client, err := gomail.NewClient(c.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client (host=%s port=%d): %w", c.host, c.port, err)
	}
	if err = client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send (host=%s port=%d): %w", c.host, c.port, err)
	}
	return nil
}

// LogSender only logs outgoing mail, used when no SMTP server is configured
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	logger.L().Info("email not sent, SMTP is not configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.TextBody))
	return nil
}

// FromConfig returns an SMTP sender, or a LogSender when SMTP_HOST is empty
func FromConfig() Sender {
	if config.SMTP_HOST == "" {
		return LogSender{}
	}
	return NewSMTPClient(config.SMTP_HOST, config.SMTP_PORT, config.SMTP_USER, config.SMTP_PASSWORD,
		config.SMTP_FROM_NAME, config.SMTP_FROM_EMAIL)
}
