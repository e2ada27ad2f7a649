// Package mail sends account verification messages.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"gopkg.in/gomail.v2"
)

const verifySubject = "Welcome to GraphKart - Verify your email"

type Mailer interface {
	SendVerification(ctx context.Context, to, token string) error
}

// VerificationLink appends the token as a query parameter to base.
func VerificationLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse verify url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func verificationBody(to, link string) string {
	return fmt.Sprintf("Hello %s,\n\nWelcome to GraphKart!\nPlease verify your email by clicking the link below:\n\n%s\n\nThanks,\nThe GraphKart Team", to, link)
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	From      string
	VerifyURL string
	dialer    dialer
}

func NewSMTPMailer(host string, port int, user, password, from, verifyURL string) *SMTPMailer {
	return &SMTPMailer{
		From:      from,
		VerifyURL: verifyURL,
		dialer:    gomail.NewDialer(host, port, user, password),
	}
}

func (m *SMTPMailer) message(to, token string) (*gomail.Message, error) {
	link, err := VerificationLink(m.VerifyURL, token)
	if err != nil {
		return nil, err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", verifySubject)
	msg.SetBody("text/plain", verificationBody(to, link))
	return msg, nil
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.message(to, token)
	if err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

// LogMailer logs the link instead of sending it. Used when SMTP is not configured.
type LogMailer struct {
	VerifyURL string
	Log       *slog.Logger
}

func (m LogMailer) SendVerification(_ context.Context, to, token string) error {
	link, err := VerificationLink(m.VerifyURL, token)
	if err != nil {
		return err
	}
	l := m.Log
	if l == nil {
		l = slog.Default()
	}
	l.Info("verification_mail_skipped", "to", to, "link", link)
	return nil
}
