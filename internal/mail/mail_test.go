package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestVerificationLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "plain", base: "https://shop.example/verify", want: "https://shop.example/verify?token=abc"},
		{name: "existing query", base: "https://shop.example/verify?lang=en", want: "https://shop.example/verify?lang=en&token=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerificationLink(tt.base, "abc")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSMTPMailer_SendVerification(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	m := &SMTPMailer{From: "shop@example.com", VerifyURL: "https://shop.example/verify", dialer: d}

	require.NoError(t, m.SendVerification(context.Background(), "ann@example.com", "tok"))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"ann@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{verifySubject}, d.sent[0].GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := d.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "https://shop.example/verify")
}

func TestSMTPMailer_WrapsDialError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	m := &SMTPMailer{VerifyURL: "https://shop.example/verify", dialer: &fakeDialer{err: boom}}

	err := m.SendVerification(context.Background(), "ann@example.com", "tok")
	require.ErrorIs(t, err, boom)
}

func TestLogMailer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	m := LogMailer{VerifyURL: "https://shop.example/verify", Log: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, m.SendVerification(context.Background(), "ann@example.com", "tok"))
	assert.Contains(t, buf.String(), "verification_mail_skipped")
	assert.Contains(t, buf.String(), "token=tok")
}
