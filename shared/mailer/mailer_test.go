package mailer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func newRecordingMailer(sent *[]*gomail.Message, sendErr error) *Mailer {
	return &Mailer{
		from: "Notes App <no-reply@notes.test>",
		send: func(msgs ...*gomail.Message) error {
			*sent = append(*sent, msgs...)
			return sendErr
		},
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Host: "smtp.test", Port: 587, Username: "u", Password: "p", From: "f@test"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"host", func(c *Config) { c.Host = "" }, "SMTP_HOST"},
		{"port", func(c *Config) { c.Port = 0 }, "SMTP_PORT"},
		{"username", func(c *Config) { c.Username = "" }, "SMTP_USERNAME"},
		{"password", func(c *Config) { c.Password = "" }, "SMTP_PASSWORD"},
		{"from", func(c *Config) { c.From = "" }, "SMTP_FROM"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)

			_, err = NewMailer(cfg)
			assert.Error(t, err)
		})
	}
}

func TestSendHTML(t *testing.T) {
	var sent []*gomail.Message
	m := newRecordingMailer(&sent, nil)

	err := m.SendHTML([]string{"alice@x.com"}, "Your code", "<p>123456</p>")
	require.NoError(t, err)
	require.Len(t, sent, 1)

	msg := sent[0]
	assert.Equal(t, []string{"Notes App <no-reply@notes.test>"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"alice@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Your code"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
	assert.Contains(t, buf.String(), "123456")
}

func TestSend_MultipleRecipients(t *testing.T) {
	var sent []*gomail.Message
	m := newRecordingMailer(&sent, nil)

	err := m.Send(Email{
		To:      []string{"a@x.com", "b@x.com"},
		Subject: "Hello",
		Body:    "<b>html</b>",
		HTML:    true,
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, sent[0].GetHeader("To"))
	assert.Empty(t, sent[0].GetHeader("Cc"))

	var buf bytes.Buffer
	_, err = sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
	assert.NotContains(t, buf.String(), "text/plain")
}

func TestSendSimple(t *testing.T) {
	var sent []*gomail.Message
	m := newRecordingMailer(&sent, nil)

	err := m.SendSimple([]string{"a@x.com"}, "Plain", "just text")
	require.NoError(t, err)
	require.Len(t, sent, 1)

	var buf bytes.Buffer
	_, err = sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/plain")
	assert.NotContains(t, buf.String(), "text/html")
	assert.Contains(t, buf.String(), "just text")
}

func TestSend_NoRecipients(t *testing.T) {
	var sent []*gomail.Message
	m := newRecordingMailer(&sent, nil)

	err := m.Send(Email{Subject: "nobody"})
	require.Error(t, err)
	assert.Empty(t, sent)
}

func TestSend_TransportError(t *testing.T) {
	var sent []*gomail.Message
	boom := errors.New("connection refused")
	m := newRecordingMailer(&sent, boom)

	err := m.SendHTML([]string{"a@x.com"}, "s", "<p>b</p>")
	assert.ErrorIs(t, err, boom)
}
