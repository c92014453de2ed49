package mail_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/hack4change/moncton/internal/mail"
)

type captureSender struct {
	msgs []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.msgs = append(c.msgs, m...)
	return c.err
}

func render(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSendWelcome(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	m := mail.NewMailerWithSender(sender, "noreply@hack4change.ca", "Hack4Change Moncton")

	require.NoError(t, m.SendWelcome(context.Background(), "ada@example.com", "Ada"))
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, []string{"ada@example.com"}, msg.GetHeader("To"))
	assert.Contains(t, msg.GetHeader("From")[0], "noreply@hack4change.ca")
	assert.Contains(t, render(t, msg), "Hi Ada,")
}

func TestSendWelcome_DefaultName(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	m := mail.NewMailerWithSender(sender, "noreply@hack4change.ca", "H4C")

	require.NoError(t, m.SendWelcome(context.Background(), "x@example.com", ""))
	assert.True(t, strings.Contains(render(t, sender.msgs[0]), "Hi Hacker,"))
}

func TestSendWelcome_EscapesName(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	m := mail.NewMailerWithSender(sender, "noreply@hack4change.ca", "H4C")

	require.NoError(t, m.SendWelcome(context.Background(), "x@example.com", "<b>x</b>"))
	assert.NotContains(t, render(t, sender.msgs[0]), "<b>x</b>")
}

func TestSendWelcome_SenderError(t *testing.T) {
	t.Parallel()

	m := mail.NewMailerWithSender(&captureSender{err: errors.New("535 auth failed")}, "a@b.c", "H4C")

	err := m.SendWelcome(context.Background(), "x@example.com", "X")
	assert.ErrorContains(t, err, "535 auth failed")
}
