// Package mail sends transactional email over SMTP.
package mail

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

// DefaultFirstName greets users who did not give a first name.
const DefaultFirstName = "Hacker"

// WelcomeSubject is the subject line of the welcome email.
const WelcomeSubject = "You're in! Welcome to Hack4Change Moncton 🚀"

//go:embed templates/welcome.html
var welcomeHTML string

var welcomeTmpl = template.Must(template.New("welcome").Parse(welcomeHTML))

// Sender delivers a composed message.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Config holds SMTP and sender settings.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	SenderEmail string
	SenderName  string
}

// Mailer composes and sends emails.
type Mailer struct {
	sender      Sender
	senderEmail string
	senderName  string
}

// NewMailer creates a Mailer that dials cfg's SMTP server with implicit TLS
// on port 465 and STARTTLS otherwise.
func NewMailer(cfg Config) *Mailer {
	return NewMailerWithSender(
		gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		cfg.SenderEmail, cfg.SenderName,
	)
}

// NewMailerWithSender creates a Mailer on an arbitrary Sender.
func NewMailerWithSender(sender Sender, senderEmail, senderName string) *Mailer {
	return &Mailer{sender: sender, senderEmail: senderEmail, senderName: senderName}
}

// SendWelcome sends the welcome email to a freshly confirmed user.
func (m *Mailer) SendWelcome(_ context.Context, to, firstName string) error {
	if firstName == "" {
		firstName = DefaultFirstName
	}

	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, struct{ FirstName, Email string }{firstName, to}); err != nil {
		return fmt.Errorf("rendering welcome email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.senderEmail, m.senderName))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", WelcomeSubject)
	msg.SetBody("text/html", body.String())

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending welcome email: %w", err)
	}
	return nil
}
