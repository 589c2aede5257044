// Package contact forwards contact form submissions to the site owner by mail.
package contact

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/alexvite/curriculum-vitae/internal/pkg/ctxlog"
	"golang.org/x/text/unicode/norm"
)

// Mail is an outgoing plain-text message.
type Mail struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

// Mailer delivers mail.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// Message is a contact form submission.
type Message struct {
	Name    string
	Email   string
	Message string
}

func (m Message) normalize() (Message, error) {
	// collapsing whitespace keeps line breaks out of the subject header
	m.Name = norm.NFC.String(strings.Join(strings.Fields(m.Name), " "))
	if m.Name == "" {
		return m, ErrNameRequired
	}
	if utf8.RuneCountInString(m.Name) > MaxNameLength {
		return m, ErrNameTooLong
	}

	m.Email = strings.TrimSpace(m.Email)
	if len(m.Email) > MaxEmailLength {
		return m, ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(m.Email)
	if err != nil || addr.Address != m.Email {
		return m, ErrInvalidEmail
	}

	m.Message = norm.NFC.String(strings.TrimSpace(m.Message))
	if m.Message == "" {
		return m, ErrMessageRequired
	}
	if utf8.RuneCountInString(m.Message) > MaxMessageLength {
		return m, ErrMessageTooLong
	}
	return m, nil
}

// Service sends contact form submissions to a fixed recipient.
type Service struct {
	mailer    Mailer
	recipient string
}

// NewService creates a contact service. A nil mailer disables delivery and
// every valid submission fails with ErrUnavailable.
func NewService(mailer Mailer, recipient string) *Service {
	return &Service{mailer: mailer, recipient: recipient}
}

// Submit validates msg and mails it to the recipient with the sender as Reply-To.
func (s *Service) Submit(ctx context.Context, msg Message) error {
	msg, err := msg.normalize()
	if err != nil {
		recordSubmission("invalid")
		return err
	}

	if s.mailer == nil {
		recordSubmission("disabled")
		return ErrUnavailable
	}

	m := Mail{
		To:      s.recipient,
		ReplyTo: msg.Email,
		Subject: "New Contact Form Submission from " + msg.Name,
		Body:    fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s\n", msg.Name, msg.Email, msg.Message),
	}
	if err := s.mailer.Send(ctx, m); err != nil {
		recordSubmission("error")
		ctxlog.FromContext(ctx).Error("contact message not delivered", "error", err)
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	recordSubmission("sent")

	ctxlog.FromContext(ctx).Info("contact message sent")
	return nil
}
