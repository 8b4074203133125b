// Package notification sends transactional messages to users.
package notification

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Message is an outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Service is a minimal mailer that writes messages to the log instead of
// sending them. The body is not logged since it may carry credentials.
type Service struct {
	from string
	log  logrus.FieldLogger
}

// NewService creates a logging notification service.
func NewService(from string, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{from: from, log: log.WithField("component", "notification")}
}

func (s *Service) Send(_ context.Context, msg Message) error {
	s.log.WithFields(logrus.Fields{
		"from":    s.from,
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email queued")
	return nil
}
