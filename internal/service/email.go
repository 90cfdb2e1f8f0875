package service

import "context"

type Attachment struct {
	Filename string
	Content  []byte
}

type Message struct {
	To     string
	ToName string
	// Kind labels the email category for metrics (password-reset, welcome,
	// meeting-notes).
	Kind        string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer hands messages to the transport. Delivery is best-effort: callers
// log failures and never fail the surrounding operation on a send error.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
