package model

import "context"

// Message is a single outbound mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers messages. Implementations must be safe for concurrent use
// and must return delivery failures instead of swallowing them.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
