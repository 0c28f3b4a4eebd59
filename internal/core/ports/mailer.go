package ports

import "context"

// Mailer delivers a single HTML message. One attempt, no retry; the caller
// decides whether a failure is fatal.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// MailEnqueuer accepts messages for asynchronous delivery. Enqueue never
// blocks on the SMTP round trip.
type MailEnqueuer interface {
	Enqueue(to, subject, html string)
}
