package interfaces

import "context"

// OutcomeMessage is the notification emitted after a workflow reaches a
// terminal state. HTML and Text are alternative bodies; senders may use
// either or both.
type OutcomeMessage struct {
	Subject string `json:"subject"`
	To      string `json:"to"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

// EmailSender delivers outcome messages. The concrete delivery mechanism is
// an external collaborator; implementations in this module are limited to
// test doubles and thin adapters.
type EmailSender interface {
	Send(ctx context.Context, msg OutcomeMessage) error
}
