package notify

import "context"

// Message is a rendered notification ready for a channel provider.
type Message struct {
	Subject  string
	Body     string
	Priority string // urgent, high, or normal
}

// Provider delivers a Message through one channel. Implementations respect
// context cancellation and return nil on successful delivery.
type Provider interface {
	Send(ctx context.Context, recipient string, msg Message) error
	Name() string
}
