package notifications

import "context"

// Channel delivers one payload to one recipient over an external medium.
// Any returned error counts as delivery failure; the dispatcher never marks
// the event delivered on error.
type Channel interface {
	Send(ctx context.Context, recipientRef string, p Payload) error
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc func(ctx context.Context, recipientRef string, p Payload) error

func (f ChannelFunc) Send(ctx context.Context, recipientRef string, p Payload) error {
	return f(ctx, recipientRef, p)
}
