package notifications

import "errors"

// Domain errors for notification operations.
var (
	ErrNotFound = errors.New("notification event not found")
	// ErrDeliveryFailed wraps a channel failure; the event stays undelivered
	// and eligible for the retry sweep.
	ErrDeliveryFailed = errors.New("notification delivery failed")
	// ErrNoChannel indicates no channel is configured for a recipient class.
	ErrNoChannel = errors.New("no channel for recipient class")
)
