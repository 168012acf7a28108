package dispatch

import "errors"

// Sentinel errors for the delivery pipeline.
var (
	// ErrUnsupportedKind indicates a registry lookup for a channel kind
	// that has not been registered. This is a configuration error: the
	// dispatcher does not retry it, since retrying cannot change the
	// outcome.
	ErrUnsupportedKind = errors.New("unsupported channel kind")

	// ErrInvalidRecipient indicates the recipient address failed the
	// channel's format validation.
	ErrInvalidRecipient = errors.New("invalid recipient")

	// ErrChannelUnavailable indicates the channel's transport is not
	// configured (e.g. SMS endpoint or API key missing).
	ErrChannelUnavailable = errors.New("channel not configured")
)
