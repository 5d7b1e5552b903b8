package notify

import "errors"

// Sentinel errors for notification dispatch.
var (
	// ErrChannelDisabled indicates Send was called on a disabled channel.
	ErrChannelDisabled = errors.New("notification channel is disabled")

	// ErrInvalidArticle indicates a nil article or one missing required fields.
	ErrInvalidArticle = errors.New("invalid article for notification")
)
