package entity

import "fmt"

// ValidationError reports an invalid feed configuration value, naming the
// offending field. Raised by the feeds file loader before a feed ever
// reaches the polling pipeline.
type ValidationError struct {
	FeedID  string
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	if e.FeedID == "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("feed %q: validation error on field '%s': %s", e.FeedID, e.Field, e.Message)
}
