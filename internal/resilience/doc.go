// Package resilience provides reliability and fault tolerance patterns for the application.
// It includes circuit breakers and retry logic protecting the outbound
// fetch paths (feed polls and article page fetches).
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FeedFetchConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callExternalService()
//	})
//
//	retryConfig := retry.DefaultConfig()
//	err := retry.WithBackoff(ctx, retryConfig, func() error {
//	    return performOperation()
//	})
package resilience
