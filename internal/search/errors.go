package search

import "errors"

var (
	// ErrMissingAPIKey is returned when a provider is called without an API key.
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrNoResults is returned when a provider's response decodes to zero
	// results, so the registry tries the next provider instead of treating
	// an empty response as success.
	ErrNoResults = errors.New("no search results found")

	// ErrRateLimited is returned when a provider responds with HTTP 429.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrProviderUnavailable is returned when a provider responds with a 5xx status.
	ErrProviderUnavailable = errors.New("search provider is currently unavailable")
)