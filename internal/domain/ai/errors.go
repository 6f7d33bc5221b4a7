package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrProviderUnavailable covers transport failures and timeouts reaching the provider.
// There is no raw text to extract from when this is returned.
var ErrProviderUnavailable = errors.New("ai provider unavailable")

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("ai provider returned empty response")
