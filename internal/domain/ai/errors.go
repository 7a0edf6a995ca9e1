package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrUpstream wraps any other provider failure.
var ErrUpstream = errors.New("ai upstream error")

// ErrEmptyResponse means the provider answered without any text.
var ErrEmptyResponse = errors.New("ai returned no content")
