// Package remote adapts the backend REST endpoints to the binding.Fetcher
// contract. Every failure path (unreachable host, timeout, non-2xx status,
// unparsable body, logically empty response) resolves to a Result variant
// here; nothing past this boundary raises a plain error.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nodesync/binding"
	"nodesync/httpapi"
	"nodesync/logger"
)

// Cache is the slice of the store the sources need. A nil Cache disables
// caching.
type Cache interface {
	GetJSON(key string, v any) (bool, error)
	PutJSON(key string, v any, ttl time.Duration) error
}

// failureLog records a cache write problem without affecting the refresh.
func failureLog(err error) {
	logger.Warn("Cache write failed", "error", err)
}

// failure maps a transport error to the user-visible Result sentinel.
func failure(source string, err error) binding.Result {
	if errors.Is(err, context.DeadlineExceeded) {
		logger.Source(source).Warn("Request timed out")
		return binding.Error(binding.TimeoutSentinel)
	}

	var statusErr *httpapi.StatusError
	if errors.As(err, &statusErr) {
		logger.Source(source).Error("Request rejected", "status", statusErr.Code, "message", statusErr.Message)
		if statusErr.Message != "" {
			return binding.Error(statusErr.Message)
		}
		return binding.Error(fmt.Sprintf("Request failed (%d)", statusErr.Code))
	}

	logger.Source(source).Error("Request failed", "error", err)
	return binding.Error("Connection error")
}
