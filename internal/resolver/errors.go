// Package resolver turns handles and typeahead queries into canonical profiles
// and ranked search candidates, backed by the upstream client and TTL caches.
package resolver

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every NotFoundError via errors.Is.
var ErrNotFound = errors.New("profile not found")

// NotFoundError indicates that no search value matched the handle exactly.
type NotFoundError struct {
	Handle string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("profile not found: %s", e.Handle)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UpstreamError represents a primary lookup failure that was not absorbed,
// either because the offline fallback is disabled or the caller canceled.
type UpstreamError struct {
	Message string
	Cause   error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("upstream error: %s", e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}
