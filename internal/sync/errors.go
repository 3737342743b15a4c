package sync

import (
	"errors"
	"fmt"
)

var (
	// ErrTenantNotFound means the requested tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantAccess means the authenticated user is not a member of the
	// requested tenant. No store access happens after this is returned.
	ErrTenantAccess = errors.New("not a member of tenant")

	// ErrRowCountMismatch means the store reported fewer (or more) affected
	// rows than a batch statement expected. It always aborts the push
	// transaction.
	ErrRowCountMismatch = errors.New("affected row count mismatch")
)

// ValidationError reports a pushed record or payload that violates the sync
// contract. It maps to a client error, never to a retryable server fault.
type ValidationError struct {
	Entity string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Entity, e.Reason)
}
