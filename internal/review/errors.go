package review

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-review/internal/domain"
)

var (
	ErrItemRequired      = errors.New("review: item id required")
	ErrActorRoleInvalid  = errors.New("review: actor role invalid")
	ErrKindInvalid       = errors.New("review: entity kind invalid")
	ErrKindMismatch      = errors.New("review: entity kind mismatch")
	ErrStatusInvalid     = errors.New("review: status invalid for entity kind")
	ErrInvalidTransition = errors.New("review: invalid transition")
	ErrBulkChangeInvalid = errors.New("review: not a valid status change")
	ErrMalformedPayload  = errors.New("review: malformed update payload")
	ErrStaleStatus       = errors.New("review: stale status precondition failed")
	ErrBulkTargetsEmpty  = errors.New("review: bulk update requires target items")
)

// NotFoundError represents missing records from repository lookups.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// InvalidTransitionError rejects a single-item update whose transition is not
// permitted for the acting role. Distinguishable from malformed payloads.
type InvalidTransitionError struct {
	From *domain.Status
	To   *domain.Status
	Role domain.Role
}

func (e *InvalidTransitionError) Error() string {
	from := "(none)"
	if e.From != nil {
		from = string(*e.From)
	}
	to := "(none)"
	if e.To != nil {
		to = string(*e.To)
	}
	return fmt.Sprintf("invalid transition from %s to %s", from, to)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// BulkChangeError rejects a bulk update before any persistence occurs.
type BulkChangeError struct {
	From *domain.Status
	To   *domain.Status
	Role domain.Role
}

func (e *BulkChangeError) Error() string {
	return "not a valid status change"
}

func (e *BulkChangeError) Unwrap() error {
	return ErrBulkChangeInvalid
}

// MalformedPayloadError flags a status change without the required status key
// or a snapshot that fails schema validation.
type MalformedPayloadError struct {
	Reason string
	Cause  error
}

func (e *MalformedPayloadError) Error() string {
	if e.Reason == "" {
		return ErrMalformedPayload.Error()
	}
	return fmt.Sprintf("%s: %s", ErrMalformedPayload.Error(), e.Reason)
}

func (e *MalformedPayloadError) Unwrap() error {
	return ErrMalformedPayload
}

// StaleStatusError signals the optimistic-concurrency precondition: the
// update's old snapshot disagrees with the item's current status.
type StaleStatusError struct {
	ItemID   uuid.UUID
	Expected domain.Status
	Actual   domain.Status
}

func (e *StaleStatusError) Error() string {
	return fmt.Sprintf("stale status for item %s: update expects %s, item is %s", e.ItemID, e.Expected, e.Actual)
}

func (e *StaleStatusError) Unwrap() error {
	return ErrStaleStatus
}
