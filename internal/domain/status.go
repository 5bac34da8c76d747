package domain

import "strings"

// Status represents a lifecycle state of a reviewable item. Each entity kind
// recognises its own subset, see StatusesFor.
type Status string

const (
	StatusInProgress         Status = "in_progress"
	StatusContested          Status = "contested"
	StatusRequestingApproval Status = "requesting_approval"
	StatusApprovalRejected   Status = "requested_approval_rejected"
	StatusAccepted           Status = "accepted"
	StatusRemoved            Status = "removed"

	StatusUnderInspection    Status = "under_inspection"
	StatusInspectionRejected Status = "inspection_rejected"
	StatusDeclined           Status = "declined"
	StatusClosed             Status = "closed"
	StatusUnderReview        Status = "under_review"
)

// StatusesFor returns the status set recognised by the supplied entity kind.
func StatusesFor(kind Kind) []Status {
	switch kind {
	case KindDocument, KindDrawing:
		return []Status{
			StatusInProgress,
			StatusContested,
			StatusRequestingApproval,
			StatusApprovalRejected,
			StatusAccepted,
			StatusRemoved,
		}
	case KindTask:
		return []Status{
			StatusInProgress,
			StatusUnderInspection,
			StatusInspectionRejected,
			StatusDeclined,
			StatusClosed,
			StatusRemoved,
		}
	case KindIssue:
		return []Status{
			StatusUnderReview,
			StatusInProgress,
			StatusUnderInspection,
			StatusInspectionRejected,
			StatusClosed,
			StatusRemoved,
		}
	default:
		return nil
	}
}

// ValidFor reports whether the status belongs to the kind's status set.
func (s Status) ValidFor(kind Kind) bool {
	for _, candidate := range StatusesFor(kind) {
		if candidate == s {
			return true
		}
	}
	return false
}

// NormalizeStatus coerces arbitrary status strings into the canonical representation.
func NormalizeStatus(input string) Status {
	return Status(strings.ToLower(strings.TrimSpace(input)))
}
