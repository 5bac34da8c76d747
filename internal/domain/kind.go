package domain

import "strings"

// Kind identifies the reviewable entity families governed by the review engine.
type Kind string

const (
	// KindDocument covers uploaded evidence documents signed off by the client.
	KindDocument Kind = "document"
	// KindDrawing covers drawing/photo media signed off by the consultant.
	KindDrawing Kind = "drawing"
	// KindTask covers correction tasks worked by the subcontractor.
	KindTask Kind = "task"
	// KindIssue covers inspection issues raised by the client or consultant.
	KindIssue Kind = "issue"
)

// Kinds lists every registered entity kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindDocument, KindDrawing, KindTask, KindIssue}
}

// IsMedia reports whether the kind belongs to the document-media family.
func (k Kind) IsMedia() bool {
	return k == KindDocument || k == KindDrawing
}

// IsInspection reports whether the kind belongs to the task/issue family.
func (k Kind) IsInspection() bool {
	return k == KindTask || k == KindIssue
}

// Valid reports whether the kind is one of the registered entity kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDocument, KindDrawing, KindTask, KindIssue:
		return true
	default:
		return false
	}
}

// NormalizeKind coerces arbitrary kind strings into the canonical representation.
func NormalizeKind(input string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(input)))
}
