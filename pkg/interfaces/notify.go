package interfaces

import (
	"context"

	"github.com/google/uuid"
)

// StatusChangeFact is the committed-transition fact the engine exposes after
// a successful apply. Hosts decide whether to notify configured recipients;
// the engine performs no notification I/O itself.
type StatusChangeFact struct {
	ItemID     uuid.UUID
	Kind       string
	OldStatus  *string
	NewStatus  string
	ActorID    uuid.UUID
	ActorRole  string
	Company    string
	ChangeNote string
}

// ReviewNotifier receives committed status-change facts. Implementations run
// after the transaction commits and must not influence its outcome.
type ReviewNotifier interface {
	StatusChanged(ctx context.Context, fact StatusChangeFact)
}

// ReviewNotifierFunc adapts a function to the ReviewNotifier contract.
type ReviewNotifierFunc func(ctx context.Context, fact StatusChangeFact)

func (fn ReviewNotifierFunc) StatusChanged(ctx context.Context, fact StatusChangeFact) {
	fn(ctx, fact)
}
