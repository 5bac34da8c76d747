package review

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-review/internal/domain"
	"github.com/goliatone/go-review/internal/workflow"
)

// ItemRepository persists reviewable items.
type ItemRepository interface {
	Create(ctx context.Context, item *Item) (*Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	Update(ctx context.Context, item *Item) (*Item, error)
	List(ctx context.Context, filter ItemFilter) ([]*Item, error)
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	ProjectID *uuid.UUID
	Kind      *domain.Kind
	Status    *domain.Status
	IDs       []uuid.UUID
}

// UpdateRepository persists the append-only update history of items.
type UpdateRepository interface {
	Create(ctx context.Context, update *Update) (*Update, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Update, error)
	// History returns an item's updates newest first.
	History(ctx context.Context, itemID uuid.UUID) ([]*Update, error)
	// LastStatusChange returns the most recent update that changed the item's
	// status, created strictly before the supplied time and excluding the
	// given update id. Returns nil with no error when no such update exists.
	LastStatusChange(ctx context.Context, itemID uuid.UUID, before time.Time, exclude uuid.UUID) (*Update, error)
	// LastMatching returns the most recent update whose derived transition is
	// a member of the supplied pack, created strictly before the supplied
	// time and excluding the given update id. Returns nil with no error when
	// no such update exists.
	LastMatching(ctx context.Context, itemID uuid.UUID, pack workflow.Pack, before time.Time, exclude uuid.UUID) (*Update, error)
}

// Transactor runs a unit of work atomically. Repository calls made with the
// supplied context participate in the same transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the persistence surface the engine operates on.
type Store interface {
	Items() ItemRepository
	Updates() UpdateRepository
	Transactor
}

// FlowFactory builds the flow variant used to validate one update against one
// item. Implementations pick tables from the item's kind and linkage.
type FlowFactory func(item *Item, update *Update) (workflow.Flow, error)

// DefaultFlowFactory builds flows from the static tables, optionally replaced
// by compiled configuration overrides.
func DefaultFlowFactory(tables map[domain.Kind]workflow.Tables) FlowFactory {
	return func(item *Item, update *Update) (workflow.Flow, error) {
		opts := []workflow.FlowOption{
			workflow.WithStandaloneTask(item.Standalone()),
		}
		if tables != nil {
			opts = append(opts, workflow.WithTables(tables))
		}
		return workflow.NewFlow(item.Kind, update.Change(), update.Actor(), opts...)
	}
}
