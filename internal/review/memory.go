package review

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-review/internal/workflow"
)

type memoryTxKey struct{}

// memoryState is one consistent view of the store. Transactions run against a
// cloned state and swap it in only on success.
type memoryState struct {
	items   map[uuid.UUID]*Item
	updates map[uuid.UUID]*Update
	// history preserves insertion order per item, oldest first.
	history map[uuid.UUID][]uuid.UUID
}

func newMemoryState() *memoryState {
	return &memoryState{
		items:   map[uuid.UUID]*Item{},
		updates: map[uuid.UUID]*Update{},
		history: map[uuid.UUID][]uuid.UUID{},
	}
}

func (s *memoryState) clone() *memoryState {
	out := newMemoryState()
	for id, item := range s.items {
		copied := *item
		out.items[id] = &copied
	}
	for id, update := range s.updates {
		copied := *update
		out.updates[id] = &copied
	}
	for itemID, ids := range s.history {
		out.history[itemID] = append([]uuid.UUID{}, ids...)
	}
	return out
}

// MemoryStore is an in-memory Store used by tests and by embedders that do
// not need durable persistence. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func (s *MemoryStore) Items() ItemRepository     { return &memoryItems{store: s} }
func (s *MemoryStore) Updates() UpdateRepository { return &memoryUpdates{store: s} }

// RunInTx clones the current state, runs fn against the clone, and publishes
// the clone only when fn succeeds. A failing fn leaves the store untouched.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if staged, ok := ctx.Value(memoryTxKey{}).(*memoryState); ok && staged != nil {
		// Nested transactions join the outer staging area.
		return fn(ctx)
	}

	s.mu.RLock()
	staged := s.state.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, memoryTxKey{}, staged)); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = staged
	s.mu.Unlock()
	return nil
}

// resolve returns the state a call should operate on, plus whether the caller
// must take the store lock (direct, non-transactional access).
func (s *MemoryStore) resolve(ctx context.Context) (*memoryState, bool) {
	if staged, ok := ctx.Value(memoryTxKey{}).(*memoryState); ok && staged != nil {
		return staged, false
	}
	return s.state, true
}

type memoryItems struct {
	store *MemoryStore
}

func (r *memoryItems) Create(ctx context.Context, item *Item) (*Item, error) {
	state, locked := r.store.resolve(ctx)
	if locked {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
		state = r.store.state
	}
	copied := *item
	state.items[item.ID] = &copied
	result := copied
	return &result, nil
}

func (r *memoryItems) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	state, locked := r.store.resolve(ctx)
	if locked {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
		state = r.store.state
	}
	item, ok := state.items[id]
	if !ok {
		return nil, &NotFoundError{Resource: "review item", Key: id.String()}
	}
	copied := *item
	return &copied, nil
}

func (r *memoryItems) Update(ctx context.Context, item *Item) (*Item, error) {
	state, locked := r.store.resolve(ctx)
	if locked {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
		state = r.store.state
	}
	if _, ok := state.items[item.ID]; !ok {
		return nil, &NotFoundError{Resource: "review item", Key: item.ID.String()}
	}
	copied := *item
	state.items[item.ID] = &copied
	result := copied
	return &result, nil
}

func (r *memoryItems) List(ctx context.Context, filter ItemFilter) ([]*Item, error) {
	state, locked := r.store.resolve(ctx)
	if locked {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
		state = r.store.state
	}
	wanted := map[uuid.UUID]bool{}
	for _, id := range filter.IDs {
		wanted[id] = true
	}
	out := []*Item{}
	for _, item := range state.items {
		if filter.ProjectID != nil && item.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.Kind != nil && item.Kind != *filter.Kind {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		if len(wanted) > 0 && !wanted[item.ID] {
			continue
		}
		copied := *item
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type memoryUpdates struct {
	store *MemoryStore
}

func (r *memoryUpdates) Create(ctx context.Context, update *Update) (*Update, error) {
	state, locked := r.store.resolve(ctx)
	if locked {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
		state = r.store.state
	}
	copied := *update
	state.updates[update.ID] = &copied
	state.history[update.ItemID] = append(state.history[update.ItemID], update.ID)
	result := copied
	return &result, nil
}

func (r *memoryUpdates) GetByID(ctx context.Context, id uuid.UUID) (*Update, error) {
	state, locked := r.store.resolve(ctx)
	if locked {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
		state = r.store.state
	}
	update, ok := state.updates[id]
	if !ok {
		return nil, &NotFoundError{Resource: "review update", Key: id.String()}
	}
	copied := *update
	return &copied, nil
}

func (r *memoryUpdates) History(ctx context.Context, itemID uuid.UUID) ([]*Update, error) {
	state, locked := r.store.resolve(ctx)
	if locked {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
		state = r.store.state
	}
	ids := state.history[itemID]
	out := make([]*Update, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if update, ok := state.updates[ids[i]]; ok {
			copied := *update
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memoryUpdates) LastStatusChange(ctx context.Context, itemID uuid.UUID, before time.Time, exclude uuid.UUID) (*Update, error) {
	return r.scan(ctx, itemID, before, exclude, func(u *Update) bool {
		return u.ChangedStatus()
	})
}

func (r *memoryUpdates) LastMatching(ctx context.Context, itemID uuid.UUID, pack workflow.Pack, before time.Time, exclude uuid.UUID) (*Update, error) {
	return r.scan(ctx, itemID, before, exclude, func(u *Update) bool {
		return pack.Contains(u.Transition())
	})
}

func (r *memoryUpdates) scan(ctx context.Context, itemID uuid.UUID, before time.Time, exclude uuid.UUID, match func(*Update) bool) (*Update, error) {
	state, locked := r.store.resolve(ctx)
	if locked {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
		state = r.store.state
	}
	ids := state.history[itemID]
	for i := len(ids) - 1; i >= 0; i-- {
		update, ok := state.updates[ids[i]]
		if !ok {
			continue
		}
		if update.ID == exclude {
			continue
		}
		if !before.IsZero() && !update.CreatedAt.Before(before) {
			continue
		}
		if match(update) {
			copied := *update
			return &copied, nil
		}
	}
	return nil, nil
}
