package review

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-review/internal/workflow"
)

type bunTxKey struct{}

// BunStore is the bun-backed Store. Reads outside a transaction go through
// go-repository-bun (optionally cache-wrapped); writes and history scans use
// the transaction-aware connection.
type BunStore struct {
	db      *bun.DB
	items   *bunItems
	updates *bunUpdates
}

// NewBunStore builds a store without caching.
func NewBunStore(db *bun.DB) *BunStore {
	return NewBunStoreWithCache(db, nil, nil)
}

// NewBunStoreWithCache builds a store whose point reads are served through
// go-repository-cache when both collaborators are supplied.
func NewBunStoreWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunStore {
	store := &BunStore{db: db}
	store.items = &bunItems{
		store: store,
		repo:  wrapWithCache(newItemRepository(db), cacheService, keySerializer),
	}
	store.updates = &bunUpdates{
		store: store,
		repo:  wrapWithCache(newUpdateRepository(db), cacheService, keySerializer),
	}
	return store
}

func (s *BunStore) Items() ItemRepository     { return s.items }
func (s *BunStore) Updates() UpdateRepository { return s.updates }

// RunInTx opens a transaction and threads it through the context so every
// repository call inside fn shares it. Nested calls join the outer tx.
func (s *BunStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(bunTxKey{}).(bun.IDB); ok {
		return fn(ctx)
	}
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, bunTxKey{}, tx))
	})
}

func (s *BunStore) conn(ctx context.Context) bun.IDB {
	if idb, ok := ctx.Value(bunTxKey{}).(bun.IDB); ok {
		return idb
	}
	return s.db
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(bunTxKey{}).(bun.IDB)
	return ok
}

func newItemRepository(db *bun.DB) repository.Repository[*Item] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Item]{
		NewRecord: func() *Item { return &Item{} },
		GetID: func(item *Item) uuid.UUID {
			return item.ID
		},
		SetID: func(item *Item, id uuid.UUID) {
			item.ID = id
		},
		GetIdentifier: func() string {
			return "ref_key"
		},
		GetIdentifierValue: func(item *Item) string {
			return item.RefKey
		},
	})
}

func newUpdateRepository(db *bun.DB) repository.Repository[*Update] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Update]{
		NewRecord: func() *Update { return &Update{} },
		GetID: func(update *Update) uuid.UUID {
			return update.ID
		},
		SetID: func(update *Update, id uuid.UUID) {
			update.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(update *Update) string {
			return update.ID.String()
		},
	})
}

type bunItems struct {
	store *BunStore
	repo  repository.Repository[*Item]
}

func (r *bunItems) Create(ctx context.Context, item *Item) (*Item, error) {
	if _, err := r.store.conn(ctx).NewInsert().Model(item).Exec(ctx); err != nil {
		return nil, fmt.Errorf("review item insert: %w", err)
	}
	return item, nil
}

func (r *bunItems) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	if !inTx(ctx) {
		result, err := r.repo.GetByID(ctx, id.String())
		if err != nil {
			return nil, mapRepositoryError(err, "review item", id.String())
		}
		return result, nil
	}
	item := &Item{}
	err := r.store.conn(ctx).NewSelect().Model(item).Where("ri.id = ?", id).Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "review item", Key: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("review item select: %w", err)
	}
	return item, nil
}

func (r *bunItems) Update(ctx context.Context, item *Item) (*Item, error) {
	result, err := r.store.conn(ctx).NewUpdate().Model(item).WherePK().Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("review item update: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, &NotFoundError{Resource: "review item", Key: item.ID.String()}
	}
	return item, nil
}

func (r *bunItems) List(ctx context.Context, filter ItemFilter) ([]*Item, error) {
	items := []*Item{}
	query := r.store.conn(ctx).NewSelect().Model(&items)
	if filter.ProjectID != nil {
		query = query.Where("ri.project_id = ?", *filter.ProjectID)
	}
	if filter.Kind != nil {
		query = query.Where("ri.kind = ?", *filter.Kind)
	}
	if filter.Status != nil {
		query = query.Where("ri.status = ?", *filter.Status)
	}
	if len(filter.IDs) > 0 {
		query = query.Where("ri.id IN (?)", bun.In(filter.IDs))
	}
	if err := query.Order("ri.created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("review item list: %w", err)
	}
	return items, nil
}

type bunUpdates struct {
	store *BunStore
	repo  repository.Repository[*Update]
}

func (r *bunUpdates) Create(ctx context.Context, update *Update) (*Update, error) {
	if _, err := r.store.conn(ctx).NewInsert().Model(update).Exec(ctx); err != nil {
		return nil, fmt.Errorf("review update insert: %w", err)
	}
	return update, nil
}

func (r *bunUpdates) GetByID(ctx context.Context, id uuid.UUID) (*Update, error) {
	if !inTx(ctx) {
		result, err := r.repo.GetByID(ctx, id.String())
		if err != nil {
			return nil, mapRepositoryError(err, "review update", id.String())
		}
		return result, nil
	}
	update := &Update{}
	err := r.store.conn(ctx).NewSelect().Model(update).Where("ru.id = ?", id).Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "review update", Key: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("review update select: %w", err)
	}
	return update, nil
}

func (r *bunUpdates) History(ctx context.Context, itemID uuid.UUID) ([]*Update, error) {
	updates := []*Update{}
	err := r.store.conn(ctx).NewSelect().
		Model(&updates).
		Where("ru.item_id = ?", itemID).
		Order("ru.created_at DESC").
		Order("ru.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("review update history: %w", err)
	}
	return updates, nil
}

func (r *bunUpdates) LastStatusChange(ctx context.Context, itemID uuid.UUID, before time.Time, exclude uuid.UUID) (*Update, error) {
	return r.scan(ctx, itemID, before, exclude, func(u *Update) bool {
		return u.ChangedStatus()
	})
}

func (r *bunUpdates) LastMatching(ctx context.Context, itemID uuid.UUID, pack workflow.Pack, before time.Time, exclude uuid.UUID) (*Update, error) {
	return r.scan(ctx, itemID, before, exclude, func(u *Update) bool {
		return pack.Contains(u.Transition())
	})
}

// scan walks the history newest first and filters in Go. Transition matching
// depends on snapshot semantics that do not translate to portable SQL across
// the supported dialects; histories are short enough to page through.
func (r *bunUpdates) scan(ctx context.Context, itemID uuid.UUID, before time.Time, exclude uuid.UUID, match func(*Update) bool) (*Update, error) {
	updates := []*Update{}
	query := r.store.conn(ctx).NewSelect().
		Model(&updates).
		Where("ru.item_id = ?", itemID).
		Order("ru.created_at DESC").
		Order("ru.id DESC")
	if !before.IsZero() {
		query = query.Where("ru.created_at < ?", before)
	}
	if exclude != uuid.Nil {
		query = query.Where("ru.id != ?", exclude)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("review update scan: %w", err)
	}
	for _, update := range updates {
		if match(update) {
			return update, nil
		}
	}
	return nil, nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
