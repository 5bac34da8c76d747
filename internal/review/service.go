package review

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-review/internal/domain"
	"github.com/goliatone/go-review/internal/logging"
	"github.com/goliatone/go-review/internal/validation"
	"github.com/goliatone/go-review/pkg/interfaces"
)

// Service exposes the review engine operations: item creation, single and
// bulk updates, history reads, and checkpoint lookups.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*Item, error)
	ApplyUpdate(ctx context.Context, input ApplyUpdateInput) (*Update, error)
	ApplyBulkUpdate(ctx context.Context, input ApplyBulkUpdateInput) ([]*Update, error)
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]*Item, error)
	History(ctx context.Context, itemID uuid.UUID) ([]*Update, error)
	Checkpoint(ctx context.Context, itemID uuid.UUID) (*Update, error)
}

// CreateItemInput describes a new reviewable item and its creating update.
type CreateItemInput struct {
	ProjectID     uuid.UUID
	Kind          domain.Kind
	RefKey        string
	Title         string
	Status        domain.Status
	LinkedIssueID *uuid.UUID
	Actor         domain.Actor
	Data          domain.Snapshot
	Comment       *string
	Attachments   []string
}

// ApplyUpdateInput describes a single-item update. OldData carries the fields
// the actor observed before editing; a status change must state the prior
// status there so concurrent edits are detected.
type ApplyUpdateInput struct {
	ItemID      uuid.UUID
	Actor       domain.Actor
	OldData     domain.Snapshot
	NewData     domain.Snapshot
	Comment     *string
	IsComment   bool
	Attachments []string
}

// ApplyBulkUpdateInput moves a set of same-kind items through one transition
// atomically. Validation happens for every target before anything persists.
type ApplyBulkUpdateInput struct {
	ItemIDs []uuid.UUID
	Kind    domain.Kind
	Actor   domain.Actor
	From    domain.Status
	To      domain.Status
	Comment *string
}

// Synchronizer propagates a committed task update onto its linked issue
// inside the same transaction. Implementations return the mirrored update,
// or nil when nothing needed syncing.
type Synchronizer interface {
	Sync(ctx context.Context, item *Item, update *Update) (*Update, error)
}

type service struct {
	store        Store
	flows        FlowFactory
	tracker      *Tracker
	sync         Synchronizer
	notifier     interfaces.ReviewNotifier
	clock        func() time.Time
	idgen        func() uuid.UUID
	logger       interfaces.Logger
	strictStatus bool

	trackerOpts []TrackerOption
}

// Option configures service construction.
type Option func(*service)

// WithFlowFactory overrides the flow factory, typically to install compiled
// table configuration.
func WithFlowFactory(flows FlowFactory) Option {
	return func(s *service) {
		if flows != nil {
			s.flows = flows
		}
	}
}

// WithSynchronizer installs the task/issue synchronizer.
func WithSynchronizer(sync Synchronizer) Option {
	return func(s *service) {
		s.sync = sync
	}
}

// WithNotifier installs the post-commit status-change notifier.
func WithNotifier(notifier interfaces.ReviewNotifier) Option {
	return func(s *service) {
		s.notifier = notifier
	}
}

// WithStrictStatusCheck toggles the optimistic-concurrency precondition. When
// disabled, a status change no longer has to restate the status it replaces.
func WithStrictStatusCheck(enabled bool) Option {
	return func(s *service) {
		s.strictStatus = enabled
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(idgen func() uuid.UUID) Option {
	return func(s *service) {
		if idgen != nil {
			s.idgen = idgen
		}
	}
}

// WithLoggerProvider wires module loggers for the service and its tracker.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(s *service) {
		if provider != nil {
			s.logger = logging.EngineLogger(provider)
			s.trackerOpts = append(s.trackerOpts, WithTrackerLogger(logging.TrackerLogger(provider)))
		}
	}
}

// NewService builds the review engine over the supplied store.
func NewService(store Store, opts ...Option) Service {
	s := &service{
		store:        store,
		flows:        DefaultFlowFactory(nil),
		clock:        time.Now,
		idgen:        uuid.New,
		logger:       logging.EngineLogger(nil),
		strictStatus: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	trackerOpts := append([]TrackerOption{WithTrackerClock(s.clock)}, s.trackerOpts...)
	s.tracker = NewTracker(store, s.flows, trackerOpts...)
	return s
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*Item, error) {
	kind := domain.NormalizeKind(string(input.Kind))
	if !kind.Valid() {
		return nil, ErrKindInvalid
	}
	if !input.Actor.Role.Valid() {
		return nil, ErrActorRoleInvalid
	}

	status := input.Status
	if status == "" {
		status = initialStatus(kind)
	}
	if !status.ValidFor(kind) {
		return nil, ErrStatusInvalid
	}

	if err := validation.ValidateSnapshot(input.Data); err != nil {
		return nil, &MalformedPayloadError{Reason: "creation data", Cause: err}
	}

	now := s.clock()
	item := &Item{
		ID:            s.idgen(),
		ProjectID:     input.ProjectID,
		Kind:          kind,
		RefKey:        input.RefKey,
		Title:         input.Title,
		Status:        status,
		LinkedIssueID: input.LinkedIssueID,
		CreatedBy:     input.Actor.ID,
		UpdatedBy:     input.Actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	update := &Update{
		ID:          s.idgen(),
		ItemID:      item.ID,
		Role:        input.Actor.Role,
		ActorID:     input.Actor.ID,
		Company:     input.Actor.Company,
		Superuser:   input.Actor.Superuser,
		NewData:     input.Data.WithStatus(status),
		Comment:     input.Comment,
		Attachments: input.Attachments,
		CreatedAt:   now,
	}

	flow, err := s.flows(item, update)
	if err != nil {
		return nil, err
	}
	if !flow.IsValidChange() {
		transition := flow.Transition()
		return nil, &InvalidTransitionError{From: transition.From, To: transition.To, Role: input.Actor.Role}
	}

	var created *Item
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.Items().Create(ctx, item); err != nil {
			return err
		}
		if _, err := s.store.Updates().Create(ctx, update); err != nil {
			return err
		}
		created, err = s.tracker.Recompute(ctx, item, update)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item created", "item", created.ID, "kind", created.Kind, "status", created.Status)
	s.notify(ctx, created, update, nil)
	return created, nil
}

func (s *service) ApplyUpdate(ctx context.Context, input ApplyUpdateInput) (*Update, error) {
	if input.ItemID == uuid.Nil {
		return nil, ErrItemRequired
	}
	if !input.Actor.Role.Valid() {
		return nil, ErrActorRoleInvalid
	}

	item, err := s.store.Items().GetByID(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}

	update, err := s.buildUpdate(item, input)
	if err != nil {
		return nil, err
	}

	flow, err := s.flows(item, update)
	if err != nil {
		return nil, err
	}
	if !flow.IsValidChange() {
		transition := flow.Transition()
		return nil, &InvalidTransitionError{From: transition.From, To: transition.To, Role: input.Actor.Role}
	}

	prior := item.Status
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.Updates().Create(ctx, update); err != nil {
			return err
		}
		if status, ok := update.NewData.Status(); ok {
			item.Status = status
		}
		item.UpdatedBy = input.Actor.ID
		if item, err = s.tracker.Recompute(ctx, item, update); err != nil {
			return err
		}
		return s.syncLinked(ctx, item, update)
	})
	if err != nil {
		return nil, err
	}

	if update.ChangedStatus() {
		s.logger.Info("status changed", "item", item.ID, "from", prior, "to", item.Status, "role", update.Role)
		s.notify(ctx, item, update, &prior)
	}
	return update, nil
}

func (s *service) ApplyBulkUpdate(ctx context.Context, input ApplyBulkUpdateInput) ([]*Update, error) {
	if len(input.ItemIDs) == 0 {
		return nil, ErrBulkTargetsEmpty
	}
	kind := domain.NormalizeKind(string(input.Kind))
	if !kind.Valid() {
		return nil, ErrKindInvalid
	}
	if !input.Actor.Role.Valid() {
		return nil, ErrActorRoleInvalid
	}
	if !input.From.ValidFor(kind) || !input.To.ValidFor(kind) {
		return nil, ErrStatusInvalid
	}

	now := s.clock()
	items := make([]*Item, 0, len(input.ItemIDs))
	updates := make([]*Update, 0, len(input.ItemIDs))
	priors := make([]domain.Status, 0, len(input.ItemIDs))

	// Validate every target before touching storage.
	for _, id := range input.ItemIDs {
		item, err := s.store.Items().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if item.Kind != kind {
			return nil, ErrKindMismatch
		}
		if item.Status != input.From {
			return nil, &StaleStatusError{ItemID: item.ID, Expected: input.From, Actual: item.Status}
		}

		update := &Update{
			ID:        s.idgen(),
			ItemID:    item.ID,
			Role:      input.Actor.Role,
			ActorID:   input.Actor.ID,
			Company:   input.Actor.Company,
			Superuser: input.Actor.Superuser,
			OldData:   domain.Snapshot{}.WithStatus(input.From),
			NewData:   domain.Snapshot{}.WithStatus(input.To),
			Comment:   input.Comment,
			CreatedAt: now,
		}
		flow, err := s.flows(item, update)
		if err != nil {
			return nil, err
		}
		if !flow.IsValidBulkUpdate() {
			transition := flow.Transition()
			return nil, &BulkChangeError{From: transition.From, To: transition.To, Role: input.Actor.Role}
		}

		priors = append(priors, item.Status)
		items = append(items, item)
		updates = append(updates, update)
	}

	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		for i, item := range items {
			update := updates[i]
			if _, err := s.store.Updates().Create(ctx, update); err != nil {
				return err
			}
			item.Status = input.To
			item.UpdatedBy = input.Actor.ID
			var err error
			if items[i], err = s.tracker.Recompute(ctx, item, update); err != nil {
				return err
			}
			if err := s.syncLinked(ctx, items[i], update); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bulk status change", "kind", kind, "count", len(items), "from", input.From, "to", input.To)
	for i, item := range items {
		s.notify(ctx, item, updates[i], &priors[i])
	}
	return updates, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	if id == uuid.Nil {
		return nil, ErrItemRequired
	}
	return s.store.Items().GetByID(ctx, id)
}

func (s *service) ListItems(ctx context.Context, filter ItemFilter) ([]*Item, error) {
	return s.store.Items().List(ctx, filter)
}

func (s *service) History(ctx context.Context, itemID uuid.UUID) ([]*Update, error) {
	if itemID == uuid.Nil {
		return nil, ErrItemRequired
	}
	return s.store.Updates().History(ctx, itemID)
}

func (s *service) Checkpoint(ctx context.Context, itemID uuid.UUID) (*Update, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.tracker.Checkpoint(ctx, item)
}

// buildUpdate validates payload shape and the optimistic status precondition,
// returning the record to persist. Malformed payloads are reported separately
// from disallowed transitions.
func (s *service) buildUpdate(item *Item, input ApplyUpdateInput) (*Update, error) {
	if len(input.NewData) == 0 && !input.IsComment {
		return nil, &MalformedPayloadError{Reason: "update carries no changes"}
	}
	if err := validation.ValidateSnapshot(input.OldData); err != nil {
		return nil, &MalformedPayloadError{Reason: "old data", Cause: err}
	}
	if err := validation.ValidateSnapshot(input.NewData); err != nil {
		return nil, &MalformedPayloadError{Reason: "new data", Cause: err}
	}

	oldData := input.OldData.Clone()
	if newStatus, ok := input.NewData.Status(); ok && newStatus != item.Status {
		if !newStatus.ValidFor(item.Kind) {
			return nil, ErrStatusInvalid
		}
		oldStatus, ok := oldData.Status()
		switch {
		case !ok && s.strictStatus:
			return nil, &MalformedPayloadError{Reason: "status change missing prior status"}
		case !ok:
			// Record the observed status so the history still derives a
			// well-formed transition.
			oldData = oldData.WithStatus(item.Status)
		case oldStatus != item.Status && s.strictStatus:
			return nil, &StaleStatusError{ItemID: item.ID, Expected: oldStatus, Actual: item.Status}
		}
	}

	return &Update{
		ID:          s.idgen(),
		ItemID:      item.ID,
		Role:        input.Actor.Role,
		ActorID:     input.Actor.ID,
		Company:     input.Actor.Company,
		Superuser:   input.Actor.Superuser,
		OldData:     oldData,
		NewData:     input.NewData.Clone(),
		Comment:     input.Comment,
		IsComment:   input.IsComment,
		Attachments: input.Attachments,
		CreatedAt:   s.clock(),
	}, nil
}

func (s *service) syncLinked(ctx context.Context, item *Item, update *Update) error {
	if s.sync == nil {
		return nil
	}
	mirrored, err := s.sync.Sync(ctx, item, update)
	if err != nil {
		return err
	}
	if mirrored != nil {
		s.logger.Debug("linked item synced", "item", item.ID, "mirror", mirrored.ItemID)
	}
	return nil
}

func (s *service) notify(ctx context.Context, item *Item, update *Update, prior *domain.Status) {
	if s.notifier == nil {
		return
	}
	fact := interfaces.StatusChangeFact{
		ItemID:    item.ID,
		Kind:      string(item.Kind),
		NewStatus: string(item.Status),
		ActorID:   update.ActorID,
		ActorRole: string(update.Role),
		Company:   update.Company,
	}
	if prior != nil {
		old := string(*prior)
		fact.OldStatus = &old
	}
	if update.Comment != nil {
		fact.ChangeNote = *update.Comment
	}
	s.notifier.StatusChanged(ctx, fact)
}

func initialStatus(kind domain.Kind) domain.Status {
	if kind == domain.KindIssue {
		return domain.StatusUnderReview
	}
	return domain.StatusInProgress
}
