// Package review is a multi-party review engine for construction projects.
// Reviewable items (documents, drawings, tasks, issues) move through
// per-kind status lifecycles; per-role transition tables decide who may move
// what where, which moves ratify the item's state, and which moves undo an
// earlier step. Every change is an immutable update record, and each item
// tracks the last update its counterparty signed off on.
package review

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-review/internal/di"
	"github.com/goliatone/go-review/internal/domain"
	enginereview "github.com/goliatone/go-review/internal/review"
	"github.com/goliatone/go-review/internal/workflow"
	"github.com/goliatone/go-review/pkg/interfaces"
)

// Service exports the review service contract for consumers of the package.
type Service = enginereview.Service

// Item exports the reviewable item record.
type Item = enginereview.Item

// Update exports the immutable update record.
type Update = enginereview.Update

// ItemFilter exports item listing filters.
type ItemFilter = enginereview.ItemFilter

// CreateItemInput exports the item creation request.
type CreateItemInput = enginereview.CreateItemInput

// ApplyUpdateInput exports the single-item update request.
type ApplyUpdateInput = enginereview.ApplyUpdateInput

// ApplyBulkUpdateInput exports the bulk update request.
type ApplyBulkUpdateInput = enginereview.ApplyBulkUpdateInput

// Store exports the persistence contract so hosts can supply their own.
type Store = enginereview.Store

// Actor identifies the acting party on a change.
type Actor = domain.Actor

// Kind identifies a reviewable entity family.
type Kind = domain.Kind

// Status is a lifecycle state of a reviewable item.
type Status = domain.Status

// Role categorises the acting party for permission lookups.
type Role = domain.Role

// Snapshot is the partial field snapshot carried by update records.
type Snapshot = domain.Snapshot

// Exported kind constants.
const (
	KindDocument = domain.KindDocument
	KindDrawing  = domain.KindDrawing
	KindTask     = domain.KindTask
	KindIssue    = domain.KindIssue
)

// Exported role constants.
const (
	RoleSubcontractor = domain.RoleSubcontractor
	RoleConsultant    = domain.RoleConsultant
	RoleManager       = domain.RoleManager
	RoleAdmin         = domain.RoleAdmin
	RoleCompanyAdmin  = domain.RoleCompanyAdmin
	RoleClient        = domain.RoleClient
)

// Exported status constants.
const (
	StatusInProgress         = domain.StatusInProgress
	StatusContested          = domain.StatusContested
	StatusRequestingApproval = domain.StatusRequestingApproval
	StatusApprovalRejected   = domain.StatusApprovalRejected
	StatusAccepted           = domain.StatusAccepted
	StatusRemoved            = domain.StatusRemoved
	StatusUnderInspection    = domain.StatusUnderInspection
	StatusInspectionRejected = domain.StatusInspectionRejected
	StatusDeclined           = domain.StatusDeclined
	StatusClosed             = domain.StatusClosed
	StatusUnderReview        = domain.StatusUnderReview
)

// Sentinel errors surfaced by the service, re-exported for errors.Is checks.
var (
	ErrInvalidTransition = enginereview.ErrInvalidTransition
	ErrBulkChangeInvalid = enginereview.ErrBulkChangeInvalid
	ErrMalformedPayload  = enginereview.ErrMalformedPayload
	ErrStaleStatus       = enginereview.ErrStaleStatus
	ErrKindMismatch      = enginereview.ErrKindMismatch
	ErrStatusInvalid     = enginereview.ErrStatusInvalid
)

// NotFoundError exports the missing-record error for errors.As checks.
type NotFoundError = enginereview.NotFoundError

// InvalidTransitionError exports the disallowed-transition error.
type InvalidTransitionError = enginereview.InvalidTransitionError

// StaleStatusError exports the optimistic-concurrency precondition error.
type StaleStatusError = enginereview.StaleStatusError

// StatusChangeFact exports the committed-transition fact handed to notifiers.
type StatusChangeFact = interfaces.StatusChangeFact

// Notifier exports the post-commit notification contract.
type Notifier = interfaces.ReviewNotifier

// NotifierFunc adapts a function to the Notifier contract.
type NotifierFunc = interfaces.ReviewNotifierFunc

// Logger exports the logging contract used throughout the module.
type Logger = interfaces.Logger

// LoggerProvider exports the named logger factory contract.
type LoggerProvider = interfaces.LoggerProvider

// Module is the top level review runtime façade.
type Module struct {
	container *di.Container
}

// Option re-exports the container option type for advanced wiring.
type Option = di.Option

// WithStore overrides the persistence layer.
var WithStore = di.WithStore

// WithBunDB supplies an existing database handle.
var WithBunDB = di.WithBunDB

// WithCache enables cached point reads on the bun store.
var WithCache = di.WithCache

// WithLoggerProvider overrides the logger provider built from configuration.
var WithLoggerProvider = di.WithLoggerProvider

// WithNotifier installs the post-commit status-change notifier.
var WithNotifier = di.WithNotifier

// New constructs a review module using the provided configuration and
// optional wiring overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying wiring for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Service returns the configured review service.
func (m *Module) Service() Service {
	return m.container.Service()
}

// Store returns the persistence layer in effect.
func (m *Module) Store() Store {
	return m.container.Store()
}

// Close releases resources the module opened itself.
func (m *Module) Close() error {
	return m.container.Close()
}

// CreateItem registers a new reviewable item.
func (m *Module) CreateItem(ctx context.Context, input CreateItemInput) (*Item, error) {
	return m.container.Service().CreateItem(ctx, input)
}

// ApplyUpdate applies one update to one item.
func (m *Module) ApplyUpdate(ctx context.Context, input ApplyUpdateInput) (*Update, error) {
	return m.container.Service().ApplyUpdate(ctx, input)
}

// ApplyBulkUpdate moves a set of same-kind items through one transition atomically.
func (m *Module) ApplyBulkUpdate(ctx context.Context, input ApplyBulkUpdateInput) ([]*Update, error) {
	return m.container.Service().ApplyBulkUpdate(ctx, input)
}

// GetItem fetches one item by id.
func (m *Module) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return m.container.Service().GetItem(ctx, id)
}

// History returns an item's updates newest first.
func (m *Module) History(ctx context.Context, itemID uuid.UUID) ([]*Update, error) {
	return m.container.Service().History(ctx, itemID)
}

// Checkpoint returns the last ratifying update for an item, or nil when
// nothing has been ratified yet.
func (m *Module) Checkpoint(ctx context.Context, itemID uuid.UUID) (*Update, error) {
	return m.container.Service().Checkpoint(ctx, itemID)
}

// DefaultTables returns a copy of the built-in per-kind transition tables.
func DefaultTables() map[Kind]workflow.Tables {
	return workflow.DefaultTables()
}
