package workflow

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-review/internal/domain"
)

var (
	// ErrUnknownKind indicates no table configuration exists for the entity kind.
	ErrUnknownKind = errors.New("workflow: entity kind not registered")
)

// Change carries the partial snapshots of a proposed update. Old is empty for
// the creating update; New carries only the fields the update changes.
type Change struct {
	Old domain.Snapshot
	New domain.Snapshot
}

// Transition derives the status transition the change represents. When New
// omits the status field the change is a pure edit and the transition
// degenerates to a self-loop on the current status.
func (c Change) Transition() Transition {
	var from, to *domain.Status
	if status, ok := c.Old.Status(); ok {
		from = statusPtr(status)
	}
	if status, ok := c.New.Status(); ok {
		to = statusPtr(status)
	} else {
		to = from
	}
	return Transition{From: from, To: to}
}

// Flow validates a proposed change against one entity kind's tables. One
// variant exists per kind; all variants share the contract below.
type Flow interface {
	// Kind identifies the entity kind the flow validates for.
	Kind() domain.Kind
	// Transition returns the status transition extracted from the change.
	Transition() Transition
	// IsValidChange reports whether the single-item update is permitted.
	IsValidChange() bool
	// IsValidBulkUpdate reports whether the bulk update is permitted. Unlike
	// IsValidChange, same-status changes are rejected outright.
	IsValidBulkUpdate() bool
	// IsConfirmedUpdate reports whether the change ratifies the item's state.
	IsConfirmedUpdate() bool
	// IsUndo reports whether the change reverses a transition the acting role
	// could have applied.
	IsUndo() bool
	// ConfirmedTransitions returns the role-independent union of every
	// ratifying transition for the entity kind.
	ConfirmedTransitions() Pack
}

// FlowOption configures flow construction.
type FlowOption func(*flowConfig)

// WithStandaloneTask selects the widened task tables used when the task has
// no linked issue.
func WithStandaloneTask(standalone bool) FlowOption {
	return func(cfg *flowConfig) {
		cfg.standalone = standalone
	}
}

// WithTables overrides the static tables, typically with configuration
// compiled through CompileTableConfigs.
func WithTables(tables map[domain.Kind]Tables) FlowOption {
	return func(cfg *flowConfig) {
		if tables != nil {
			cfg.tables = tables
		}
	}
}

type flowConfig struct {
	standalone bool
	tables     map[domain.Kind]Tables
}

// NewFlow constructs the flow variant for the supplied kind. The caller names
// the kind explicitly; the engine never inspects payload shape to guess it.
func NewFlow(kind domain.Kind, change Change, actor domain.Actor, opts ...FlowOption) (Flow, error) {
	cfg := flowConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	tables, ok := resolveTables(kind, cfg)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	base := baseFlow{
		kind:       kind,
		tables:     tables,
		actor:      actor,
		change:     change,
		transition: change.Transition(),
	}

	switch kind {
	case domain.KindDocument:
		return &documentFlow{baseFlow: base}, nil
	case domain.KindDrawing:
		return &drawingFlow{baseFlow: base}, nil
	case domain.KindTask:
		return &taskFlow{baseFlow: base}, nil
	case domain.KindIssue:
		return &issueFlow{baseFlow: base}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

func resolveTables(kind domain.Kind, cfg flowConfig) (Tables, bool) {
	if cfg.tables != nil {
		if kind == domain.KindTask && cfg.standalone {
			// Overridden tables carry no standalone variant; widen on the fly
			// without touching the supplied configuration.
			tables, ok := cfg.tables[kind]
			if !ok {
				return Tables{}, false
			}
			return widenTaskTables(tables), true
		}
		tables, ok := cfg.tables[kind]
		return tables, ok
	}
	return TablesFor(kind, cfg.standalone)
}

func widenTaskTables(tables Tables) Tables {
	widened := Tables{
		Allowed:   make(map[domain.Role]Pack, len(tables.Allowed)),
		Confirmed: tables.Confirmed,
		Bulk:      tables.Bulk,
	}
	for role, pack := range tables.Allowed {
		if role.IsStaff() {
			widened.Allowed[role] = pack.Union(removeStandalonePack())
			continue
		}
		widened.Allowed[role] = pack
	}
	return widened
}

// baseFlow implements the contract shared by every kind variant.
type baseFlow struct {
	kind       domain.Kind
	tables     Tables
	actor      domain.Actor
	change     Change
	transition Transition
}

func (f *baseFlow) Kind() domain.Kind      { return f.kind }
func (f *baseFlow) Transition() Transition { return f.transition }

func (f *baseFlow) IsValidChange() bool {
	if f.actor.Superuser {
		return true
	}
	if f.transition.IsNoop() {
		return true
	}
	return f.tables.AllowedFor(f.actor.Role).Contains(f.transition)
}

func (f *baseFlow) IsValidBulkUpdate() bool {
	if f.transition.IsNoop() {
		return false
	}
	return f.tables.BulkFor(f.actor.Role).Contains(f.transition)
}

// isConfirmedUpdate carries the per-kind strictness flag: when strict, the
// update's new snapshot must carry no field besides status.
func (f *baseFlow) isConfirmedUpdate(strict bool) bool {
	if !f.change.New.HasStatus() {
		return false
	}
	if strict && !f.change.New.OnlyStatus() {
		return false
	}
	return f.tables.ConfirmedFor(f.actor.Role).Contains(f.transition)
}

func (f *baseFlow) IsUndo() bool {
	return f.tables.AllowedFor(f.actor.Role).Undo().Contains(f.transition)
}

func (f *baseFlow) ConfirmedTransitions() Pack {
	return f.tables.ConfirmedUnion()
}

type documentFlow struct {
	baseFlow
}

func (f *documentFlow) IsConfirmedUpdate() bool {
	return f.isConfirmedUpdate(true)
}

type drawingFlow struct {
	baseFlow
}

func (f *drawingFlow) IsConfirmedUpdate() bool {
	return f.isConfirmedUpdate(false)
}

type taskFlow struct {
	baseFlow
}

func (f *taskFlow) IsConfirmedUpdate() bool {
	return f.isConfirmedUpdate(true)
}

type issueFlow struct {
	baseFlow
}

// IsValidChange restricts issue creation to client/consultant actors landing
// directly on under_review; everything else follows the shared rules.
func (f *issueFlow) IsValidChange() bool {
	if f.transition.IsCreation() {
		if f.actor.Superuser {
			return true
		}
		if f.actor.Role != domain.RoleClient && f.actor.Role != domain.RoleConsultant {
			return false
		}
		return *f.transition.To == domain.StatusUnderReview
	}
	return f.baseFlow.IsValidChange()
}

func (f *issueFlow) IsConfirmedUpdate() bool {
	return f.isConfirmedUpdate(false)
}
