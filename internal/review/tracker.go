package review

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-review/internal/logging"
	"github.com/goliatone/go-review/internal/workflow"
	"github.com/goliatone/go-review/pkg/interfaces"
)

// Tracker maintains each item's pointer to its last ratifying update. The
// pointer answers "what state did the counterparty last sign off on" without
// replaying the full history on every read.
type Tracker struct {
	store  Store
	flows  FlowFactory
	clock  func() time.Time
	logger interfaces.Logger
}

// TrackerOption configures tracker construction.
type TrackerOption func(*Tracker)

// WithTrackerClock overrides the time source.
func WithTrackerClock(clock func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithTrackerLogger sets the tracker logger.
func WithTrackerLogger(logger interfaces.Logger) TrackerOption {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker builds a tracker over the supplied store and flow factory.
func NewTracker(store Store, flows FlowFactory, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:  store,
		flows:  flows,
		clock:  time.Now,
		logger: logging.TrackerLogger(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Recompute adjusts the item's checkpoint pointer after the supplied update
// has been persisted, then saves the item. The pointer moves in three cases:
//
//  1. the update is a ratifying change: pointer moves to the update;
//  2. the update is a pure re-statement of the current status and the change
//     that produced that status was itself ratifying: pointer moves to the
//     update (a confirmation edit);
//  3. the update reverses an earlier step: the pointer rewinds to the most
//     recent update before the current anchor that also landed on the
//     anchor's status.
//
// Anything else leaves the pointer where it is; the pointer is never cleared
// and a missing anchor or candidate never fails the enclosing request. The
// item's updated_at is refreshed only when the pointer actually moves.
func (t *Tracker) Recompute(ctx context.Context, item *Item, update *Update) (*Item, error) {
	flow, err := t.flows(item, update)
	if err != nil {
		return nil, err
	}

	confirmed := flow.IsConfirmedUpdate()
	if !confirmed && !update.ChangedStatus() {
		confirmed, err = t.isConfirmationEdit(ctx, item, update)
		if err != nil {
			return nil, err
		}
	}

	moved := false
	switch {
	case confirmed:
		t.logger.Debug("checkpoint advanced", "item", item.ID, "update", update.ID)
		item.LastConfirmedUpdateID = &update.ID
		moved = true
	case flow.IsUndo() && item.LastConfirmedUpdateID != nil:
		moved, err = t.reanchor(ctx, item, update, flow)
		if err != nil {
			return nil, err
		}
	}

	if moved {
		item.UpdatedAt = t.clock()
	}
	return t.store.Items().Update(ctx, item)
}

// reanchor rewinds the pointer after an undo. The anchor is the update the
// pointer currently designates; the new checkpoint is the most recent update
// strictly before the anchor whose transition ratifies the anchor's landing
// status, or re-states it as a self-loop. No candidate means no change.
func (t *Tracker) reanchor(ctx context.Context, item *Item, update *Update, flow workflow.Flow) (bool, error) {
	anchor, err := t.store.Updates().GetByID(ctx, *item.LastConfirmedUpdateID)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}

	// A pointer sitting on a same-status echo stands in for the change that
	// produced it; rewind from that change instead.
	if !anchor.ChangedStatus() {
		anchor, err = t.store.Updates().LastStatusChange(ctx, item.ID, anchor.CreatedAt, anchor.ID)
		if err != nil {
			return false, err
		}
		if anchor == nil {
			return false, nil
		}
	}
	target, ok := anchor.TargetStatus()
	if !ok {
		return false, nil
	}

	pack := flow.ConfirmedTransitions().FilterTo(target)
	pack = pack.Union(workflow.NewPack(workflow.NewTransition(target, target)))

	prior, err := t.store.Updates().LastMatching(ctx, item.ID, pack, anchor.CreatedAt, anchor.ID)
	if err != nil {
		return false, err
	}
	if prior == nil || prior.ID == *item.LastConfirmedUpdateID {
		return false, nil
	}
	t.logger.Debug("checkpoint re-anchored", "item", item.ID, "update", update.ID, "anchor", prior.ID)
	item.LastConfirmedUpdateID = &prior.ID
	return true, nil
}

// isConfirmationEdit reports whether the update is a pure re-statement of the
// item's current status and the change that produced that status was itself
// a ratifying one. Ratification rides on the restated change, not on who
// restates it.
func (t *Tracker) isConfirmationEdit(ctx context.Context, item *Item, update *Update) (bool, error) {
	if !update.NewData.OnlyStatus() {
		return false, nil
	}
	status, ok := update.NewData.Status()
	if !ok || status != item.Status {
		return false, nil
	}
	if old, ok := update.OldData.Status(); ok && old != status {
		return false, nil
	}

	prior, err := t.store.Updates().LastStatusChange(ctx, item.ID, update.CreatedAt, update.ID)
	if err != nil {
		return false, err
	}
	if prior == nil {
		return false, nil
	}

	flow, err := t.flows(item, prior)
	if err != nil {
		return false, err
	}
	return flow.IsConfirmedUpdate(), nil
}

// Checkpoint returns the update the item's pointer designates, or nil when
// nothing has been ratified.
func (t *Tracker) Checkpoint(ctx context.Context, item *Item) (*Update, error) {
	if item.LastConfirmedUpdateID == nil {
		return nil, nil
	}
	return t.store.Updates().GetByID(ctx, *item.LastConfirmedUpdateID)
}
