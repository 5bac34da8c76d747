// Package linksync propagates task status changes onto linked issues. A task
// closed out by a subcontractor, or inspected by staff, keeps the issue it
// was raised against in step without a second manual update.
package linksync

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-review/internal/domain"
	"github.com/goliatone/go-review/internal/identity"
	"github.com/goliatone/go-review/internal/logging"
	"github.com/goliatone/go-review/internal/review"
	"github.com/goliatone/go-review/internal/workflow"
	"github.com/goliatone/go-review/pkg/interfaces"
)

// Synchronizer mirrors task status changes onto the linked issue. It runs
// inside the caller's transaction: a failed mirror rolls the whole apply back.
type Synchronizer struct {
	store   review.Store
	tracker *review.Tracker
	logger  interfaces.Logger
}

// Option configures synchronizer construction.
type Option func(*Synchronizer)

// WithLogger sets the synchronizer logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a synchronizer over the supplied store. The flow factory is
// needed to recompute the mirrored issue's checkpoint.
func New(store review.Store, flows review.FlowFactory, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:   store,
		tracker: review.NewTracker(store, flows),
		logger:  logging.SyncLogger(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var _ review.Synchronizer = (*Synchronizer)(nil)

// Sync mirrors the update onto the linked issue. Status always crosses over
// for a propagating transition; the update's comment and attachments cross
// only for staff verdicts on the full-copy list. Returns the mirrored update,
// or nil when nothing needed syncing.
func (s *Synchronizer) Sync(ctx context.Context, item *review.Item, update *review.Update) (*review.Update, error) {
	if item.Kind != domain.KindTask || item.LinkedIssueID == nil {
		return nil, nil
	}
	if !update.ChangedStatus() {
		return nil, nil
	}
	status, ok := update.NewData.Status()
	if !ok || !propagates(update) {
		return nil, nil
	}

	issue, err := s.store.Items().GetByID(ctx, *item.LinkedIssueID)
	if err != nil {
		return nil, err
	}
	if issue.Status == status {
		return nil, nil
	}

	mirrored := &review.Update{
		ID:        mirrorUpdateID(update),
		ItemID:    issue.ID,
		Role:      update.Role,
		ActorID:   update.ActorID,
		Company:   update.Company,
		Superuser: update.Superuser,
		OldData:   domain.Snapshot{}.WithStatus(issue.Status),
		NewData:   domain.Snapshot{}.WithStatus(status),
		CreatedAt: update.CreatedAt,
	}
	if update.Role.IsStaff() && fullCopyTransitions().Contains(update.Transition()) {
		mirrored.Comment = update.Comment
		mirrored.Attachments = update.Attachments
	}

	if _, err := s.store.Updates().Create(ctx, mirrored); err != nil {
		return nil, err
	}
	issue.Status = status
	issue.UpdatedBy = update.ActorID
	if _, err := s.tracker.Recompute(ctx, issue, mirrored); err != nil {
		return nil, err
	}

	s.logger.Info("issue synced from task", "task", item.ID, "issue", issue.ID, "status", status)
	return mirrored, nil
}

// propagates decides which task transitions reach the linked issue at all.
// Reviewing-side moves always mirror; a subcontractor only drags the issue
// through the delegated close-out cycle.
func propagates(update *review.Update) bool {
	if update.Role == domain.RoleSubcontractor {
		return delegatedTransitions().Contains(update.Transition())
	}
	return true
}

// delegatedTransitions is the close-out cycle a subcontractor drives on a
// delegated task: sending work to inspection, resending it after a failed
// one, and pulling it back.
func delegatedTransitions() workflow.Pack {
	return workflow.NewPack(
		workflow.NewTransition(domain.StatusInProgress, domain.StatusUnderInspection),
		workflow.NewTransition(domain.StatusInspectionRejected, domain.StatusUnderInspection),
		workflow.NewTransition(domain.StatusUnderInspection, domain.StatusInProgress),
	)
}

// fullCopyTransitions lists the inspection verdicts whose commentary and
// evidence carry across to the issue verbatim.
func fullCopyTransitions() workflow.Pack {
	return workflow.NewPack(
		workflow.NewTransition(domain.StatusUnderInspection, domain.StatusClosed),
		workflow.NewTransition(domain.StatusUnderInspection, domain.StatusInspectionRejected),
	)
}

// mirrorUpdateID derives a stable id from the source update so replays do
// not duplicate mirror records.
func mirrorUpdateID(update *review.Update) uuid.UUID {
	return identity.UUID("go-review:mirror:" + update.ID.String())
}
