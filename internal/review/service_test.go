package review

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-review/internal/domain"
	"github.com/goliatone/go-review/pkg/interfaces"
)

func TestApplyUpdateDistinguishesMalformedFromDisallowed(t *testing.T) {
	svc, _ := newTestService(t)
	item := createDocument(t, svc, subcontractor())

	// Empty non-comment payload is malformed, not an invalid transition.
	_, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID: item.ID,
		Actor:  manager(),
	})
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("empty payload: got %v, want malformed", err)
	}

	// A status change that omits the prior status is malformed too.
	_, err = svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   manager(),
		NewData: domain.Snapshot{"status": "contested"},
	})
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("missing prior status: got %v, want malformed", err)
	}

	// A well-formed but impermissible transition is rejected differently.
	_, err = svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   subcontractor(),
		OldData: domain.Snapshot{"status": "in_progress"},
		NewData: domain.Snapshot{"status": "contested"},
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("disallowed transition: got %v, want invalid transition", err)
	}
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %T", err)
	}
	if invalid.Error() != "invalid transition from in_progress to contested" {
		t.Fatalf("unexpected message %q", invalid.Error())
	}
}

func TestApplyUpdateRejectsNonStringStatus(t *testing.T) {
	svc, _ := newTestService(t)
	item := createDocument(t, svc, subcontractor())

	_, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   manager(),
		OldData: domain.Snapshot{"status": "in_progress"},
		NewData: domain.Snapshot{"status": 7},
	})
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("got %v, want malformed payload", err)
	}
}

func TestApplyUpdateStaleStatus(t *testing.T) {
	svc, _ := newTestService(t)
	item := createDocument(t, svc, subcontractor())

	_, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   manager(),
		OldData: domain.Snapshot{"status": "contested"},
		NewData: domain.Snapshot{"status": "requesting_approval"},
	})
	if !errors.Is(err, ErrStaleStatus) {
		t.Fatalf("got %v, want stale status", err)
	}

	var stale *StaleStatusError
	if !errors.As(err, &stale) {
		t.Fatalf("expected StaleStatusError, got %T", err)
	}
	if stale.Actual != domain.StatusInProgress {
		t.Fatalf("actual = %s, want in_progress", stale.Actual)
	}
}

func TestLaxStatusCheckFillsPriorStatus(t *testing.T) {
	svc, _ := newTestService(t, WithStrictStatusCheck(false))
	item := createDocument(t, svc, subcontractor())

	update, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   manager(),
		NewData: domain.Snapshot{"status": "contested"},
	})
	if err != nil {
		t.Fatalf("lax apply: %v", err)
	}
	if got, ok := update.OldData.Status(); !ok || got != domain.StatusInProgress {
		t.Fatalf("old data status = %v (%v), want in_progress", got, ok)
	}
}

func TestApplyUpdateCommentOnly(t *testing.T) {
	svc, _ := newTestService(t)
	item := createDocument(t, svc, subcontractor())
	upload := checkpointID(t, svc, item.ID)

	note := "please re-check the anchor bolts"
	update, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:    item.ID,
		Actor:     client(),
		Comment:   &note,
		IsComment: true,
	})
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if update.ChangedStatus() {
		t.Fatal("comments never change status")
	}
	if got := checkpointID(t, svc, item.ID); got != upload {
		t.Fatal("comments must not move the checkpoint")
	}
}

func TestApplyUpdateUnknownItem(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  uuid.New(),
		Actor:   manager(),
		NewData: domain.Snapshot{"title": "x"},
	})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestCreateItemValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateItem(context.Background(), CreateItemInput{
		ProjectID: uuid.New(),
		Kind:      "meeting",
		Title:     "x",
		Actor:     manager(),
	})
	if !errors.Is(err, ErrKindInvalid) {
		t.Fatalf("got %v, want invalid kind", err)
	}

	_, err = svc.CreateItem(context.Background(), CreateItemInput{
		ProjectID: uuid.New(),
		Kind:      domain.KindDocument,
		Title:     "x",
		Status:    domain.StatusUnderReview,
		Actor:     subcontractor(),
	})
	if !errors.Is(err, ErrStatusInvalid) {
		t.Fatalf("got %v, want invalid status", err)
	}

	// Issues may only be opened by the reviewing parties.
	_, err = svc.CreateItem(context.Background(), CreateItemInput{
		ProjectID: uuid.New(),
		Kind:      domain.KindIssue,
		Title:     "water ingress",
		Actor:     manager(),
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("got %v, want invalid transition", err)
	}

	issue, err := svc.CreateItem(context.Background(), CreateItemInput{
		ProjectID: uuid.New(),
		Kind:      domain.KindIssue,
		Title:     "water ingress",
		Actor:     client(),
	})
	if err != nil {
		t.Fatalf("client issue: %v", err)
	}
	if issue.Status != domain.StatusUnderReview {
		t.Fatalf("issue status = %s, want under_review", issue.Status)
	}
}

func TestBulkUpdateMovesEveryTarget(t *testing.T) {
	svc, _ := newTestService(t)
	first := createDocument(t, svc, subcontractor())
	second := createDocument(t, svc, subcontractor())

	updates, err := svc.ApplyBulkUpdate(context.Background(), ApplyBulkUpdateInput{
		ItemIDs: []uuid.UUID{first.ID, second.ID},
		Kind:    domain.KindDocument,
		Actor:   manager(),
		From:    domain.StatusInProgress,
		To:      domain.StatusRequestingApproval,
	})
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		item, err := svc.GetItem(context.Background(), id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if item.Status != domain.StatusRequestingApproval {
			t.Fatalf("item %s status = %s", id, item.Status)
		}
	}
}

func TestBulkUpdateRejectsOutsideTable(t *testing.T) {
	svc, _ := newTestService(t)
	item := createDocument(t, svc, subcontractor())

	// Removal of accepted documents is reserved for the company admin.
	applyStatus(t, svc, item.ID, manager(), domain.StatusInProgress, domain.StatusRequestingApproval)
	applyStatus(t, svc, item.ID, client(), domain.StatusRequestingApproval, domain.StatusAccepted)

	_, err := svc.ApplyBulkUpdate(context.Background(), ApplyBulkUpdateInput{
		ItemIDs: []uuid.UUID{item.ID},
		Kind:    domain.KindDocument,
		Actor:   manager(),
		From:    domain.StatusAccepted,
		To:      domain.StatusRemoved,
	})
	if !errors.Is(err, ErrBulkChangeInvalid) {
		t.Fatalf("got %v, want bulk change invalid", err)
	}
	if err.Error() != "not a valid status change" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestBulkUpdateIsAllOrNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ready := createDocument(t, svc, subcontractor())
	blocked := createDocument(t, svc, subcontractor())
	applyStatus(t, svc, blocked.ID, manager(), domain.StatusInProgress, domain.StatusContested)

	_, err := svc.ApplyBulkUpdate(context.Background(), ApplyBulkUpdateInput{
		ItemIDs: []uuid.UUID{ready.ID, blocked.ID},
		Kind:    domain.KindDocument,
		Actor:   manager(),
		From:    domain.StatusInProgress,
		To:      domain.StatusRequestingApproval,
	})
	if !errors.Is(err, ErrStaleStatus) {
		t.Fatalf("got %v, want stale status", err)
	}

	// The ready item must be untouched.
	reloaded, err := svc.GetItem(context.Background(), ready.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Status != domain.StatusInProgress {
		t.Fatalf("status = %s, want in_progress", reloaded.Status)
	}
	history, err := svc.History(context.Background(), ready.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected only the creating update, got %d", len(history))
	}
}

func TestBulkUpdateKindMismatch(t *testing.T) {
	svc, _ := newTestService(t)
	document := createDocument(t, svc, subcontractor())

	_, err := svc.ApplyBulkUpdate(context.Background(), ApplyBulkUpdateInput{
		ItemIDs: []uuid.UUID{document.ID},
		Kind:    domain.KindDrawing,
		Actor:   manager(),
		From:    domain.StatusInProgress,
		To:      domain.StatusRequestingApproval,
	})
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("got %v, want kind mismatch", err)
	}
}

func TestNotifierReceivesCommittedFacts(t *testing.T) {
	var facts []interfaces.StatusChangeFact
	notifier := interfaces.ReviewNotifierFunc(func(_ context.Context, fact interfaces.StatusChangeFact) {
		facts = append(facts, fact)
	})

	svc, _ := newTestService(t, WithNotifier(notifier))
	item := createDocument(t, svc, subcontractor())
	if len(facts) != 1 {
		t.Fatalf("expected creation fact, got %d", len(facts))
	}
	if facts[0].OldStatus != nil {
		t.Fatal("creation fact carries no old status")
	}
	if facts[0].NewStatus != "in_progress" {
		t.Fatalf("new status = %s", facts[0].NewStatus)
	}

	applyStatus(t, svc, item.ID, manager(), domain.StatusInProgress, domain.StatusContested)
	if len(facts) != 2 {
		t.Fatalf("expected change fact, got %d", len(facts))
	}
	if facts[1].OldStatus == nil || *facts[1].OldStatus != "in_progress" {
		t.Fatalf("old status = %v", facts[1].OldStatus)
	}
	if facts[1].NewStatus != "contested" {
		t.Fatalf("new status = %s", facts[1].NewStatus)
	}

	// Rejected updates never notify.
	before := len(facts)
	if _, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   subcontractor(),
		OldData: domain.Snapshot{"status": "contested"},
		NewData: domain.Snapshot{"status": "accepted"},
	}); err == nil {
		t.Fatal("expected rejection")
	}
	if len(facts) != before {
		t.Fatal("rejected update must not notify")
	}
}

func TestListItemsFilters(t *testing.T) {
	svc, _ := newTestService(t)
	projectID := uuid.New()

	doc, err := svc.CreateItem(context.Background(), CreateItemInput{
		ProjectID: projectID,
		Kind:      domain.KindDocument,
		Title:     "doc",
		Actor:     subcontractor(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateItem(context.Background(), CreateItemInput{
		ProjectID: projectID,
		Kind:      domain.KindIssue,
		Title:     "issue",
		Actor:     client(),
	}); err != nil {
		t.Fatalf("create issue: %v", err)
	}

	kind := domain.KindDocument
	items, err := svc.ListItems(context.Background(), ItemFilter{ProjectID: &projectID, Kind: &kind})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != doc.ID {
		t.Fatalf("unexpected listing: %v", items)
	}
}
