package review

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-review/internal/domain"
)

func newTestService(t *testing.T, opts ...Option) (Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	merged := append([]Option{WithClock(clock)}, opts...)
	return NewService(store, merged...), store
}

func subcontractor() domain.Actor {
	return domain.Actor{ID: uuid.New(), Role: domain.RoleSubcontractor, Company: "acme-sub"}
}

func manager() domain.Actor {
	return domain.Actor{ID: uuid.New(), Role: domain.RoleManager}
}

func admin() domain.Actor {
	return domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
}

func client() domain.Actor {
	return domain.Actor{ID: uuid.New(), Role: domain.RoleClient}
}

func createDocument(t *testing.T, svc Service, actor domain.Actor) *Item {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), CreateItemInput{
		ProjectID: uuid.New(),
		Kind:      domain.KindDocument,
		Title:     "method statement",
		Actor:     actor,
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	return item
}

func applyStatus(t *testing.T, svc Service, itemID uuid.UUID, actor domain.Actor, from, to domain.Status) *Update {
	t.Helper()
	update, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  itemID,
		Actor:   actor,
		OldData: domain.Snapshot{"status": string(from)},
		NewData: domain.Snapshot{"status": string(to)},
	})
	if err != nil {
		t.Fatalf("apply %s -> %s as %s: %v", from, to, actor.Role, err)
	}
	return update
}

func checkpointID(t *testing.T, svc Service, itemID uuid.UUID) uuid.UUID {
	t.Helper()
	checkpoint, err := svc.Checkpoint(context.Background(), itemID)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if checkpoint == nil {
		return uuid.Nil
	}
	return checkpoint.ID
}

func TestUploadRatifiesImmediately(t *testing.T) {
	svc, _ := newTestService(t)
	item := createDocument(t, svc, subcontractor())

	history, err := svc.History(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 update, got %d", len(history))
	}
	if got := checkpointID(t, svc, item.ID); got != history[0].ID {
		t.Fatalf("checkpoint = %s, want creating update %s", got, history[0].ID)
	}
}

func TestUndoContestKeepsContestCheckpoint(t *testing.T) {
	svc, _ := newTestService(t)
	staff := manager()
	item := createDocument(t, svc, subcontractor())

	contest := applyStatus(t, svc, item.ID, staff, domain.StatusInProgress, domain.StatusContested)
	if got := checkpointID(t, svc, item.ID); got != contest.ID {
		t.Fatalf("contest should ratify, checkpoint = %s", got)
	}

	// No update before the contest ever landed on contested, so the rewind
	// finds nothing and the pointer stays on the contest itself.
	applyStatus(t, svc, item.ID, staff, domain.StatusContested, domain.StatusInProgress)
	if got := checkpointID(t, svc, item.ID); got != contest.ID {
		t.Fatalf("undoing the contest should keep the contest checkpoint %s, got %s", contest.ID, got)
	}
}

func TestUndoRejectKeepsRejectCheckpoint(t *testing.T) {
	svc, _ := newTestService(t)
	signOff := client()
	item := createDocument(t, svc, subcontractor())

	applyStatus(t, svc, item.ID, manager(), domain.StatusInProgress, domain.StatusRequestingApproval)
	reject := applyStatus(t, svc, item.ID, signOff, domain.StatusRequestingApproval, domain.StatusApprovalRejected)
	if got := checkpointID(t, svc, item.ID); got != reject.ID {
		t.Fatalf("reject should ratify, checkpoint = %s", got)
	}

	applyStatus(t, svc, item.ID, signOff, domain.StatusApprovalRejected, domain.StatusRequestingApproval)
	if got := checkpointID(t, svc, item.ID); got == uuid.Nil {
		t.Fatalf("undoing the reject cleared the checkpoint")
	} else if got != reject.ID {
		t.Fatalf("undoing the reject should keep the reject checkpoint %s, got %s", reject.ID, got)
	}
}

func TestUndoReanchorsToEarlierRatification(t *testing.T) {
	svc, _ := newTestService(t)
	staff := manager()
	item := createDocument(t, svc, subcontractor())

	first := applyStatus(t, svc, item.ID, staff, domain.StatusInProgress, domain.StatusContested)
	applyStatus(t, svc, item.ID, staff, domain.StatusContested, domain.StatusInProgress)
	second := applyStatus(t, svc, item.ID, staff, domain.StatusInProgress, domain.StatusContested)
	if got := checkpointID(t, svc, item.ID); got != second.ID {
		t.Fatalf("second contest should ratify, checkpoint = %s", got)
	}

	// Undoing the second contest rewinds to the first one: it landed on the
	// same status before the current anchor did.
	applyStatus(t, svc, item.ID, staff, domain.StatusContested, domain.StatusInProgress)
	if got := checkpointID(t, svc, item.ID); got != first.ID {
		t.Fatalf("undo should re-anchor to the first contest %s, got %s", first.ID, got)
	}
}

func TestUndoFromRestatementAnchorRewindsPastIt(t *testing.T) {
	svc, _ := newTestService(t)
	staff := manager()
	item := createDocument(t, svc, subcontractor())

	first := applyStatus(t, svc, item.ID, staff, domain.StatusInProgress, domain.StatusContested)
	applyStatus(t, svc, item.ID, staff, domain.StatusContested, domain.StatusInProgress)
	second := applyStatus(t, svc, item.ID, staff, domain.StatusInProgress, domain.StatusContested)

	// A confirmation edit parks the pointer on a same-status update.
	restate, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   admin(),
		OldData: domain.Snapshot{"status": "contested"},
		NewData: domain.Snapshot{"status": "contested"},
	})
	if err != nil {
		t.Fatalf("restate: %v", err)
	}
	if got := checkpointID(t, svc, item.ID); got != restate.ID {
		t.Fatalf("restatement should ratify, checkpoint = %s", got)
	}

	// The rewind treats the restatement as standing in for the contest that
	// produced it, so the search runs from the second contest and lands on
	// the first.
	applyStatus(t, svc, item.ID, staff, domain.StatusContested, domain.StatusInProgress)
	if got := checkpointID(t, svc, item.ID); got != first.ID {
		t.Fatalf("undo should rewind past restatement and %s to %s, got %s", second.ID, first.ID, got)
	}
}

func TestForwardMoveOverSymmetricEdgeKeepsCheckpoint(t *testing.T) {
	svc, _ := newTestService(t)
	item := createDocument(t, svc, subcontractor())
	upload := checkpointID(t, svc, item.ID)

	// Requesting approval never ratifies, and although its inverse sits in
	// the staff allowed table it does not reverse the upload.
	applyStatus(t, svc, item.ID, manager(), domain.StatusInProgress, domain.StatusRequestingApproval)
	if got := checkpointID(t, svc, item.ID); got != upload {
		t.Fatalf("checkpoint moved to %s, want upload %s", got, upload)
	}
}

func TestRejectAcceptRejectedCycleCheckpoints(t *testing.T) {
	svc, _ := newTestService(t)
	staff := manager()
	signOff := client()
	item := createDocument(t, svc, subcontractor())

	applyStatus(t, svc, item.ID, staff, domain.StatusInProgress, domain.StatusRequestingApproval)
	reject := applyStatus(t, svc, item.ID, signOff, domain.StatusRequestingApproval, domain.StatusApprovalRejected)
	if got := checkpointID(t, svc, item.ID); got != reject.ID {
		t.Fatalf("reject should ratify, checkpoint = %s", got)
	}

	acceptRejected := applyStatus(t, svc, item.ID, staff, domain.StatusApprovalRejected, domain.StatusContested)
	if got := checkpointID(t, svc, item.ID); got != acceptRejected.ID {
		t.Fatalf("accepting the rejection should ratify, checkpoint = %s", got)
	}

	// Reversing the accept-rejected step searches for an earlier update that
	// landed on contested; none exists, so the pointer holds.
	applyStatus(t, svc, item.ID, staff, domain.StatusContested, domain.StatusApprovalRejected)
	if got := checkpointID(t, svc, item.ID); got != acceptRejected.ID {
		t.Fatalf("undo should keep the accept-rejected checkpoint %s, got %s", acceptRejected.ID, got)
	}
}

func TestConfirmationEditAdvancesCheckpoint(t *testing.T) {
	svc, _ := newTestService(t)
	item := createDocument(t, svc, subcontractor())

	contest := applyStatus(t, svc, item.ID, manager(), domain.StatusInProgress, domain.StatusContested)
	if got := checkpointID(t, svc, item.ID); got != contest.ID {
		t.Fatalf("contest should ratify, checkpoint = %s", got)
	}

	// A second staff member re-states the contested status without changing
	// anything else: the re-statement becomes the new checkpoint.
	restate, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   admin(),
		OldData: domain.Snapshot{"status": "contested"},
		NewData: domain.Snapshot{"status": "contested"},
	})
	if err != nil {
		t.Fatalf("restate: %v", err)
	}
	if got := checkpointID(t, svc, item.ID); got != restate.ID {
		t.Fatalf("confirmation edit should advance checkpoint to %s, got %s", restate.ID, got)
	}
}

func TestPlainEditDoesNotAdvanceCheckpoint(t *testing.T) {
	svc, _ := newTestService(t)
	item := createDocument(t, svc, subcontractor())
	upload := checkpointID(t, svc, item.ID)

	_, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   subcontractor(),
		OldData: domain.Snapshot{"title": "method statement"},
		NewData: domain.Snapshot{"title": "method statement rev B"},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := checkpointID(t, svc, item.ID); got != upload {
		t.Fatalf("plain edit moved the checkpoint to %s", got)
	}
}

func TestRestatementAdoptsPriorChangeRatification(t *testing.T) {
	svc, _ := newTestService(t)
	item := createDocument(t, svc, subcontractor())

	applyStatus(t, svc, item.ID, manager(), domain.StatusInProgress, domain.StatusContested)

	// Whether a re-statement ratifies depends on the change being restated,
	// not on who restates it: the contest ratified, so even the originator's
	// echo of it advances the checkpoint.
	restate, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   subcontractor(),
		OldData: domain.Snapshot{"status": "contested"},
		NewData: domain.Snapshot{"status": "contested"},
	})
	if err != nil {
		t.Fatalf("restate: %v", err)
	}
	if got := checkpointID(t, svc, item.ID); got != restate.ID {
		t.Fatalf("checkpoint = %s, want restatement %s", got, restate.ID)
	}
}

func TestRestatementOfUnratifiedChangeDoesNotAdvance(t *testing.T) {
	svc, _ := newTestService(t)
	item := createDocument(t, svc, subcontractor())
	upload := checkpointID(t, svc, item.ID)

	applyStatus(t, svc, item.ID, manager(), domain.StatusInProgress, domain.StatusRequestingApproval)

	// Requesting approval never ratifies, so echoing it does not either.
	_, err := svc.ApplyUpdate(context.Background(), ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   admin(),
		OldData: domain.Snapshot{"status": "requesting_approval"},
		NewData: domain.Snapshot{"status": "requesting_approval"},
	})
	if err != nil {
		t.Fatalf("restate: %v", err)
	}
	if got := checkpointID(t, svc, item.ID); got != upload {
		t.Fatalf("checkpoint moved to %s, want upload %s", got, upload)
	}
}

func TestCheckpointUpdatesItemTimestamp(t *testing.T) {
	svc, _ := newTestService(t)
	item := createDocument(t, svc, subcontractor())

	before := item.UpdatedAt
	applyStatus(t, svc, item.ID, manager(), domain.StatusInProgress, domain.StatusContested)

	reloaded, err := svc.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if !reloaded.UpdatedAt.After(before) {
		t.Fatalf("updated_at should advance: %s vs %s", reloaded.UpdatedAt, before)
	}
	if reloaded.Status != domain.StatusContested {
		t.Fatalf("status = %s, want contested", reloaded.Status)
	}

	// A move that leaves the pointer alone leaves the timestamp alone too.
	stamped := reloaded.UpdatedAt
	applyStatus(t, svc, item.ID, manager(), domain.StatusContested, domain.StatusInProgress)
	reloaded, err = svc.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if !reloaded.UpdatedAt.Equal(stamped) {
		t.Fatalf("updated_at changed without a checkpoint move: %s vs %s", reloaded.UpdatedAt, stamped)
	}
}
