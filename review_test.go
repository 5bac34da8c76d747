package review_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	review "github.com/goliatone/go-review"
	"github.com/goliatone/go-review/pkg/testsupport"
)

func newMemoryModule(t *testing.T, opts ...review.Option) *review.Module {
	t.Helper()
	module, err := review.New(review.Config{}, opts...)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	t.Cleanup(func() { module.Close() })
	return module
}

func TestDocumentLifecycleThroughFacade(t *testing.T) {
	module := newMemoryModule(t)
	ctx := context.Background()

	sub := review.Actor{ID: uuid.New(), Role: review.RoleSubcontractor}
	manager := review.Actor{ID: uuid.New(), Role: review.RoleManager}
	client := review.Actor{ID: uuid.New(), Role: review.RoleClient}

	item, err := module.CreateItem(ctx, review.CreateItemInput{
		ProjectID: uuid.New(),
		Kind:      review.KindDocument,
		Title:     "method statement rev A",
		Actor:     sub,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Status != review.StatusInProgress {
		t.Fatalf("status = %s, want in_progress", item.Status)
	}

	// The upload itself ratifies the starting state.
	checkpoint, err := module.Checkpoint(ctx, item.ID)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if checkpoint == nil {
		t.Fatal("expected upload to set the checkpoint")
	}
	uploadCheckpoint := checkpoint.ID

	if _, err := module.ApplyUpdate(ctx, review.ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   manager,
		OldData: review.Snapshot{"status": string(review.StatusInProgress)},
		NewData: review.Snapshot{"status": string(review.StatusRequestingApproval)},
	}); err != nil {
		t.Fatalf("request approval: %v", err)
	}

	// Requesting approval moves the item but does not ratify anything.
	checkpoint, err = module.Checkpoint(ctx, item.ID)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if checkpoint == nil || checkpoint.ID != uploadCheckpoint {
		t.Fatalf("checkpoint moved on an unratified step: %v", checkpoint)
	}

	accept, err := module.ApplyUpdate(ctx, review.ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   client,
		OldData: review.Snapshot{"status": string(review.StatusRequestingApproval)},
		NewData: review.Snapshot{"status": string(review.StatusAccepted)},
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	reloaded, err := module.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Status != review.StatusAccepted {
		t.Fatalf("status = %s, want accepted", reloaded.Status)
	}

	checkpoint, err = module.Checkpoint(ctx, item.ID)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if checkpoint == nil || checkpoint.ID != accept.ID {
		t.Fatalf("client acceptance should become the checkpoint, got %v", checkpoint)
	}

	history, err := module.History(ctx, item.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	if history[0].ID != accept.ID {
		t.Fatal("history should be newest first")
	}
}

func TestFacadeRejectsDisallowedMoves(t *testing.T) {
	module := newMemoryModule(t)
	ctx := context.Background()

	sub := review.Actor{ID: uuid.New(), Role: review.RoleSubcontractor}
	item, err := module.CreateItem(ctx, review.CreateItemInput{
		ProjectID: uuid.New(),
		Kind:      review.KindDocument,
		Title:     "lift shaft setting out",
		Actor:     sub,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A subcontractor cannot sign off their own submission.
	_, err = module.ApplyUpdate(ctx, review.ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   sub,
		OldData: review.Snapshot{"status": string(review.StatusInProgress)},
		NewData: review.Snapshot{"status": string(review.StatusAccepted)},
	})
	if err == nil {
		t.Fatal("expected the move to be rejected")
	}

	reloaded, err := module.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Status != review.StatusInProgress {
		t.Fatalf("rejected move must not change state, got %s", reloaded.Status)
	}
}

func TestTaskIssueSyncThroughFacade(t *testing.T) {
	module, err := review.New(review.Config{
		Features: review.Features{Sync: true},
	})
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	t.Cleanup(func() { module.Close() })
	ctx := context.Background()

	client := review.Actor{ID: uuid.New(), Role: review.RoleClient}
	manager := review.Actor{ID: uuid.New(), Role: review.RoleManager}
	sub := review.Actor{ID: uuid.New(), Role: review.RoleSubcontractor}

	issue, err := module.CreateItem(ctx, review.CreateItemInput{
		ProjectID: uuid.New(),
		Kind:      review.KindIssue,
		Title:     "damaged fire stopping",
		Actor:     client,
	})
	if err != nil {
		t.Fatalf("create issue: %v", err)
	}
	if issue.Status != review.StatusUnderReview {
		t.Fatalf("issue status = %s, want under_review", issue.Status)
	}

	task, err := module.CreateItem(ctx, review.CreateItemInput{
		ProjectID:     issue.ProjectID,
		Kind:          review.KindTask,
		Title:         "reinstate fire stopping",
		LinkedIssueID: &issue.ID,
		Actor:         manager,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := module.ApplyUpdate(ctx, review.ApplyUpdateInput{
		ItemID:  task.ID,
		Actor:   sub,
		OldData: review.Snapshot{"status": string(review.StatusInProgress)},
		NewData: review.Snapshot{"status": string(review.StatusUnderInspection)},
	}); err != nil {
		t.Fatalf("close out task: %v", err)
	}

	linked, err := module.GetItem(ctx, issue.ID)
	if err != nil {
		t.Fatalf("get issue: %v", err)
	}
	if linked.Status != review.StatusUnderInspection {
		t.Fatalf("issue status = %s, want under_inspection", linked.Status)
	}
}

func TestNotifierReceivesCommittedFacts(t *testing.T) {
	var facts []review.StatusChangeFact
	module := newMemoryModule(t, review.WithNotifier(review.NotifierFunc(
		func(_ context.Context, fact review.StatusChangeFact) {
			facts = append(facts, fact)
		})))
	ctx := context.Background()

	sub := review.Actor{ID: uuid.New(), Role: review.RoleSubcontractor}
	item, err := module.CreateItem(ctx, review.CreateItemInput{
		ProjectID: uuid.New(),
		Kind:      review.KindDrawing,
		Title:     "GA plan level 02",
		Actor:     sub,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(facts) != 1 {
		t.Fatalf("expected one creation fact, got %d", len(facts))
	}
	if facts[0].ItemID != item.ID || facts[0].NewStatus != string(review.StatusInProgress) {
		t.Fatalf("unexpected fact %+v", facts[0])
	}
}

func TestStrictStatusCheckFromConfig(t *testing.T) {
	module, err := review.New(review.Config{
		Review: review.ReviewConfig{StrictStatusCheck: true},
	})
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	t.Cleanup(func() { module.Close() })
	ctx := context.Background()

	sub := review.Actor{ID: uuid.New(), Role: review.RoleSubcontractor}
	manager := review.Actor{ID: uuid.New(), Role: review.RoleManager}
	item, err := module.CreateItem(ctx, review.CreateItemInput{
		ProjectID: uuid.New(),
		Kind:      review.KindDocument,
		Title:     "temporary works design",
		Actor:     sub,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = module.ApplyUpdate(ctx, review.ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   manager,
		OldData: review.Snapshot{"status": string(review.StatusContested)},
		NewData: review.Snapshot{"status": string(review.StatusRequestingApproval)},
	})
	if err == nil {
		t.Fatal("expected stale status rejection")
	}
}

func TestNewRejectsIncompleteStorageConfig(t *testing.T) {
	if _, err := review.New(review.Config{Enabled: true}); err == nil {
		t.Fatal("expected storage validation error")
	}
}

func TestModuleOnSQLite(t *testing.T) {
	db := testsupport.NewBunSQLiteDB(t)
	review.RegisterModels(db)

	ctx := context.Background()
	if err := db.ResetModel(ctx, (*review.Item)(nil), (*review.Update)(nil)); err != nil {
		t.Fatalf("create tables: %v", err)
	}

	module, err := review.New(review.Config{}, review.WithBunDB(db))
	if err != nil {
		t.Fatalf("new module: %v", err)
	}

	sub := review.Actor{ID: uuid.New(), Role: review.RoleSubcontractor}
	// Drawings are signed off by the consultant, not the client.
	consultant := review.Actor{ID: uuid.New(), Role: review.RoleConsultant}

	item, err := module.CreateItem(ctx, review.CreateItemInput{
		ProjectID: uuid.New(),
		Kind:      review.KindDrawing,
		RefKey:    "DRW-0042",
		Title:     "roof penetrations",
		Actor:     sub,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := module.ApplyUpdate(ctx, review.ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   review.Actor{ID: uuid.New(), Role: review.RoleManager},
		OldData: review.Snapshot{"status": string(review.StatusInProgress)},
		NewData: review.Snapshot{"status": string(review.StatusRequestingApproval)},
	}); err != nil {
		t.Fatalf("request approval: %v", err)
	}
	accept, err := module.ApplyUpdate(ctx, review.ApplyUpdateInput{
		ItemID:  item.ID,
		Actor:   consultant,
		OldData: review.Snapshot{"status": string(review.StatusRequestingApproval)},
		NewData: review.Snapshot{"status": string(review.StatusAccepted)},
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	reloaded, err := module.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Status != review.StatusAccepted {
		t.Fatalf("status = %s, want accepted", reloaded.Status)
	}

	history, err := module.History(ctx, item.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}

	checkpoint, err := module.Checkpoint(ctx, item.ID)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if checkpoint == nil || checkpoint.ID != accept.ID {
		t.Fatalf("expected acceptance checkpoint, got %v", checkpoint)
	}

	items, err := module.Service().ListItems(ctx, review.ItemFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("list length = %d, want 1", len(items))
	}

	var notFound *review.NotFoundError
	if _, err := module.GetItem(ctx, uuid.New()); !errors.As(err, &notFound) {
		t.Fatalf("got %v, want not found for unknown id", err)
	}
}
