package main

import (
	"context"
	"fmt"
	"log"

	review "github.com/goliatone/go-review"
	"github.com/google/uuid"
)

func main() {
	ctx := context.Background()

	cfg := review.Config{}
	cfg.Features.Sync = true

	module, err := review.New(cfg, review.WithNotifier(review.NotifierFunc(
		func(_ context.Context, fact review.StatusChangeFact) {
			old := "(created)"
			if fact.OldStatus != nil {
				old = *fact.OldStatus
			}
			fmt.Printf("notify: %s %s -> %s by %s\n", fact.Kind, old, fact.NewStatus, fact.ActorRole)
		})))
	if err != nil {
		log.Fatalf("initialise review module: %v", err)
	}
	defer module.Close()

	projectID := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	sub := review.Actor{ID: uuid.New(), Role: review.RoleSubcontractor, Company: "Screed & Sons"}
	manager := review.Actor{ID: uuid.New(), Role: review.RoleManager}
	client := review.Actor{ID: uuid.New(), Role: review.RoleClient}

	doc, err := module.CreateItem(ctx, review.CreateItemInput{
		ProjectID: projectID,
		Kind:      review.KindDocument,
		RefKey:    "DOC-0001",
		Title:     "Method statement rev A",
		Actor:     sub,
	})
	if err != nil {
		log.Fatalf("upload document: %v", err)
	}
	fmt.Printf("uploaded %s as %s\n", doc.RefKey, doc.Status)

	apply := func(actor review.Actor, from, to review.Status) {
		_, err := module.ApplyUpdate(ctx, review.ApplyUpdateInput{
			ItemID:  doc.ID,
			Actor:   actor,
			OldData: review.Snapshot{"status": string(from)},
			NewData: review.Snapshot{"status": string(to)},
		})
		if err != nil {
			log.Fatalf("apply %s -> %s: %v", from, to, err)
		}
	}

	apply(manager, review.StatusInProgress, review.StatusContested)
	apply(manager, review.StatusContested, review.StatusInProgress)
	apply(manager, review.StatusInProgress, review.StatusRequestingApproval)
	apply(client, review.StatusRequestingApproval, review.StatusAccepted)

	checkpoint, err := module.Checkpoint(ctx, doc.ID)
	if err != nil {
		log.Fatalf("checkpoint: %v", err)
	}
	if checkpoint != nil {
		fmt.Printf("last ratified update: %s (%s)\n", checkpoint.ID, checkpoint.Role)
	}

	history, err := module.History(ctx, doc.ID)
	if err != nil {
		log.Fatalf("history: %v", err)
	}
	fmt.Printf("document history (%d updates, newest first):\n", len(history))
	for _, update := range history {
		if !update.ChangedStatus() {
			fmt.Printf("  %s edit by %s\n", update.CreatedAt.Format("15:04:05"), update.Role)
			continue
		}
		target, _ := update.TargetStatus()
		fmt.Printf("  %s -> %s by %s\n", update.CreatedAt.Format("15:04:05"), target, update.Role)
	}

	issue, err := module.CreateItem(ctx, review.CreateItemInput{
		ProjectID: projectID,
		Kind:      review.KindIssue,
		Title:     "Damaged fire stopping, level 2 riser",
		Actor:     client,
	})
	if err != nil {
		log.Fatalf("raise issue: %v", err)
	}

	task, err := module.CreateItem(ctx, review.CreateItemInput{
		ProjectID:     projectID,
		Kind:          review.KindTask,
		Title:         "Reinstate fire stopping",
		LinkedIssueID: &issue.ID,
		Actor:         manager,
	})
	if err != nil {
		log.Fatalf("open task: %v", err)
	}

	if _, err := module.ApplyUpdate(ctx, review.ApplyUpdateInput{
		ItemID:  task.ID,
		Actor:   sub,
		OldData: review.Snapshot{"status": string(review.StatusInProgress)},
		NewData: review.Snapshot{"status": string(review.StatusUnderInspection)},
	}); err != nil {
		log.Fatalf("close out task: %v", err)
	}

	linked, err := module.GetItem(ctx, issue.ID)
	if err != nil {
		log.Fatalf("reload issue: %v", err)
	}
	fmt.Printf("task close-out dragged the linked issue to %s\n", linked.Status)
}
