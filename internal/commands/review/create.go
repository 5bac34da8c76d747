package reviewcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-review/internal/commands"
	"github.com/goliatone/go-review/internal/domain"
	"github.com/goliatone/go-review/internal/review"
	"github.com/goliatone/go-review/pkg/interfaces"
)

const createItemMessageType = "review.item.create"

// CreateItemCommand registers a new reviewable item together with its
// creating update.
type CreateItemCommand struct {
	ProjectID     uuid.UUID      `json:"project_id"`
	Kind          string         `json:"kind"`
	RefKey        string         `json:"ref_key,omitempty"`
	Title         string         `json:"title"`
	Status        string         `json:"status,omitempty"`
	LinkedIssueID *uuid.UUID     `json:"linked_issue_id,omitempty"`
	ActorID       uuid.UUID      `json:"actor_id"`
	Role          string         `json:"role"`
	Company       string         `json:"company,omitempty"`
	Superuser     bool           `json:"superuser,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	Comment       *string        `json:"comment,omitempty"`
	Attachments   []string       `json:"attachments,omitempty"`
}

// Type implements command.Message.
func (CreateItemCommand) Type() string { return createItemMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m CreateItemCommand) Validate() error {
	errs := validation.Errors{}
	if m.ProjectID == uuid.Nil {
		errs["project_id"] = validation.NewError("review.item.create.project_id_required", "project_id is required")
	}
	if !domain.NormalizeKind(m.Kind).Valid() {
		errs["kind"] = validation.NewError("review.item.create.kind_invalid", "kind is not recognised")
	}
	if m.Title == "" {
		errs["title"] = validation.NewError("review.item.create.title_required", "title is required")
	}
	if m.ActorID == uuid.Nil {
		errs["actor_id"] = validation.NewError("review.item.create.actor_id_required", "actor_id is required")
	}
	if !domain.NormalizeRole(m.Role).Valid() {
		errs["role"] = validation.NewError("review.item.create.role_invalid", "role is not recognised")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CreateItemHandler registers items via the review service.
type CreateItemHandler struct {
	inner *commands.Handler[CreateItemCommand]
}

// NewCreateItemHandler constructs a handler wired to the provided review service.
func NewCreateItemHandler(service review.Service, logger interfaces.Logger, opts ...commands.HandlerOption[CreateItemCommand]) *CreateItemHandler {
	exec := func(ctx context.Context, msg CreateItemCommand) error {
		_, err := service.CreateItem(ctx, review.CreateItemInput{
			ProjectID:     msg.ProjectID,
			Kind:          domain.NormalizeKind(msg.Kind),
			RefKey:        msg.RefKey,
			Title:         msg.Title,
			Status:        domain.NormalizeStatus(msg.Status),
			LinkedIssueID: msg.LinkedIssueID,
			Actor: domain.Actor{
				ID:        msg.ActorID,
				Role:      domain.NormalizeRole(msg.Role),
				Company:   msg.Company,
				Superuser: msg.Superuser,
			},
			Data:        domain.Snapshot(msg.Data),
			Comment:     msg.Comment,
			Attachments: msg.Attachments,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[CreateItemCommand]{
		commands.WithLogger[CreateItemCommand](logger),
		commands.WithOperation[CreateItemCommand]("review.create_item"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CreateItemHandler{
		inner: commands.NewHandler[CreateItemCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CreateItemCommand].Execute.
func (h *CreateItemHandler) Execute(ctx context.Context, msg CreateItemCommand) error {
	return h.inner.Execute(ctx, msg)
}
