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

const (
	applyUpdateMessageType     = "review.item.apply_update"
	applyBulkUpdateMessageType = "review.item.apply_bulk_update"
)

// ApplyUpdateCommand applies one update to one item on behalf of an actor.
type ApplyUpdateCommand struct {
	ItemID      uuid.UUID      `json:"item_id"`
	ActorID     uuid.UUID      `json:"actor_id"`
	Role        string         `json:"role"`
	Company     string         `json:"company,omitempty"`
	Superuser   bool           `json:"superuser,omitempty"`
	OldData     map[string]any `json:"old_data,omitempty"`
	NewData     map[string]any `json:"new_data,omitempty"`
	Comment     *string        `json:"comment,omitempty"`
	IsComment   bool           `json:"is_comment,omitempty"`
	Attachments []string       `json:"attachments,omitempty"`
}

// Type implements command.Message.
func (ApplyUpdateCommand) Type() string { return applyUpdateMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m ApplyUpdateCommand) Validate() error {
	errs := validation.Errors{}
	if m.ItemID == uuid.Nil {
		errs["item_id"] = validation.NewError("review.item.apply_update.item_id_required", "item_id is required")
	}
	if m.ActorID == uuid.Nil {
		errs["actor_id"] = validation.NewError("review.item.apply_update.actor_id_required", "actor_id is required")
	}
	if !domain.NormalizeRole(m.Role).Valid() {
		errs["role"] = validation.NewError("review.item.apply_update.role_invalid", "role is not recognised")
	}
	if len(m.NewData) == 0 && !m.IsComment {
		errs["new_data"] = validation.NewError("review.item.apply_update.new_data_required", "new_data is required for non-comment updates")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ApplyUpdateHandler applies updates via the review service using the shared
// command handler foundation.
type ApplyUpdateHandler struct {
	inner *commands.Handler[ApplyUpdateCommand]
}

// NewApplyUpdateHandler constructs a handler wired to the provided review service.
func NewApplyUpdateHandler(service review.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ApplyUpdateCommand]) *ApplyUpdateHandler {
	exec := func(ctx context.Context, msg ApplyUpdateCommand) error {
		_, err := service.ApplyUpdate(ctx, review.ApplyUpdateInput{
			ItemID: msg.ItemID,
			Actor: domain.Actor{
				ID:        msg.ActorID,
				Role:      domain.NormalizeRole(msg.Role),
				Company:   msg.Company,
				Superuser: msg.Superuser,
			},
			OldData:     domain.Snapshot(msg.OldData),
			NewData:     domain.Snapshot(msg.NewData),
			Comment:     msg.Comment,
			IsComment:   msg.IsComment,
			Attachments: msg.Attachments,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[ApplyUpdateCommand]{
		commands.WithLogger[ApplyUpdateCommand](logger),
		commands.WithOperation[ApplyUpdateCommand]("review.apply_update"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ApplyUpdateHandler{
		inner: commands.NewHandler[ApplyUpdateCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ApplyUpdateCommand].Execute.
func (h *ApplyUpdateHandler) Execute(ctx context.Context, msg ApplyUpdateCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ApplyBulkUpdateCommand moves a batch of same-kind items through one
// transition atomically.
type ApplyBulkUpdateCommand struct {
	ItemIDs   []uuid.UUID `json:"item_ids"`
	Kind      string      `json:"kind"`
	ActorID   uuid.UUID   `json:"actor_id"`
	Role      string      `json:"role"`
	Company   string      `json:"company,omitempty"`
	Superuser bool        `json:"superuser,omitempty"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	Comment   *string     `json:"comment,omitempty"`
}

// Type implements command.Message.
func (ApplyBulkUpdateCommand) Type() string { return applyBulkUpdateMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m ApplyBulkUpdateCommand) Validate() error {
	errs := validation.Errors{}
	if len(m.ItemIDs) == 0 {
		errs["item_ids"] = validation.NewError("review.item.apply_bulk_update.item_ids_required", "item_ids is required")
	}
	if !domain.NormalizeKind(m.Kind).Valid() {
		errs["kind"] = validation.NewError("review.item.apply_bulk_update.kind_invalid", "kind is not recognised")
	}
	if m.ActorID == uuid.Nil {
		errs["actor_id"] = validation.NewError("review.item.apply_bulk_update.actor_id_required", "actor_id is required")
	}
	if !domain.NormalizeRole(m.Role).Valid() {
		errs["role"] = validation.NewError("review.item.apply_bulk_update.role_invalid", "role is not recognised")
	}
	if m.From == "" {
		errs["from"] = validation.NewError("review.item.apply_bulk_update.from_required", "from status is required")
	}
	if m.To == "" {
		errs["to"] = validation.NewError("review.item.apply_bulk_update.to_required", "to status is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ApplyBulkUpdateHandler applies bulk updates via the review service.
type ApplyBulkUpdateHandler struct {
	inner *commands.Handler[ApplyBulkUpdateCommand]
}

// NewApplyBulkUpdateHandler constructs a handler wired to the provided review service.
func NewApplyBulkUpdateHandler(service review.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ApplyBulkUpdateCommand]) *ApplyBulkUpdateHandler {
	exec := func(ctx context.Context, msg ApplyBulkUpdateCommand) error {
		_, err := service.ApplyBulkUpdate(ctx, review.ApplyBulkUpdateInput{
			ItemIDs: msg.ItemIDs,
			Kind:    domain.NormalizeKind(msg.Kind),
			Actor: domain.Actor{
				ID:        msg.ActorID,
				Role:      domain.NormalizeRole(msg.Role),
				Company:   msg.Company,
				Superuser: msg.Superuser,
			},
			From:    domain.NormalizeStatus(msg.From),
			To:      domain.NormalizeStatus(msg.To),
			Comment: msg.Comment,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[ApplyBulkUpdateCommand]{
		commands.WithLogger[ApplyBulkUpdateCommand](logger),
		commands.WithOperation[ApplyBulkUpdateCommand]("review.apply_bulk_update"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ApplyBulkUpdateHandler{
		inner: commands.NewHandler[ApplyBulkUpdateCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ApplyBulkUpdateCommand].Execute.
func (h *ApplyBulkUpdateHandler) Execute(ctx context.Context, msg ApplyBulkUpdateCommand) error {
	return h.inner.Execute(ctx, msg)
}
