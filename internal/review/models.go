package review

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-review/internal/domain"
	"github.com/goliatone/go-review/internal/workflow"
)

// Item is a reviewable record with a status lifecycle governed by the
// transition engine. Items are never physically removed by the engine;
// moving to the removed status is itself a tracked transition.
type Item struct {
	bun.BaseModel `bun:"table:review_items,alias:ri"`

	ID                    uuid.UUID     `bun:",pk,type:uuid" json:"id"`
	ProjectID             uuid.UUID     `bun:"project_id,notnull,type:uuid" json:"project_id"`
	Kind                  domain.Kind   `bun:"kind,notnull" json:"kind"`
	RefKey                string        `bun:"ref_key" json:"ref_key,omitempty"`
	Title                 string        `bun:"title,notnull" json:"title"`
	Status                domain.Status `bun:"status,notnull" json:"status"`
	LastConfirmedUpdateID *uuid.UUID    `bun:"last_confirmed_update_id,type:uuid,nullzero" json:"last_confirmed_update_id,omitempty"`
	LinkedIssueID         *uuid.UUID    `bun:"linked_issue_id,type:uuid,nullzero" json:"linked_issue_id,omitempty"`
	CreatedBy             uuid.UUID     `bun:"created_by,notnull,type:uuid" json:"created_by"`
	UpdatedBy             uuid.UUID     `bun:"updated_by,notnull,type:uuid" json:"updated_by"`
	DeletedAt             *time.Time    `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt             time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt             time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Updates             []*Update `bun:"rel:has-many,join:id=item_id" json:"updates,omitempty"`
	LastConfirmedUpdate *Update   `bun:"rel:belongs-to,join:last_confirmed_update_id=id" json:"last_confirmed_update,omitempty"`
}

// Standalone reports whether a task item has no linked issue and therefore
// uses the widened staff table variant.
func (i *Item) Standalone() bool {
	return i.Kind == domain.KindTask && i.LinkedIssueID == nil
}

// Update is an immutable audit record appended to an item's history. The old
// snapshot is empty for the creating update; the new snapshot carries only
// the changed fields and must carry status when the change affects status.
type Update struct {
	bun.BaseModel `bun:"table:review_updates,alias:ru"`

	ID          uuid.UUID       `bun:",pk,type:uuid" json:"id"`
	ItemID      uuid.UUID       `bun:"item_id,notnull,type:uuid" json:"item_id"`
	Role        domain.Role     `bun:"role,notnull" json:"role"`
	ActorID     uuid.UUID       `bun:"actor_id,notnull,type:uuid" json:"actor_id"`
	Company     string          `bun:"company" json:"company,omitempty"`
	Superuser   bool            `bun:"superuser,notnull,default:false" json:"superuser"`
	OldData     domain.Snapshot `bun:"old_data,type:jsonb" json:"old_data,omitempty"`
	NewData     domain.Snapshot `bun:"new_data,type:jsonb" json:"new_data,omitempty"`
	Comment     *string         `bun:"comment" json:"comment,omitempty"`
	IsComment   bool            `bun:"is_comment,notnull,default:false" json:"is_comment"`
	Attachments []string        `bun:"attachments,type:jsonb" json:"attachments,omitempty"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`

	Item *Item `bun:"rel:belongs-to,join:item_id=id" json:"item,omitempty"`
}

// Actor reconstructs the acting party recorded on the update.
func (u *Update) Actor() domain.Actor {
	return domain.Actor{
		ID:        u.ActorID,
		Role:      u.Role,
		Company:   u.Company,
		Superuser: u.Superuser,
	}
}

// Change returns the snapshot pair the update was applied with.
func (u *Update) Change() workflow.Change {
	return workflow.Change{Old: u.OldData, New: u.NewData}
}

// Transition derives the status transition the update represents.
func (u *Update) Transition() workflow.Transition {
	return u.Change().Transition()
}

// ChangedStatus reports whether the update actually changed the item status.
func (u *Update) ChangedStatus() bool {
	newStatus, ok := u.NewData.Status()
	if !ok {
		return false
	}
	oldStatus, ok := u.OldData.Status()
	if !ok {
		return true
	}
	return oldStatus != newStatus
}

// TargetStatus returns the status the update landed on, when it carries one.
func (u *Update) TargetStatus() (domain.Status, bool) {
	if status, ok := u.NewData.Status(); ok {
		return status, true
	}
	return u.OldData.Status()
}
