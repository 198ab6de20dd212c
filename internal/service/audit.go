package service

import (
	"context"

	"github.com/iliyamo/planit/internal/queue"
	"github.com/iliyamo/planit/internal/utils"
)

// Auditor accepts audit events.  Implementations must not block and have
// no way to report failure, so an audit problem can never fail a request.
type Auditor interface {
	Publish(ctx context.Context, ev queue.Event)
}

// NopAuditor discards every event.
type NopAuditor struct{}

func (NopAuditor) Publish(context.Context, queue.Event) {}

func actionSnapshot(d *ActionDTO) queue.ActionSnapshot {
	return queue.ActionSnapshot{
		ID:              d.ID,
		Title:           d.Title,
		Completed:       d.Completed,
		DueDate:         d.DueDate,
		Notes:           d.Notes,
		Priority:        d.Priority,
		ProjectID:       d.ProjectID,
		MemberIDs:       d.MemberIDs,
		AssignedUserIDs: d.AssignedUserIDs,
		OwnerID:         d.OwnerID,
		Username:        d.Username,
	}
}

func emitAction(ctx context.Context, a Auditor, label string, d *ActionDTO) {
	a.Publish(ctx, queue.NewActionEvent(label, utils.RequestID(ctx), actionSnapshot(d)))
}
