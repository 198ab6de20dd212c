package model

import "time"

// Action is a task.  Ownership is the owner_id column; members and assignees
// live in the action_members and action_assignees join tables and are
// carried here as id sets.
//
// Fields:
//
//	ID              – primary key identifier.
//	OwnerID         – user that created the action; the only one allowed to change it.
//	ProjectID       – optional project reference (nil when unlinked).
//	Title           – required title.
//	Completed       – completion flag.
//	DueDate         – optional calendar date (time component is ignored).
//	Notes           – free text.
//	Priority        – optional integer priority.
//	MemberIDs       – contacts attached to the action.
//	AssignedUserIDs – users allowed to read the action.
type Action struct {
	ID              uint64
	OwnerID         uint64
	ProjectID       *uint64
	Title           string
	Completed       bool
	DueDate         *time.Time
	Notes           string
	Priority        *int
	MemberIDs       []uint64
	AssignedUserIDs []uint64
}

// IsAssigned reports whether userID is in the assigned set.
func (a *Action) IsAssigned(userID uint64) bool {
	for _, id := range a.AssignedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
