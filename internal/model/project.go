package model

// Project groups actions.  It belongs to one owner; actions reference it
// through a nullable actions.project_id column.
type Project struct {
	ID          uint64 // projects.id
	OwnerID     uint64 // projects.owner_id
	Title       string // projects.title
	Description string // projects.description
}
