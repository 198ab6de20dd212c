package model

// Contact is an address-book entry owned by exactly one user.  Contacts can
// be attached to actions as members; membership grants no access rights.
type Contact struct {
	ID      uint64 // contacts.id
	OwnerID uint64 // contacts.owner_id
	Name    string // contacts.name (given name)
	Surname string // contacts.surname
	Email   string // contacts.email
	Phone   string // contacts.phone
}
