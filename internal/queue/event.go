// Package queue defines the audit events exchanged over the message broker,
// the asynchronous publisher used by request handlers and the consumer that
// stores events in a document sink.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event kinds carried in the envelope.
const (
	KindAction = "action"
	KindLogin  = "login"
)

// Labels stored as the free-text part of an audit entry.
const (
	LabelActionCreated = "Action created"
	LabelActionUpdated = "Action updated"
	LabelActionDeleted = "Action deleted"
	LabelLogin         = "Login called"
)

// ActionSnapshot is the state of an action at the time the event was raised.
type ActionSnapshot struct {
	ID              uint64   `json:"id" bson:"id"`
	Title           string   `json:"title" bson:"title"`
	Completed       bool     `json:"completed" bson:"completed"`
	DueDate         *string  `json:"due_date,omitempty" bson:"due_date,omitempty"`
	Notes           string   `json:"notes" bson:"notes"`
	Priority        *int     `json:"priority,omitempty" bson:"priority,omitempty"`
	ProjectID       *uint64  `json:"project_id,omitempty" bson:"project_id,omitempty"`
	MemberIDs       []uint64 `json:"member_ids" bson:"member_ids"`
	AssignedUserIDs []uint64 `json:"assigned_user_ids" bson:"assigned_user_ids"`
	OwnerID         uint64   `json:"owner_id" bson:"owner_id"`
	Username        string   `json:"username" bson:"username"`
}

// UserSnapshot is the subset of a user recorded on login.
type UserSnapshot struct {
	Name    string `json:"name" bson:"name"`
	Surname string `json:"surname" bson:"surname"`
	Role    string `json:"role" bson:"role"`
}

// ActionAuditEvent is raised when an action is created, updated or deleted.
type ActionAuditEvent struct {
	Label     string         `json:"label" bson:"label"`
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
	RequestID string         `json:"request_id,omitempty" bson:"request_id,omitempty"`
	Action    ActionSnapshot `json:"action" bson:"action"`
}

// LoginAuditEvent is raised on every successful login.
type LoginAuditEvent struct {
	Label     string       `json:"label" bson:"label"`
	Timestamp time.Time    `json:"timestamp" bson:"timestamp"`
	RequestID string       `json:"request_id,omitempty" bson:"request_id,omitempty"`
	Username  string       `json:"username" bson:"username"`
	User      UserSnapshot `json:"user" bson:"user"`
}

// Event is the envelope published to the broker.  Exactly one payload is
// set and it matches Kind.
type Event struct {
	ID     string            `json:"id"`
	Kind   string            `json:"kind"`
	Action *ActionAuditEvent `json:"action,omitempty"`
	Login  *LoginAuditEvent  `json:"login,omitempty"`
}

// NewActionEvent wraps an action snapshot in an envelope.
func NewActionEvent(label, requestID string, snap ActionSnapshot) Event {
	return Event{
		ID:   uuid.NewString(),
		Kind: KindAction,
		Action: &ActionAuditEvent{
			Label:     label,
			Timestamp: time.Now().UTC(),
			RequestID: requestID,
			Action:    snap,
		},
	}
}

// NewLoginEvent wraps a login record in an envelope.
func NewLoginEvent(requestID, username string, user UserSnapshot) Event {
	return Event{
		ID:   uuid.NewString(),
		Kind: KindLogin,
		Login: &LoginAuditEvent{
			Label:     LabelLogin,
			Timestamp: time.Now().UTC(),
			RequestID: requestID,
			Username:  username,
			User:      user,
		},
	}
}

// Validate reports whether the envelope carries the payload its kind names.
func (e Event) Validate() error {
	switch e.Kind {
	case KindAction:
		if e.Action == nil || e.Login != nil {
			return errors.New("action event without action payload")
		}
	case KindLogin:
		if e.Login == nil || e.Action != nil {
			return errors.New("login event without login payload")
		}
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return nil
}

// Label returns the payload label.
func (e Event) Label() string {
	switch {
	case e.Action != nil:
		return e.Action.Label
	case e.Login != nil:
		return e.Login.Label
	}
	return ""
}

// Timestamp returns the payload timestamp.
func (e Event) Timestamp() time.Time {
	switch {
	case e.Action != nil:
		return e.Action.Timestamp
	case e.Login != nil:
		return e.Login.Timestamp
	}
	return time.Time{}
}

// Decode parses and validates a broker message body.
func Decode(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}
