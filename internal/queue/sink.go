package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Sink stores audit events.
type Sink interface {
	Write(ctx context.Context, ev Event) error
}

// LogDocument is the shape of an audit entry in MongoDB.  Exactly one of
// Action and Login is set, matching Kind.
type LogDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	EventID   string             `bson:"event_id"`
	Kind      string             `bson:"kind"`
	Text      string             `bson:"text"`
	Timestamp time.Time          `bson:"timestamp"`
	RequestID string             `bson:"request_id,omitempty"`
	Action    *ActionAuditEvent  `bson:"action,omitempty"`
	Login     *LoginAuditEvent   `bson:"login,omitempty"`
}

// NewLogDocument wraps an event in its stored form.
func NewLogDocument(ev Event) LogDocument {
	doc := LogDocument{
		EventID:   ev.ID,
		Kind:      ev.Kind,
		Text:      ev.Label(),
		Timestamp: ev.Timestamp(),
		Action:    ev.Action,
		Login:     ev.Login,
	}
	switch {
	case ev.Action != nil:
		doc.RequestID = ev.Action.RequestID
	case ev.Login != nil:
		doc.RequestID = ev.Login.RequestID
	}
	return doc
}

// MongoSink inserts one document per event.
type MongoSink struct {
	coll *mongo.Collection
}

func NewMongoSink(client *mongo.Client, database, collection string) *MongoSink {
	return &MongoSink{coll: client.Database(database).Collection(collection)}
}

func (s *MongoSink) Write(ctx context.Context, ev Event) error {
	if _, err := s.coll.InsertOne(ctx, NewLogDocument(ev)); err != nil {
		return fmt.Errorf("insert audit document: %w", err)
	}
	return nil
}

// FileSink appends one human-readable line per event to dir/audit.log.
type FileSink struct {
	mu   sync.Mutex
	path string
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &FileSink{path: filepath.Join(dir, "audit.log")}, nil
}

// Path returns the file the sink appends to.
func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Write(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev Event) string {
	ts := ev.Timestamp().Format(time.RFC3339)
	switch {
	case ev.Action != nil:
		a := ev.Action.Action
		return fmt.Sprintf("[%s] %s | event_id=%s | request_id=%s | action_id=%d | owner=%q | title=%q | completed=%t | members=%s | assigned=%s\n",
			ts, ev.Action.Label, ev.ID, ev.Action.RequestID, a.ID, a.Username, a.Title, a.Completed, joinIDs(a.MemberIDs), joinIDs(a.AssignedUserIDs))
	case ev.Login != nil:
		return fmt.Sprintf("[%s] %s | event_id=%s | request_id=%s | username=%q | role=%s\n",
			ts, ev.Login.Label, ev.ID, ev.Login.RequestID, ev.Login.Username, ev.Login.User.Role)
	}
	return fmt.Sprintf("[%s] unknown event | event_id=%s | kind=%s\n", ts, ev.ID, ev.Kind)
}

func joinIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
