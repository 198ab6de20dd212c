package queue

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_AppendsOneLinePerEvent(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sink.Write(ctx, NewActionEvent(LabelActionUpdated, "r1", ActionSnapshot{ID: 3, Title: "Plan", Username: "alice", AssignedUserIDs: []uint64{2, 5}})))
	require.NoError(t, sink.Write(ctx, NewLoginEvent("r2", "alice", UserSnapshot{Role: "ADMIN"})))

	raw, err := os.ReadFile(sink.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Action updated")
	assert.Contains(t, lines[0], "action_id=3")
	assert.Contains(t, lines[0], "assigned=[2,5]")
	assert.Contains(t, lines[1], "Login called")
	assert.Contains(t, lines[1], "role=ADMIN")
}

func TestHandleMessage(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}

	body := []byte(`{"id":"e1","kind":"login","login":{"label":"Login called","username":"bob","user":{"role":"USER"}}}`)
	require.NoError(t, handleMessage(ctx, body, sink))
	require.Equal(t, 1, sink.count())
	assert.Equal(t, "bob", sink.events[0].Login.Username)

	assert.Error(t, handleMessage(ctx, []byte("garbage"), sink))

	failing := &recordingSink{err: errors.New("mongo down")}
	assert.Error(t, handleMessage(ctx, body, failing))
}
