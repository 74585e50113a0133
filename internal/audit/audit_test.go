package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewEvent(t *testing.T) {
	event := NewEvent(ActionLoginStarted)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, ActionLoginStarted, event.Action)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, time.Minute)

	other := NewEvent(ActionLoginStarted)
	assert.NotEqual(t, event.ID, other.ID)
}

func Test_MemoryPublisher(t *testing.T) {
	ctx := context.Background()
	publisher := NewMemoryPublisher()
	defer publisher.Close()

	event := NewEvent(ActionLoginSucceeded)
	event.Email = "alice@example.com"
	require.NoError(t, publisher.Emit(ctx, event))
	require.NoError(t, publisher.Emit(ctx, NewEvent(ActionLoginFailed)))

	events := publisher.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ActionLoginSucceeded, events[0].Action)
	assert.Equal(t, "alice@example.com", events[0].Email)
	assert.Equal(t, ActionLoginFailed, events[1].Action)

	// Events returns a copy; mutating it leaves the buffer alone.
	events[0].Email = "tampered"
	assert.Equal(t, "alice@example.com", publisher.Events()[0].Email)
}
