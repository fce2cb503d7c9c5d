package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	id "rehabdocs/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryStoreRetainsMostRecent(t *testing.T) {
	store := NewMemoryStore(3)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(context.Background(), Event{
			Action:   ActionClientCreated,
			EntityID: string(rune('a' + i)),
		}))
	}

	events, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "c", events[0].EntityID)
	assert.Equal(t, "e", events[2].EntityID)
}

func TestBufferedRecorderDropsWhenFull(t *testing.T) {
	rec := NewBufferedRecorder(2, discardLogger())
	for i := 0; i < 5; i++ {
		rec.Record(context.Background(), Event{Action: ActionCaseCreated})
	}
	// Only the buffer capacity is retained; the rest were dropped without
	// blocking.
	assert.Len(t, rec.Inbox(), 2)
}

func TestWorkerDrainsIntoStore(t *testing.T) {
	rec := NewBufferedRecorder(16, discardLogger())
	store := NewMemoryStore(16)
	worker := NewWorker(store, rec.Inbox(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	actor := id.NewUserID()
	rec.Record(context.Background(), Event{Action: ActionDocumentUpload, ActorID: actor, Entity: "document"})
	rec.Record(context.Background(), Event{Action: ActionDocumentDeleted, ActorID: actor, Entity: "document"})

	require.Eventually(t, func() bool {
		events, err := store.List(context.Background())
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	events, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ActionDocumentUpload, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero(), "recorder should stamp events")
}
