package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTranscriptStore(t *testing.T) (*TranscriptStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTranscriptStore(client, time.Hour), mr
}

func TestTranscriptAppendAndList(t *testing.T) {
	store, _ := newTranscriptStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", TranscriptMessage{Role: ChatRoleUser, Body: "hello"}))
	require.NoError(t, store.Append(ctx, "sess-1", TranscriptMessage{Role: ChatRoleAssistant, Body: "hi there"}))

	msgs, err := store.List(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Body)
	assert.Equal(t, ChatRoleAssistant, msgs[1].Role)
	assert.NotEmpty(t, msgs[0].ID)
	assert.False(t, msgs[0].Timestamp.IsZero())
}

func TestTranscriptListLimit(t *testing.T) {
	store, _ := newTranscriptStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, "sess-1", TranscriptMessage{
			Role: ChatRoleUser,
			Body: fmt.Sprintf("message %d", i),
		}))
	}

	msgs, err := store.List(ctx, "sess-1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "message 3", msgs[0].Body)
	assert.Equal(t, "message 4", msgs[1].Body)
}

func TestTranscriptHistoryShapesTurns(t *testing.T) {
	store, _ := newTranscriptStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", TranscriptMessage{Role: ChatRoleUser, Body: "my dog is Buddy"}))

	turns, err := store.History(ctx, "sess-1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "my dog is Buddy", turns[0].Content)
}

func TestTranscriptExpiry(t *testing.T) {
	store, mr := newTranscriptStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", TranscriptMessage{Role: ChatRoleUser, Body: "hello"}))
	mr.FastForward(2 * time.Hour)

	msgs, err := store.List(ctx, "sess-1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestTranscriptDelete(t *testing.T) {
	store, _ := newTranscriptStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", TranscriptMessage{Role: ChatRoleUser, Body: "hello"}))
	require.NoError(t, store.Delete(ctx, "sess-1"))

	msgs, err := store.List(ctx, "sess-1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestNilTranscriptStoreIsNoop(t *testing.T) {
	var store *TranscriptStore

	require.NoError(t, store.Append(context.Background(), "sess-1", TranscriptMessage{Body: "x"}))
	msgs, err := store.List(context.Background(), "sess-1", 0)
	require.NoError(t, err)
	assert.Nil(t, msgs)
}
