package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSync(store *fakeStore, feed *fakeFeed) *RoomSync {
	return NewRoomSync(NewMessageService(store, nil), feed, nil)
}

func ids(msgs []Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestRoomSyncLoadsThenGoesLive(t *testing.T) {
	store := newFakeStore()
	store.add(1, "hello")
	store.add(2, "other room")
	feed := &fakeFeed{}
	s := newTestSync(store, feed)

	var mu sync.Mutex
	var states []SyncState
	s.OnChange(func(snap Snapshot) {
		mu.Lock()
		states = append(states, snap.State)
		mu.Unlock()
	})

	require.NoError(t, s.Select(context.Background(), &DefaultRoom))

	snap := s.Snapshot()
	assert.Equal(t, SyncLive, snap.State)
	assert.Equal(t, []int64{1}, ids(snap.Messages))
	require.Len(t, feed.all(), 1)
	assert.Equal(t, TableMessages, feed.all()[0].table)

	mu.Lock()
	assert.Equal(t, []SyncState{SyncLoading, SyncLoading, SyncLive}, states)
	mu.Unlock()

	feed.emit(Message{ID: 7, RoomID: 1, Content: "live"})
	feed.emit(Message{ID: 8, RoomID: 2, Content: "elsewhere"})
	feed.emit(Message{ID: 1, RoomID: 1, Content: "duplicate"})
	assert.Equal(t, []int64{1, 7}, ids(s.Snapshot().Messages))
}

func TestRoomSyncFetchError(t *testing.T) {
	store := newFakeStore()
	store.listErr = errBoom
	feed := &fakeFeed{}
	s := newTestSync(store, feed)

	err := s.Select(context.Background(), &DefaultRoom)
	require.Error(t, err)
	assert.True(t, IsRemote(err))

	snap := s.Snapshot()
	assert.Equal(t, SyncError, snap.State)
	assert.ErrorIs(t, snap.Err, errBoom)
	assert.Empty(t, feed.all())
}

func TestRoomSyncSwitchClosesPreviousSubscription(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{}
	s := newTestSync(store, feed)
	ctx := context.Background()

	require.NoError(t, s.Select(ctx, &Room{ID: 1}))
	require.NoError(t, s.Select(ctx, &Room{ID: 2}))

	subs := feed.all()
	require.Len(t, subs, 2)
	assert.True(t, subs[0].isClosed())
	assert.False(t, subs[1].isClosed())
	assert.Zero(t, feed.openWhileActive)

	// A late event from the first subscription's handler must not land.
	feed.emit(Message{ID: 40, RoomID: 1})
	assert.Empty(t, s.Snapshot().Messages)

	feed.emit(Message{ID: 41, RoomID: 2})
	assert.Equal(t, []int64{41}, ids(s.Snapshot().Messages))
	assert.Equal(t, int64(2), s.Snapshot().Room.ID)
}

func TestRoomSyncDiscardsStaleFetch(t *testing.T) {
	store := newFakeStore()
	store.add(1, "room one")
	store.add(2, "room two")
	gate := make(chan struct{})
	store.gate[1] = gate
	feed := &fakeFeed{}
	s := newTestSync(store, feed)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.Select(ctx, &Room{ID: 1}) }()

	require.Eventually(t, func() bool {
		return s.Snapshot().State == SyncLoading
	}, time.Second, time.Millisecond)

	require.NoError(t, s.Select(ctx, &Room{ID: 2}))
	close(gate)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	assert.Equal(t, SyncLive, snap.State)
	assert.Equal(t, int64(2), snap.Room.ID)
	assert.Equal(t, []int64{2}, ids(snap.Messages))
	assert.Len(t, feed.all(), 1)
}

func TestRoomSyncDisconnect(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{}
	s := newTestSync(store, feed)

	require.NoError(t, s.Select(context.Background(), &DefaultRoom))
	feed.drop(nil)

	snap := s.Snapshot()
	assert.Equal(t, SyncDisconnected, snap.State)
	assert.True(t, IsRemote(snap.Err))

	feed.emit(Message{ID: 3, RoomID: 1})
	assert.Empty(t, s.Snapshot().Messages)
}

func TestRoomSyncSubscribeFailure(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{err: errBoom}
	s := newTestSync(store, feed)

	err := s.Select(context.Background(), &DefaultRoom)
	require.Error(t, err)
	assert.Equal(t, SyncDisconnected, s.Snapshot().State)
}

func TestRoomSyncClose(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{}
	s := newTestSync(store, feed)

	require.NoError(t, s.Select(context.Background(), &DefaultRoom))
	s.Close()

	assert.True(t, feed.all()[0].isClosed())
	snap := s.Snapshot()
	assert.Equal(t, SyncIdle, snap.State)
	assert.Nil(t, snap.Room)

	feed.emit(Message{ID: 3, RoomID: 1})
	assert.Empty(t, s.Snapshot().Messages)

	s.Close()
	require.NoError(t, s.Select(context.Background(), nil))
	assert.Equal(t, SyncIdle, s.Snapshot().State)
}
