package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clientFixture struct {
	store    *fakeStore
	feed     *fakeFeed
	identity *fakeIdentity
	client   *Client
}

func newClientFixture(t *testing.T) *clientFixture {
	t.Helper()
	f := &clientFixture{store: newFakeStore(), feed: &fakeFeed{}, identity: newFakeIdentity()}
	f.client = NewClient(f.store, f.feed, f.identity, nil)
	require.NoError(t, f.client.Start(context.Background()))
	t.Cleanup(f.client.Close)
	return f
}

func TestClientAuth(t *testing.T) {
	f := newClientFixture(t)
	ctx := context.Background()
	assert.Nil(t, f.client.Session.Get())

	_, err := f.client.SignIn(ctx, "", "")
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe, 2)

	_, err = f.client.SignIn(ctx, "nobody@example.com", "secret")
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "sign in", re.Op)
	assert.Nil(t, f.client.Session.Get())

	sess, err := f.client.SignUp(ctx, " eve@example.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "eve@example.com", sess.Email)
	assert.Equal(t, sess, f.client.Session.Get())

	require.NoError(t, f.client.SignOut(ctx))
	assert.Nil(t, f.client.Session.Get())

	_, err = f.client.SignIn(ctx, "eve@example.com", "secret")
	require.NoError(t, err)
}

func TestClientRestoresSession(t *testing.T) {
	identity := newFakeIdentity()
	identity.session = &Session{ID: "u1", Email: "a@b.io"}
	c := NewClient(newFakeStore(), &fakeFeed{}, identity, nil)
	defer c.Close()

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, "u1", c.Session.Get().ID)

	identity.set(nil)
	assert.Nil(t, c.Session.Get())
}

func TestClientSendRoundTrip(t *testing.T) {
	f := newClientFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.client.Send(ctx, "hi"), ErrNotSignedIn)
	assert.ErrorIs(t, f.client.OpenChat(ctx), ErrNotSignedIn)

	sess, err := f.client.SignUp(ctx, "zed@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, f.client.OpenChat(ctx))

	require.NoError(t, f.client.Send(ctx, "hello"))
	require.Len(t, f.store.inserted, 1)
	assert.Equal(t, Draft{Content: "hello", AuthorID: sess.ID, AuthorEmail: sess.Email, RoomID: 1}, f.store.inserted[0])

	// The sent message appears only once the feed echoes it.
	assert.Empty(t, f.client.Sync.Snapshot().Messages)
	f.feed.emit(f.store.messages[0])
	assert.Equal(t, "hello", f.client.Sync.Snapshot().Messages[0].Content)

	err = f.client.Send(ctx, "   ")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, f.store.inserted, 1)
}

func TestClientCreateRoomSwitchesSelection(t *testing.T) {
	f := newClientFixture(t)
	ctx := context.Background()
	_, err := f.client.SignUp(ctx, "x@example.com", "secret")
	require.NoError(t, err)

	room, err := f.client.CreateRoom(ctx, "Ops")
	require.NoError(t, err)
	assert.Equal(t, &room, f.client.Selection.Get())
	assert.Equal(t, room.ID, f.client.Sync.Snapshot().Room.ID)

	_, err = f.client.CreateRoom(ctx, " ")
	require.Error(t, err)
	assert.Equal(t, &room, f.client.Selection.Get())
}

func TestClientSignOutClosesSubscription(t *testing.T) {
	f := newClientFixture(t)
	ctx := context.Background()
	_, err := f.client.SignUp(ctx, "y@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, f.client.OpenChat(ctx))

	f.identity.signOutErr = errBoom
	err = f.client.SignOut(ctx)
	assert.True(t, IsRemote(err))
	assert.Nil(t, f.client.Session.Get())

	sub := f.feed.all()[0]
	assert.True(t, sub.isClosed())
	f.feed.emit(Message{ID: 99, RoomID: 1})
	assert.Equal(t, SyncIdle, f.client.Sync.Snapshot().State)
	assert.Empty(t, f.client.Sync.Snapshot().Messages)
}

func TestClientSessionExpiryClosesSync(t *testing.T) {
	f := newClientFixture(t)
	ctx := context.Background()
	_, err := f.client.SignUp(ctx, "w@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, f.client.OpenChat(ctx))

	f.identity.set(nil)
	assert.True(t, f.feed.all()[0].isClosed())
	assert.Equal(t, SyncIdle, f.client.Sync.Snapshot().State)
}

func TestClientJoinRoomShowsOnlyThatRoom(t *testing.T) {
	f := newClientFixture(t)
	ctx := context.Background()
	f.store.rooms = append(f.store.rooms, Room{ID: 2, Name: "Random"})
	f.store.add(1, "general chatter")
	f.store.add(2, "random one")
	f.store.add(2, "random two")

	_, err := f.client.SignUp(ctx, "r@example.com", "secret")
	require.NoError(t, err)

	rooms, err := f.client.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	require.NoError(t, f.client.JoinRoom(ctx, rooms[1]))
	snap := f.client.Sync.Snapshot()
	require.Len(t, snap.Messages, 2)
	for _, m := range snap.Messages {
		assert.Equal(t, int64(2), m.RoomID)
	}
	assert.True(t, snap.Messages[0].CreatedAt.Before(snap.Messages[1].CreatedAt))
	assert.Equal(t, &Room{ID: 2, Name: "Random"}, f.client.Selection.Get())
}

func TestClientCreateRoomUsesServerID(t *testing.T) {
	f := newClientFixture(t)
	ctx := context.Background()
	f.store.rooms = []Room{DefaultRoom, {ID: 2}, {ID: 3}, {ID: 4}}
	_, err := f.client.SignUp(ctx, "t@example.com", "secret")
	require.NoError(t, err)

	room, err := f.client.CreateRoom(ctx, "Team Sync")
	require.NoError(t, err)
	assert.Equal(t, Room{ID: 5, Name: "Team Sync"}, room)
	assert.Equal(t, &Room{ID: 5, Name: "Team Sync"}, f.client.Selection.Get())
}
