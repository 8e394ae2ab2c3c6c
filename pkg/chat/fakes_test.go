package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

type fakeStore struct {
	mu       sync.Mutex
	rooms    []Room
	messages []Message
	nextID   int64

	listErr   error
	insertErr error
	// gate, when set for a room, blocks ListMessages until closed.
	gate      map[int64]chan struct{}

	inserted  []Draft
	listCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rooms: []Room{DefaultRoom}, nextID: 1, gate: map[int64]chan struct{}{}}
}

func (f *fakeStore) ListRooms(ctx context.Context) ([]Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Room(nil), f.rooms...), nil
}

func (f *fakeStore) InsertRoom(ctx context.Context, name string) (Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return Room{}, f.insertErr
	}
	r := Room{ID: int64(len(f.rooms) + 1), Name: name}
	f.rooms = append(f.rooms, r)
	return r, nil
}

func (f *fakeStore) ListMessages(ctx context.Context, roomID int64) ([]Message, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.gate[roomID]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Message
	for _, m := range f.messages {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertMessage(ctx context.Context, d Draft) (Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, d)
	if f.insertErr != nil {
		return Message{}, f.insertErr
	}
	m := f.add(d.RoomID, d.Content)
	m.AuthorID, m.AuthorEmail = d.AuthorID, d.AuthorEmail
	return m, nil
}

// add stores a message; caller holds mu or owns the store.
func (f *fakeStore) add(roomID int64, content string) Message {
	m := Message{
		ID:        f.nextID,
		Content:   content,
		RoomID:    roomID,
		CreatedAt: time.Date(2024, 1, 1, 12, 0, int(f.nextID), 0, time.UTC),
	}
	f.nextID++
	f.messages = append(f.messages, m)
	return m
}

type fakeSub struct {
	feed     *fakeFeed
	table    string
	onInsert func(json.RawMessage)
	onStatus func(FeedStatus, error)

	mu     sync.Mutex
	closed bool
}

func (s *fakeSub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeFeed struct {
	mu   sync.Mutex
	subs []*fakeSub
	err  error

	// openWhileActive counts Subscribe calls made while another
	// subscription was still open.
	openWhileActive int
}

func (f *fakeFeed) Subscribe(ctx context.Context, table string, onInsert func(json.RawMessage), onStatus func(FeedStatus, error)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range f.subs {
		if !s.isClosed() {
			f.openWhileActive++
		}
	}
	s := &fakeSub{feed: f, table: table, onInsert: onInsert, onStatus: onStatus}
	f.subs = append(f.subs, s)
	return s, nil
}

func (f *fakeFeed) all() []*fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeSub(nil), f.subs...)
}

// emit delivers msg to every subscription, open or not, the way a late
// event from a stale closure would arrive.
func (f *fakeFeed) emit(msg Message) {
	raw, _ := json.Marshal(msg)
	for _, s := range f.all() {
		s.onInsert(raw)
	}
}

func (f *fakeFeed) drop(err error) {
	for _, s := range f.all() {
		if !s.isClosed() {
			s.onStatus(FeedDisconnected, err)
		}
	}
}

type fakeIdentity struct {
	mu         sync.Mutex
	session    *Session
	users      map[string]string
	observers  []func(*Session)
	signOutErr error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{users: map[string]string{}}
}

func (f *fakeIdentity) CurrentSession(ctx context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, nil
}

func (f *fakeIdentity) SignUp(ctx context.Context, c Credentials) (*Session, error) {
	f.mu.Lock()
	if _, ok := f.users[c.Email]; ok {
		f.mu.Unlock()
		return nil, &RemoteError{Status: 400, Message: "user already registered"}
	}
	f.users[c.Email] = c.Password
	f.mu.Unlock()
	return f.set(&Session{ID: "u-" + c.Email, Email: c.Email}), nil
}

func (f *fakeIdentity) SignIn(ctx context.Context, c Credentials) (*Session, error) {
	f.mu.Lock()
	pw, ok := f.users[c.Email]
	f.mu.Unlock()
	if !ok || pw != c.Password {
		return nil, &RemoteError{Status: 400, Message: "invalid login credentials"}
	}
	return f.set(&Session{ID: "u-" + c.Email, Email: c.Email}), nil
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.set(nil)
	return f.signOutErr
}

func (f *fakeIdentity) OnAuthChange(fn func(*Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, fn)
	return func() {}
}

func (f *fakeIdentity) set(s *Session) *Session {
	f.mu.Lock()
	f.session = s
	obs := append([]func(*Session){}, f.observers...)
	f.mu.Unlock()
	for _, fn := range obs {
		fn(s)
	}
	return s
}

var errBoom = errors.New("boom")
