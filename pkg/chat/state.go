package chat

import "sync"

type observer[T any] struct {
	id int
	fn func(T)
}

// observable holds a value and calls its observers, in registration order,
// after every set. Observers run outside the lock.
type observable[T any] struct {
	mu        sync.RWMutex
	value     T
	nextID    int
	observers []observer[T]
}

func (o *observable[T]) get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

func (o *observable[T]) set(v T) {
	o.mu.Lock()
	o.value = v
	fns := make([]func(T), len(o.observers))
	for i, obs := range o.observers {
		fns[i] = obs.fn
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (o *observable[T]) subscribe(fn func(T)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++
	o.observers = append(o.observers, observer[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i, obs := range o.observers {
				if obs.id == id {
					o.observers = append(o.observers[:i:i], o.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// SessionState is the process-wide current session. Starts signed out.
type SessionState struct {
	obs observable[*Session]
}

func NewSessionState() *SessionState {
	return &SessionState{}
}

// Get returns a copy of the current session, or nil when signed out.
func (s *SessionState) Get() *Session {
	return cloneSession(s.obs.get())
}

// Set replaces the session and notifies observers. nil signs out.
func (s *SessionState) Set(sess *Session) {
	s.obs.set(cloneSession(sess))
}

func (s *SessionState) Subscribe(fn func(*Session)) (unsubscribe func()) {
	return s.obs.subscribe(func(sess *Session) { fn(cloneSession(sess)) })
}

func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// RoomSelection is the room the user is viewing. It starts at DefaultRoom.
type RoomSelection struct {
	obs observable[*Room]
}

func NewRoomSelection() *RoomSelection {
	r := DefaultRoom
	return NewRoomSelectionWith(&r)
}

// NewRoomSelectionWith starts the selection at initial, which may be nil.
func NewRoomSelectionWith(initial *Room) *RoomSelection {
	rs := &RoomSelection{}
	rs.obs.value = cloneRoom(initial)
	return rs
}

func (rs *RoomSelection) Get() *Room {
	return cloneRoom(rs.obs.get())
}

func (rs *RoomSelection) Set(room *Room) {
	rs.obs.set(cloneRoom(room))
}

func (rs *RoomSelection) Subscribe(fn func(*Room)) (unsubscribe func()) {
	return rs.obs.subscribe(func(r *Room) { fn(cloneRoom(r)) })
}

func cloneRoom(r *Room) *Room {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
