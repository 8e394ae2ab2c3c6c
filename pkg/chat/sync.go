package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var errConnectionLost = errors.New("connection lost")

// SyncState is where a RoomSync is in its lifecycle.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncLoading
	SyncLive
	SyncError
	SyncDisconnected
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncLoading:
		return "loading"
	case SyncLive:
		return "live"
	case SyncError:
		return "error"
	case SyncDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Snapshot is what a message view renders. Messages must not be modified.
type Snapshot struct {
	State    SyncState
	Room     *Room
	Messages []Message
	Err      error
}

// RoomSync keeps the message list of the selected room current: it loads
// history, then follows the messages feed until the room changes or Close.
//
// Observers registered with OnChange must not call Select or Close
// synchronously.
type RoomSync struct {
	messages *MessageService
	feed     ChangeFeed
	log      *zap.Logger

	// opMu serializes Select and Close.
	opMu sync.Mutex

	mu         sync.Mutex
	state      SyncState
	room       *Room
	list       []Message
	err        error
	gen        uint64
	sub        Subscription
	cancelLoad context.CancelFunc

	notifyMu sync.Mutex
	changes  observable[Snapshot]
}

func NewRoomSync(messages *MessageService, feed ChangeFeed, log *zap.Logger) *RoomSync {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomSync{messages: messages, feed: feed, log: log}
}

// OnChange calls fn with a fresh snapshot after every state or list change.
func (s *RoomSync) OnChange(fn func(Snapshot)) (unsubscribe func()) {
	return s.changes.subscribe(fn)
}

func (s *RoomSync) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *RoomSync) snapshotLocked() Snapshot {
	return Snapshot{
		State:    s.state,
		Room:     cloneRoom(s.room),
		Messages: s.list,
		Err:      s.err,
	}
}

// Select switches to room: the previous subscription is closed, history is
// fetched and the feed is opened. A nil room just tears down. A Select or
// Close that arrives while history is loading aborts the load and its result
// is dropped.
func (s *RoomSync) Select(ctx context.Context, room *Room) error {
	s.invalidate()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.teardown()
	if room == nil {
		return nil
	}

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	gen := s.gen
	s.room = cloneRoom(room)
	s.state = SyncLoading
	s.cancelLoad = cancel
	roomID := s.room.ID
	s.mu.Unlock()
	s.notify()

	msgs, err := s.messages.ListMessages(loadCtx, roomID)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug("discarding stale history", zap.Int64("room", roomID))
		return nil
	}
	s.cancelLoad = nil
	if err != nil {
		s.state = SyncError
		s.err = err
		s.mu.Unlock()
		s.notify()
		return err
	}
	s.list = msgs
	s.mu.Unlock()
	s.notify()

	sub, err := s.feed.Subscribe(ctx, TableMessages,
		func(raw json.RawMessage) { s.handleInsert(gen, raw) },
		func(st FeedStatus, err error) { s.handleStatus(gen, st, err) },
	)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		if sub != nil {
			_ = sub.Close()
		}
		return nil
	}
	if err != nil {
		s.state = SyncDisconnected
		s.err = remoteError("subscribe", err)
		err = s.err
		s.mu.Unlock()
		s.notify()
		return err
	}
	s.sub = sub
	s.state = SyncLive
	s.mu.Unlock()
	s.notify()

	s.log.Debug("room live", zap.Int64("room", roomID), zap.Int("messages", len(msgs)))
	return nil
}

// Close tears down the subscription and returns to Idle.
func (s *RoomSync) Close() {
	s.invalidate()

	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.teardown()
}

// invalidate makes every pending result and feed event of the current
// selection stale, and aborts an in-flight history load.
func (s *RoomSync) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
}

// teardown must be called with opMu held.
func (s *RoomSync) teardown() {
	s.mu.Lock()
	sub := s.sub
	wasIdle := s.state == SyncIdle && s.room == nil
	s.sub = nil
	s.state = SyncIdle
	s.room = nil
	s.list = nil
	s.err = nil
	s.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			s.log.Debug("closing subscription", zap.Error(err))
		}
	}
	if !wasIdle {
		s.notify()
	}
}

func (s *RoomSync) handleInsert(gen uint64, raw json.RawMessage) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.log.Warn("bad message event", zap.Error(err))
		return
	}

	s.mu.Lock()
	if gen != s.gen || s.room == nil || (s.state != SyncLive && s.state != SyncLoading) {
		s.mu.Unlock()
		return
	}
	merged := Merge(s.list, s.room.ID, msg)
	changed := len(merged) != len(s.list)
	s.list = merged
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *RoomSync) handleStatus(gen uint64, st FeedStatus, err error) {
	if st != FeedDisconnected {
		return
	}

	s.mu.Lock()
	if gen != s.gen || s.room == nil {
		s.mu.Unlock()
		return
	}
	if err == nil {
		err = errConnectionLost
	}
	s.state = SyncDisconnected
	s.err = remoteError("live feed", err)
	s.mu.Unlock()

	s.log.Warn("live feed lost", zap.Error(err))
	s.notify()
}

// notify publishes a snapshot taken under notifyMu so observers see changes
// in order.
func (s *RoomSync) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.changes.set(s.Snapshot())
}
