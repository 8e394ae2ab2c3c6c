package chat

import (
	"context"
	"encoding/json"
)

// Tables the change feed can follow.
const (
	TableRooms    = "rooms"
	TableMessages = "messages"
)

// RowStore queries and inserts rows of the two tables.
type RowStore interface {
	ListRooms(ctx context.Context) ([]Room, error)
	InsertRoom(ctx context.Context, name string) (Room, error)
	ListMessages(ctx context.Context, roomID int64) ([]Message, error)
	InsertMessage(ctx context.Context, draft Draft) (Message, error)
}

// FeedStatus is reported by a subscription when its transport changes state.
type FeedStatus int

const (
	FeedSubscribed FeedStatus = iota
	FeedClosed
	FeedDisconnected
)

func (s FeedStatus) String() string {
	switch s {
	case FeedSubscribed:
		return "subscribed"
	case FeedClosed:
		return "closed"
	case FeedDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ChangeFeed opens live subscriptions to a table's insert events. Rows are
// delivered raw; the subscriber decodes and filters them. Subscribe returns
// once the subscription is active.
type ChangeFeed interface {
	Subscribe(ctx context.Context, table string, onInsert func(json.RawMessage), onStatus func(FeedStatus, error)) (Subscription, error)
}

// Subscription is a live feed handle. After Close returns no callback of the
// subscription runs again. Close must not be called from inside a callback.
type Subscription interface {
	Close() error
}

// Identity is the backend's auth service.
type Identity interface {
	CurrentSession(ctx context.Context) (*Session, error)
	SignIn(ctx context.Context, creds Credentials) (*Session, error)
	SignUp(ctx context.Context, creds Credentials) (*Session, error)
	SignOut(ctx context.Context) error
	// OnAuthChange calls fn after every sign-in or sign-out.
	OnAuthChange(fn func(*Session)) (unsubscribe func())
}
