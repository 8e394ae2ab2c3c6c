package chat

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Client ties the state containers and services to one backend. Views read
// Session, Selection and Sync; they act through the methods.
type Client struct {
	Session   *SessionState
	Selection *RoomSelection
	Rooms     *RoomDirectory
	Messages  *MessageService
	Sync      *RoomSync

	identity Identity
	log      *zap.Logger

	mu     sync.Mutex
	unsubs []func()
}

func NewClient(store RowStore, feed ChangeFeed, identity Identity, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	messages := NewMessageService(store, log)
	return &Client{
		Session:   NewSessionState(),
		Selection: NewRoomSelection(),
		Rooms:     NewRoomDirectory(store, log),
		Messages:  messages,
		Sync:      NewRoomSync(messages, feed, log),
		identity:  identity,
		log:       log,
	}
}

// Start restores any existing session and follows auth changes. Losing the
// session closes the room sync.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	c.unsubs = append(c.unsubs,
		c.identity.OnAuthChange(c.Session.Set),
		c.Session.Subscribe(func(s *Session) {
			if s == nil && c.Sync.Snapshot().State != SyncIdle {
				c.Sync.Close()
			}
		}),
	)
	c.mu.Unlock()

	sess, err := c.identity.CurrentSession(ctx)
	if err != nil {
		return remoteError("restore session", err)
	}
	c.Session.Set(sess)
	return nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "sign in", email, password, c.identity.SignIn)
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "sign up", email, password, c.identity.SignUp)
}

func (c *Client) authenticate(ctx context.Context, op, email, password string, call func(context.Context, Credentials) (*Session, error)) (*Session, error) {
	creds := Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := Validate(SignInForm{Email: creds.Email, Password: creds.Password}); err != nil {
		return nil, err
	}

	sess, err := call(ctx, creds)
	if err != nil {
		c.log.Info(op+" failed", zap.String("email", creds.Email), zap.Error(err))
		return nil, remoteError(op, err)
	}
	c.Session.Set(sess)
	return cloneSession(sess), nil
}

// SignOut closes the room sync first, then ends the backend session. The
// local session is cleared even when the backend call fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.Sync.Close()

	err := c.identity.SignOut(ctx)
	c.Session.Set(nil)
	if err != nil {
		return remoteError("sign out", err)
	}
	return nil
}

func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	return c.Rooms.ListRooms(ctx)
}

// CreateRoom creates a room and switches to it.
func (c *Client) CreateRoom(ctx context.Context, name string) (Room, error) {
	room, err := c.Rooms.CreateRoom(ctx, name)
	if err != nil {
		return Room{}, err
	}
	return room, c.JoinRoom(ctx, room)
}

// JoinRoom selects room and starts syncing it.
func (c *Client) JoinRoom(ctx context.Context, room Room) error {
	c.Selection.Set(&room)
	return c.Sync.Select(ctx, &room)
}

// OpenChat starts syncing the current selection.
func (c *Client) OpenChat(ctx context.Context) error {
	if c.Session.Get() == nil {
		return ErrNotSignedIn
	}
	room := c.Selection.Get()
	if room == nil {
		return ErrNoRoomSelected
	}
	return c.Sync.Select(ctx, room)
}

// Send posts content to the selected room as the signed-in user.
func (c *Client) Send(ctx context.Context, content string) error {
	sess := c.Session.Get()
	if sess == nil {
		return ErrNotSignedIn
	}
	room := c.Selection.Get()
	if room == nil {
		return ErrNoRoomSelected
	}
	return c.Messages.SendMessage(ctx, Draft{
		Content:     content,
		AuthorID:    sess.ID,
		AuthorEmail: sess.Email,
		RoomID:      room.ID,
	})
}

// Close stops following auth changes and tears down the sync.
func (c *Client) Close() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	c.Sync.Close()
}
