package backend

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/thereayou/roomchat/pkg/chat"
)

type sessionResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        chat.Session `json:"user"`
}

// CurrentSession resolves the stored token to a session. A missing or
// rejected token is a signed-out state, not an error.
func (c *Client) CurrentSession(ctx context.Context) (*chat.Session, error) {
	if c.Token() == "" {
		return nil, nil
	}

	var user chat.Session
	err := c.do(ctx, http.MethodGet, "/auth/user", nil, &user)
	var re *chat.RemoteError
	if errors.As(err, &re) && re.Status == http.StatusUnauthorized {
		c.log.Debug("stored token rejected")
		c.setSession("", nil)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.session = &user
	c.mu.Unlock()
	s := user
	return &s, nil
}

func (c *Client) SignIn(ctx context.Context, creds chat.Credentials) (*chat.Session, error) {
	return c.authenticate(ctx, "/auth/signin", creds)
}

func (c *Client) SignUp(ctx context.Context, creds chat.Credentials) (*chat.Session, error) {
	return c.authenticate(ctx, "/auth/signup", creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds chat.Credentials) (*chat.Session, error) {
	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, path, creds, &resp); err != nil {
		return nil, err
	}

	sess := resp.User
	c.setSession(resp.AccessToken, &sess)
	c.log.Info("signed in", zap.String("user", sess.ID), zap.Time("expires", resp.ExpiresAt))
	s := sess
	return &s, nil
}

// SignOut revokes the token on the server. The local session is dropped
// whatever the server says.
func (c *Client) SignOut(ctx context.Context) error {
	var err error
	if c.Token() != "" {
		err = c.do(ctx, http.MethodPost, "/auth/signout", nil, nil)
	}
	c.setSession("", nil)
	return err
}

func (c *Client) OnAuthChange(fn func(*chat.Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Client) setSession(token string, sess *chat.Session) {
	c.mu.Lock()
	c.token = token
	c.session = sess
	fns := make([]func(*chat.Session), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		if sess == nil {
			fn(nil)
			continue
		}
		s := *sess
		fn(&s)
	}
}
