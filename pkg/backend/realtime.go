package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thereayou/roomchat/pkg/chat"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	maxFrameSize     = 1 << 20
)

type feedEnvelope struct {
	Type      string          `json:"type"`
	Table     string          `json:"table,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

var ErrSubscribeRejected = errors.New("subscription rejected")

// Subscribe opens a feed connection following table and returns once the
// server has acknowledged it. Each subscription owns its connection.
func (c *Client) Subscribe(ctx context.Context, table string, onInsert func(json.RawMessage), onStatus func(chat.FeedStatus, error)) (chat.Subscription, error) {
	wsURL, err := c.feedURL()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		re := &chat.RemoteError{Message: "connect to live feed", Err: err}
		if resp != nil {
			re.Status = resp.StatusCode
		}
		return nil, re
	}
	conn.SetReadLimit(maxFrameSize)

	sub := &feedSubscription{
		conn:     conn,
		table:    table,
		onInsert: onInsert,
		onStatus: onStatus,
		log:      c.log.With(zap.String("table", table)),
		done:     make(chan struct{}),
	}

	if err := sub.handshake(ctx); err != nil {
		conn.Close()
		return nil, &chat.RemoteError{Message: "subscribe " + table, Err: err}
	}

	go sub.readLoop()
	if onStatus != nil {
		onStatus(chat.FeedSubscribed, nil)
	}
	return sub, nil
}

func (c *Client) feedURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime"
	return u.String(), nil
}

type feedSubscription struct {
	conn     *websocket.Conn
	table    string
	onInsert func(json.RawMessage)
	onStatus func(chat.FeedStatus, error)
	log      *zap.Logger

	writeMu sync.Mutex

	// Inserts that arrived before the ack, replayed first by readLoop.
	early []json.RawMessage

	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
	done      chan struct{}
}

func (s *feedSubscription) handshake(ctx context.Context) error {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := s.write(feedEnvelope{Type: "subscribe", Table: s.table}); err != nil {
		return err
	}

	s.conn.SetReadDeadline(deadline)
	defer s.conn.SetReadDeadline(time.Time{})
	for {
		var env feedEnvelope
		if err := s.conn.ReadJSON(&env); err != nil {
			return err
		}
		switch env.Type {
		case "subscribed":
			if env.Table == s.table {
				return nil
			}
		case "insert":
			if env.Table == s.table {
				s.early = append(s.early, env.Data)
			}
		case "error":
			return fmt.Errorf("%w: %s", ErrSubscribeRejected, string(env.Data))
		case "ping":
			if err := s.write(feedEnvelope{Type: "pong"}); err != nil {
				return err
			}
		}
	}
}

func (s *feedSubscription) readLoop() {
	defer close(s.done)

	for _, data := range s.early {
		if s.isClosed() {
			return
		}
		s.onInsert(data)
	}
	s.early = nil

	for {
		var env feedEnvelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if s.isClosed() {
				return
			}
			s.log.Warn("live feed dropped", zap.Error(err))
			if s.onStatus != nil {
				s.onStatus(chat.FeedDisconnected, err)
			}
			return
		}

		switch env.Type {
		case "insert":
			if env.Table != s.table || s.isClosed() {
				continue
			}
			s.onInsert(env.Data)
		case "ping":
			if err := s.write(feedEnvelope{Type: "pong"}); err != nil {
				s.log.Debug("pong failed", zap.Error(err))
			}
		case "error":
			s.log.Warn("live feed error", zap.ByteString("data", env.Data))
		}
	}
}

func (s *feedSubscription) write(env feedEnvelope) error {
	env.Timestamp = time.Now()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(env)
}

func (s *feedSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close ends the subscription and waits for its reader to stop. No callback
// runs after Close returns.
func (s *feedSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		_ = s.write(feedEnvelope{Type: "unsubscribe", Table: s.table})
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = s.conn.Close()
		<-s.done

		if s.onStatus != nil {
			s.onStatus(chat.FeedClosed, nil)
		}
	})
	return err
}
