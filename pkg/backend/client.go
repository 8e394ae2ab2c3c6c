package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thereayou/roomchat/pkg/chat"
)

var (
	_ chat.RowStore   = (*Client)(nil)
	_ chat.Identity   = (*Client)(nil)
	_ chat.ChangeFeed = (*Client)(nil)
)

type Config struct {
	// BaseURL of the roomchat server, e.g. "http://localhost:8080".
	BaseURL string
	Timeout time.Duration
	Log     *zap.Logger
}

// Client talks to a roomchat server over REST and its realtime feed. It
// keeps the access token of the signed-in user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger

	mu        sync.RWMutex
	token     string
	session   *chat.Session
	nextObsID int
	observers map[int]func(*chat.Session)
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        cfg.Log,
		observers:  make(map[int]func(*chat.Session)),
	}
}

// SetHTTPClient replaces the HTTP client, e.g. with a test server's.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// SetToken restores a saved access token. CurrentSession validates it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) ListRooms(ctx context.Context) ([]chat.Room, error) {
	var rooms []chat.Room
	if err := c.do(ctx, http.MethodGet, "/rest/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) InsertRoom(ctx context.Context, name string) (chat.Room, error) {
	var room chat.Room
	err := c.do(ctx, http.MethodPost, "/rest/rooms", map[string]string{"name": name}, &room)
	return room, err
}

func (c *Client) ListMessages(ctx context.Context, roomID int64) ([]chat.Message, error) {
	var msgs []chat.Message
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/rest/rooms/%d/messages", roomID), nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) InsertMessage(ctx context.Context, draft chat.Draft) (chat.Message, error) {
	var msg chat.Message
	err := c.do(ctx, http.MethodPost, "/rest/messages", draft, &msg)
	return msg, err
}

// do sends a JSON request with the bearer token, if any, and decodes the
// response into dest. Non-2xx answers become *chat.RemoteError.
func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &chat.RemoteError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &chat.RemoteError{Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}
	return &chat.RemoteError{Status: resp.StatusCode, Message: body.Error}
}
