package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageType тип сообщения ленты
type MessageType string

const (
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"

	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypeSubscribed  MessageType = "subscribed"

	TypeInsert MessageType = "insert"
	TypeError  MessageType = "error"
)

// Таблицы, по которым приходят вставки
const (
	TableRooms    = "rooms"
	TableMessages = "messages"
)

// Message конверт ленты в обе стороны
type Message struct {
	Type      MessageType     `json:"type"`
	Table     string          `json:"table,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type Client struct {
	ID     uuid.UUID
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	Tables map[string]bool
	Hub    *Hub
	mu     sync.RWMutex
}

// Relay доставляет вставки на все инстансы. Без relay хаб рассылает только
// своим клиентам.
type Relay interface {
	Publish(ctx context.Context, table string, payload []byte) error
}

type Hub struct {
	clients map[uuid.UUID]*Client

	// Подписчики по таблицам
	tables map[string]map[uuid.UUID]*Client

	relay Relay
	log   *zap.Logger

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients: make(map[uuid.UUID]*Client),
		tables:  make(map[string]map[uuid.UUID]*Client),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetRelay направляет вставки через r. Вызывать до Run.
func (h *Hub) SetRelay(r Relay) {
	h.relay = r
}

// Run пингует клиентов, пока хаб не остановлен. Отмена ctx останавливает хаб.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Stop()
			return

		case <-h.ctx.Done():
			return

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop отключает всех клиентов, можно вызывать повторно
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.Send)
		client.Conn.Close()
		delete(h.clients, id)
	}
	h.tables = make(map[string]map[uuid.UUID]*Client)
}

// Register регистрирует клиента, после Stop возвращает ErrHubStopped
func (h *Hub) Register(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctx.Err() != nil {
		return ErrHubStopped
	}
	h.clients[client.ID] = client
	h.log.Debug("feed client registered", zap.String("client", client.ID.String()), zap.String("user", client.UserID))
	return nil
}

// Unregister удаляет клиента из всех таблиц и закрывает его канал
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.ID] != client {
		return
	}

	for table := range client.Tables {
		h.removeFromTableUnsafe(client, table)
	}
	delete(h.clients, client.ID)
	close(client.Send)

	h.log.Debug("feed client unregistered", zap.String("client", client.ID.String()), zap.String("user", client.UserID))
}

// Subscribe подписывает клиента на таблицу и ставит подтверждение в очередь
// раньше любой вставки.
func (h *Hub) Subscribe(client *Client, table string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.ID] != client {
		return ErrClientClosed
	}
	if _, ok := h.tables[table]; !ok {
		h.tables[table] = make(map[uuid.UUID]*Client)
	}
	h.tables[table][client.ID] = client

	client.mu.Lock()
	client.Tables[table] = true
	client.mu.Unlock()

	// Подтверждение ставится в очередь под h.mu: insert не может его обогнать.
	ack, err := json.Marshal(Message{Type: TypeSubscribed, Table: table, Timestamp: time.Now()})
	if err != nil {
		return err
	}
	select {
	case client.Send <- ack:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (h *Hub) Unsubscribe(client *Client, table string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromTableUnsafe(client, table)
}

func (h *Hub) removeFromTableUnsafe(client *Client, table string) {
	subs, ok := h.tables[table]
	if !ok {
		return
	}
	delete(subs, client.ID)
	if len(subs) == 0 {
		delete(h.tables, table)
	}

	client.mu.Lock()
	delete(client.Tables, table)
	client.mu.Unlock()
}

// PublishInsert рассылает новую строку подписчикам таблицы, через relay если
// он задан.
func (h *Hub) PublishInsert(ctx context.Context, table string, row interface{}) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(Message{
		Type:      TypeInsert,
		Table:     table,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}

	if h.relay != nil {
		return h.relay.Publish(ctx, table, payload)
	}
	h.SendToTable(table, payload)
	return nil
}

// SendToTable отправляет готовое сообщение локальным подписчикам
func (h *Hub) SendToTable(table string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.tables[table] {
		select {
		case client.Send <- payload:
		default:
			h.log.Warn("feed client send queue full", zap.String("client", client.ID.String()))
		}
	}
}

// enqueue кладет сообщение в канал клиента, если он еще зарегистрирован
func (h *Hub) enqueue(client *Client, payload []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.clients[client.ID] != client {
		return ErrClientClosed
	}
	select {
	case client.Send <- payload:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// SubscriberCount количество подписчиков таблицы
func (h *Hub) SubscriberCount(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tables[table])
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := Message{
		Type:      TypePing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(msg); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}
