package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	// Клиенты шлют только короткие служебные сообщения
	maxMessageSize = 4 * 1024
)

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Tables: make(map[string]bool),
		Hub:    hub,
	}
}

// ReadPump читает сообщения от клиента: подписки и pong
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.Conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("feed read failed", zap.String("client", c.ID.String()), zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case TypePong:
			c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		case TypeSubscribe:
			if !isKnownTable(msg.Table) {
				c.SendError(ErrUnknownTable.Error())
				continue
			}
			if err := c.Hub.Subscribe(c, msg.Table); err != nil {
				return
			}

		case TypeUnsubscribe:
			c.Hub.Unsubscribe(c, msg.Table)

		default:
			c.SendError(ErrInvalidMessage.Error())
		}
	}
}

// WritePump отправляет сообщения клиенту и пингует соединение
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Хаб закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendMessage(msgType MessageType, table string, data interface{}) error {
	msg := Message{
		Type:      msgType,
		Table:     table,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		msg.Data = jsonData
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return c.Hub.enqueue(c, msgData)
}

func (c *Client) SendError(errorMsg string) {
	c.SendMessage(TypeError, "", map[string]string{
		"error": errorMsg,
	})
}

// IsSubscribed проверяет, подписан ли клиент на таблицу
func (c *Client) IsSubscribed(table string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Tables[table]
}

func isKnownTable(table string) bool {
	return table == TableRooms || table == TableMessages
}
