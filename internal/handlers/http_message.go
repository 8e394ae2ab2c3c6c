package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/handlers/dto"
	"github.com/thereayou/roomchat/internal/middleware"
	"github.com/thereayou/roomchat/internal/models"
	"github.com/thereayou/roomchat/internal/websocket"
)

type HTTPMessageHandler struct {
	db  *database.Database
	hub *websocket.Hub
	log *zap.Logger
}

func NewHTTPMessageHandler(db *database.Database, hub *websocket.Hub, log *zap.Logger) *HTTPMessageHandler {
	return &HTTPMessageHandler{db: db, hub: hub, log: log}
}

// GetRoomMessages получает историю сообщений комнаты
func (h *HTTPMessageHandler) GetRoomMessages(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if _, err := h.db.GetRoom(roomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get room"})
		return
	}

	messages, err := h.db.GetRoomMessages(roomID)
	if err != nil {
		h.log.Error("get room messages failed", zap.Int64("room", roomID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage сохраняет сообщение и публикует его в ленту messages.
// Отправитель получает свое сообщение через ленту, как и все остальные.
func (h *HTTPMessageHandler) SendMessage(c *gin.Context) {
	var req dto.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.AuthorID != c.GetString(middleware.UserIDKey) ||
		!strings.EqualFold(strings.TrimSpace(req.AuthorEmail), c.GetString(middleware.UserEmailKey)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "author does not match the signed-in user"})
		return
	}

	if _, err := h.db.GetRoom(req.RoomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get room"})
		return
	}

	message := &models.Message{
		Content:     req.Content,
		AuthorID:    req.AuthorID,
		AuthorEmail: c.GetString(middleware.UserEmailKey),
		RoomID:      req.RoomID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.db.SaveMessage(message); err != nil {
		h.log.Error("save message failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
		return
	}

	if err := h.hub.PublishInsert(c.Request.Context(), websocket.TableMessages, message); err != nil {
		h.log.Warn("publish message insert failed", zap.Int64("message", message.ID), zap.Error(err))
	}

	if err := h.db.UpdateLastSeen(req.AuthorID); err != nil {
		h.log.Warn("update last seen failed", zap.String("user", req.AuthorID), zap.Error(err))
	}

	c.JSON(http.StatusCreated, message)
}
