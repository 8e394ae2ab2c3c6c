package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/handlers/dto"
	"github.com/thereayou/roomchat/internal/models"
	"github.com/thereayou/roomchat/internal/websocket"
)

type RoomHandler struct {
	db  *database.Database
	hub *websocket.Hub
	log *zap.Logger
}

func NewRoomHandler(db *database.Database, hub *websocket.Hub, log *zap.Logger) *RoomHandler {
	return &RoomHandler{db: db, hub: hub, log: log}
}

// ListRooms получает список комнат
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.db.ListRooms()
	if err != nil {
		h.log.Error("list rooms failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rooms"})
		return
	}

	c.JSON(http.StatusOK, rooms)
}

// CreateRoom создает новую комнату и публикует ее в ленту rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room name is required"})
		return
	}

	room := &models.Room{Name: name}
	if err := h.db.CreateRoom(room); err != nil {
		h.log.Error("create room failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	if err := h.hub.PublishInsert(c.Request.Context(), websocket.TableRooms, room); err != nil {
		h.log.Warn("publish room insert failed", zap.Int64("room", room.ID), zap.Error(err))
	}

	c.JSON(http.StatusCreated, room)
}
