package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/handlers"
	"github.com/thereayou/roomchat/internal/middleware"
	"github.com/thereayou/roomchat/internal/websocket"
	"github.com/thereayou/roomchat/pkg/auth"
)

// Deps все, что нужно HTTP API.
type Deps struct {
	DB             *database.Database
	Hub            *websocket.Hub
	JWTManager     *auth.JWTManager
	Revocations    auth.Revocations
	AllowedOrigins []string
	Log            *zap.Logger
}

func APIEndpoints(r *gin.Engine, d Deps) {
	authH := handlers.NewAuthHandler(d.DB, d.JWTManager, d.Revocations, d.Log)
	roomH := handlers.NewRoomHandler(d.DB, d.Hub, d.Log)
	msgH := handlers.NewHTTPMessageHandler(d.DB, d.Hub, d.Log)
	wsH := handlers.NewWebSocketHandler(d.Hub, d.AllowedOrigins, d.Log)

	requireAuth := middleware.AuthMiddleware(d.JWTManager, d.Revocations)

	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", authH.SignUp)
		authGroup.POST("/signin", authH.SignIn)
		authGroup.POST("/signout", requireAuth, authH.SignOut)
		authGroup.GET("/user", requireAuth, authH.CurrentUser)
	}

	// Таблицы
	rest := r.Group("/rest", requireAuth)
	{
		rest.GET("/rooms", roomH.ListRooms)
		rest.POST("/rooms", roomH.CreateRoom)
		rest.GET("/rooms/:id/messages", msgH.GetRoomMessages)
		rest.POST("/messages", msgH.SendMessage)
	}

	// Лента изменений
	r.GET("/realtime", middleware.WSAuthMiddleware(d.JWTManager, d.Revocations), wsH.HandleWebSocket)
}

// NewRouter собирает gin engine с recovery и логированием запросов.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Log))
	APIEndpoints(r, d)
	return r
}
