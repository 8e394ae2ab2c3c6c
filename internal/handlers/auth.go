package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/handlers/dto"
	"github.com/thereayou/roomchat/internal/middleware"
	"github.com/thereayou/roomchat/internal/models"
	"github.com/thereayou/roomchat/pkg/auth"
)

type AuthHandler struct {
	db          *database.Database
	jwtManager  *auth.JWTManager
	revocations auth.Revocations
	log         *zap.Logger
}

func NewAuthHandler(db *database.Database, jwtMgr *auth.JWTManager, revocations auth.Revocations, log *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, jwtManager: jwtMgr, revocations: revocations, log: log}
}

// SignUp регистрирует пользователя и сразу выдает токен
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := normalizeEmail(req.Email)

	if _, err := h.db.FindUserByEmail(email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user already registered"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		h.log.Error("lookup user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot hash password"})
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		LastSeenAt:   now,
		CreatedAt:    now,
	}

	if err := h.db.SaveUser(user); err != nil {
		h.log.Error("save user failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create user"})
		return
	}

	h.respondSession(c, http.StatusCreated, user)
}

// SignIn проверяет пароль и выдает токен
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.db.FindUserByEmail(normalizeEmail(req.Email))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid login credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid login credentials"})
		return
	}

	if err := h.db.UpdateLastSeen(user.ID.String()); err != nil {
		h.log.Warn("update last seen failed", zap.String("user", user.ID.String()), zap.Error(err))
	}

	h.respondSession(c, http.StatusOK, user)
}

// SignOut добавляет токен в черный список до истечения его срока
func (h *AuthHandler) SignOut(c *gin.Context) {
	rawToken := c.GetString(middleware.TokenKey)

	exp, err := h.jwtManager.Expiry(rawToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.revocations.Revoke(c.Request.Context(), rawToken, time.Until(exp)); err != nil {
		h.log.Error("revoke token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign out"})
		return
	}

	c.Status(http.StatusNoContent)
}

// CurrentUser возвращает информацию о текущем пользователе
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	user, err := h.db.GetUser(c.GetString(middleware.UserIDKey))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, dto.UserInfo{ID: user.ID.String(), Email: user.Email})
}

func (h *AuthHandler) respondSession(c *gin.Context, status int, user *models.User) {
	token, exp, err := h.jwtManager.Generate(user.ID.String(), user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(status, dto.SessionResponse{
		AccessToken: token,
		ExpiresAt:   exp,
		User:        dto.UserInfo{ID: user.ID.String(), Email: user.Email},
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
