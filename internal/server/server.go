package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thereayou/roomchat/internal/config"
	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/websocket"
	"github.com/thereayou/roomchat/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	Hub        *websocket.Hub
	Relay      *websocket.RedisRelay
	JWTManager *auth.JWTManager

	cfg *config.Config
	log *zap.Logger
}

// NewServer подключает базу и, если задан REDIS_URL, Redis. Без Redis черный
// список токенов и рассылка изменений живут внутри процесса.
func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.Database.Driver, cfg.Database.URL); err != nil {
		return nil, fmt.Errorf("database connect: %w", err)
	}

	hub := websocket.NewHub(log)
	var revocations auth.Revocations = auth.NewMemoryRevocations()

	s := &Server{
		DB:         dbConn,
		Hub:        hub,
		JWTManager: auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		cfg:        cfg,
		log:        log,
	}

	if cfg.App.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis connect: %w", err)
		}

		s.Redis = rdb
		s.Relay = websocket.NewRedisRelay(rdb, hub, log)
		hub.SetRelay(s.Relay)
		revocations = auth.NewRedisRevocations(rdb)
	} else {
		log.Info("REDIS_URL not set, running single-instance")
	}

	s.Router = NewRouter(Deps{
		DB:             dbConn,
		Hub:            hub,
		JWTManager:     s.JWTManager,
		Revocations:    revocations,
		AllowedOrigins: cfg.App.AllowedOrigins,
		Log:            log,
	})

	return s, nil
}

// Run запускает HTTP, хаб и Redis relay, пока не отменен ctx или кто-то из
// них не упал.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              ":" + s.cfg.App.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Hub.Run(ctx)
		return nil
	})

	if s.Relay != nil {
		g.Go(func() error {
			return s.Relay.Run(ctx)
		})
	}

	g.Go(func() error {
		s.log.Info("server starting", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.close()
	return err
}

func (s *Server) close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.log.Warn("redis close failed", zap.Error(err))
		}
	}
	if err := s.DB.Close(); err != nil {
		s.log.Warn("database close failed", zap.Error(err))
	}
}
