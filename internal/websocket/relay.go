package websocket

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const relayChannel = "roomchat:changes"

type relayEnvelope struct {
	Table   string          `json:"table"`
	Payload json.RawMessage `json:"payload"`
}

// RedisRelay рассылает вставки через Redis Pub/Sub, чтобы клиенты любого
// инстанса видели все вставки, включая вставки своего инстанса.
type RedisRelay struct {
	rdb *redis.Client
	hub *Hub
	log *zap.Logger
}

func NewRedisRelay(rdb *redis.Client, hub *Hub, log *zap.Logger) *RedisRelay {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisRelay{rdb: rdb, hub: hub, log: log}
}

func (r *RedisRelay) Publish(ctx context.Context, table string, payload []byte) error {
	data, err := json.Marshal(relayEnvelope{Table: table, Payload: payload})
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, relayChannel, data).Err()
}

// Run передает вставки из Redis в локальный хаб, пока не отменен ctx
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.rdb.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	r.log.Info("change relay subscribed", zap.String("channel", relayChannel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			r.deliver(m.Payload)
		}
	}
}

func (r *RedisRelay) deliver(raw string) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		r.log.Warn("dropping malformed relay message", zap.Error(err))
		return
	}
	r.hub.SendToTable(env.Table, env.Payload)
}
