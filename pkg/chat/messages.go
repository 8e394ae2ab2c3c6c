package chat

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

type MessageService struct {
	store RowStore
	log   *zap.Logger
}

func NewMessageService(store RowStore, log *zap.Logger) *MessageService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessageService{store: store, log: log}
}

// ListMessages returns the room's history, oldest first. Equal timestamps
// keep backend order.
func (s *MessageService) ListMessages(ctx context.Context, roomID int64) ([]Message, error) {
	msgs, err := s.store.ListMessages(ctx, roomID)
	if err != nil {
		return nil, remoteError("list messages", err)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

// SendMessage inserts a draft. Blank content is rejected without a request.
// The sent message reaches views through the change feed, not through this
// call.
func (s *MessageService) SendMessage(ctx context.Context, draft Draft) error {
	if err := Validate(MessageForm{Message: draft.Content}); err != nil {
		return err
	}

	msg, err := s.store.InsertMessage(ctx, draft)
	if err != nil {
		s.log.Warn("send message failed", zap.Int64("room", draft.RoomID), zap.Error(err))
		return remoteError("send message", err)
	}
	s.log.Debug("message sent", zap.Int64("id", msg.ID), zap.Int64("room", msg.RoomID))
	return nil
}
