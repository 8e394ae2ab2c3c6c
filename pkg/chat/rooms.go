package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type RoomDirectory struct {
	store RowStore
	log   *zap.Logger
}

func NewRoomDirectory(store RowStore, log *zap.Logger) *RoomDirectory {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomDirectory{store: store, log: log}
}

// ListRooms returns every room in backend order.
func (d *RoomDirectory) ListRooms(ctx context.Context) ([]Room, error) {
	rooms, err := d.store.ListRooms(ctx)
	if err != nil {
		d.log.Warn("list rooms failed", zap.Error(err))
		return nil, remoteError("list rooms", err)
	}
	return rooms, nil
}

// CreateRoom inserts a room and returns it as stored. It does not change
// the selection.
func (d *RoomDirectory) CreateRoom(ctx context.Context, name string) (Room, error) {
	if err := Validate(RoomForm{Name: name}); err != nil {
		return Room{}, err
	}

	room, err := d.store.InsertRoom(ctx, strings.TrimSpace(name))
	if err != nil {
		d.log.Warn("create room failed", zap.String("name", name), zap.Error(err))
		return Room{}, remoteError("create room", err)
	}
	d.log.Info("room created", zap.Int64("room", room.ID), zap.String("name", room.Name))
	return room, nil
}
