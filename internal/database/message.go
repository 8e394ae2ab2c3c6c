package database

import (
	"github.com/thereayou/roomchat/internal/models"
)

func (d *Database) SaveMessage(message *models.Message) error {
	return d.db.Create(message).Error
}

// GetRoomMessages получает все сообщения комнаты, старые первыми. При
// одинаковом created_at порядок по id.
func (d *Database) GetRoomMessages(roomID int64) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}
