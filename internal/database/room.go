package database

import (
	"github.com/thereayou/roomchat/internal/models"
)

func (d *Database) CreateRoom(room *models.Room) error {
	return d.db.Create(room).Error
}

func (d *Database) GetRoom(id int64) (*models.Room, error) {
	var room models.Room
	if err := d.db.First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms получает все комнаты по порядку id, без пагинации
func (d *Database) ListRooms() ([]models.Room, error) {
	var rooms []models.Room
	if err := d.db.Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}
