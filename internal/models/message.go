package models

import "time"

// Message строка таблицы messages. Имена json те же, что отдают REST и лента.
type Message struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Content     string    `gorm:"not null" json:"content"`
	AuthorID    string    `gorm:"not null" json:"author_id"`
	AuthorEmail string    `gorm:"not null" json:"author_email"`
	RoomID      int64     `gorm:"not null;index" json:"room_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
