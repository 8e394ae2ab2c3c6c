package dto

type CreateRoomRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateMessageRequest struct {
	Content     string `json:"content" binding:"required"`
	AuthorID    string `json:"author_id" binding:"required"`
	AuthorEmail string `json:"author_email" binding:"required"`
	RoomID      int64  `json:"room_id" binding:"required"`
}
