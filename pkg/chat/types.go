package chat

import "time"

// Session is the signed-in identity. A nil *Session means signed out.
type Session struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Room is a named channel messages belong to.
type Room struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Message is an immutable chat line.
type Message struct {
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	AuthorID    string    `json:"author_id"`
	AuthorEmail string    `json:"author_email"`
	RoomID      int64     `json:"room_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Draft is a message before the backend assigns its id and timestamp.
type Draft struct {
	Content     string `json:"content"`
	AuthorID    string `json:"author_id"`
	AuthorEmail string `json:"author_email"`
	RoomID      int64  `json:"room_id"`
}

// Credentials are what sign-in and sign-up take.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DefaultRoom is selected before the user picks anything. The backend is
// expected to hold it; callers must cope with a not-found error if not.
var DefaultRoom = Room{ID: 1, Name: "General"}
