package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionState(t *testing.T) {
	s := NewSessionState()
	assert.Nil(t, s.Get())

	var seen []*Session
	unsub := s.Subscribe(func(sess *Session) { seen = append(seen, sess) })

	s.Set(&Session{ID: "u1", Email: "a@b.io"})
	got := s.Get()
	require.NotNil(t, got)
	got.Email = "mutated"
	assert.Equal(t, "a@b.io", s.Get().Email)

	s.Set(nil)
	unsub()
	s.Set(&Session{ID: "u2"})

	require.Len(t, seen, 2)
	assert.Equal(t, "u1", seen[0].ID)
	assert.Nil(t, seen[1])
}

func TestRoomSelection(t *testing.T) {
	rs := NewRoomSelection()
	assert.Equal(t, &DefaultRoom, rs.Get())

	var order []string
	rs.Subscribe(func(*Room) { order = append(order, "first") })
	rs.Subscribe(func(*Room) { order = append(order, "second") })

	rs.Set(&Room{ID: 5, Name: "x"})
	assert.Equal(t, int64(5), rs.Get().ID)
	assert.Equal(t, []string{"first", "second"}, order)

	assert.Nil(t, NewRoomSelectionWith(nil).Get())
}

func TestValidate(t *testing.T) {
	err := Validate(SignInForm{})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Email is required", fe.For("email"))
	assert.Equal(t, "Password is required", fe.For("password"))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	assert.Equal(t, "Email is invalid", Validate(SignInForm{Email: "nope", Password: "x"}).(FieldErrors).For("email"))
	assert.NoError(t, Validate(SignInForm{Email: "a@b.io", Password: "x"}))
	assert.Error(t, Validate(RoomForm{Name: "   "}))
	assert.NoError(t, Validate(MessageForm{Message: "hi"}))
}
