package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	base := []Message{{ID: 1, RoomID: 2, Content: "a"}, {ID: 2, RoomID: 2, Content: "b"}}

	t.Run("appends new message of the room", func(t *testing.T) {
		got := Merge(base, 2, Message{ID: 3, RoomID: 2, Content: "c"})
		assert.Len(t, got, 3)
		assert.Equal(t, int64(3), got[2].ID)
		assert.Len(t, base, 2)
	})

	t.Run("ignores other rooms", func(t *testing.T) {
		got := Merge(base, 2, Message{ID: 3, RoomID: 1})
		assert.Equal(t, base, got)
	})

	t.Run("deduplicates by id", func(t *testing.T) {
		got := Merge(base, 2, Message{ID: 2, RoomID: 2, Content: "changed"})
		assert.Equal(t, base, got)
		assert.Equal(t, "b", got[1].Content)
	})

	t.Run("idempotent", func(t *testing.T) {
		m := Message{ID: 9, RoomID: 2}
		once := Merge(base, 2, m)
		twice := Merge(once, 2, m)
		assert.Equal(t, once, twice)
	})

	t.Run("does not resort", func(t *testing.T) {
		got := Merge(nil, 2, Message{ID: 10, RoomID: 2})
		got = Merge(got, 2, Message{ID: 4, RoomID: 2})
		assert.Equal(t, []int64{10, 4}, []int64{got[0].ID, got[1].ID})
	})
}
