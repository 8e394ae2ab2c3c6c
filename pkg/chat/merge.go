package chat

// Merge folds an insert event into the message list of roomID. Events for
// other rooms and already-present ids leave list unchanged. The list is not
// re-sorted; a new message is appended to a fresh slice so earlier
// snapshots stay valid.
func Merge(list []Message, roomID int64, msg Message) []Message {
	if msg.RoomID != roomID {
		return list
	}
	for _, m := range list {
		if m.ID == msg.ID {
			return list
		}
	}

	out := make([]Message, len(list), len(list)+1)
	copy(out, list)
	return append(out, msg)
}
