package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/thereayou/roomchat/pkg/chat"
)

var (
	selfStyle   = color.New(color.FgGreen, color.Bold).SprintFunc()
	authorStyle = color.New(color.FgCyan).SprintFunc()
	clockStyle  = color.New(color.FgHiBlack).SprintFunc()
	headerStyle = color.New(color.FgYellow, color.Bold).SprintFunc()
	errorStyle  = color.New(color.FgRed).SprintFunc()
)

func formatMessage(m chat.Message, selfID string) string {
	author := authorStyle(m.AuthorEmail)
	if m.AuthorID == selfID {
		author = selfStyle("You")
	}
	return fmt.Sprintf("%s %s: %s", clockStyle("["+chat.FormatClock(m.CreatedAt)+"]"), author, m.Content)
}

func formatRooms(rooms []chat.Room, current *chat.Room) string {
	if len(rooms) == 0 {
		return "No rooms yet. Create one with /create <name>."
	}
	var b strings.Builder
	for _, r := range rooms {
		marker := " "
		if current != nil && current.ID == r.ID {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %d  %s\n", marker, r.ID, r.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatError renders form errors field by field and anything else on one
// line.
func formatError(prefix string, err error) string {
	var fe chat.FieldErrors
	if errors.As(err, &fe) {
		lines := make([]string, len(fe))
		for i, e := range fe {
			lines[i] = errorStyle("  " + e.Message)
		}
		return strings.Join(lines, "\n")
	}
	var ve *chat.ValidationError
	if errors.As(err, &ve) {
		return errorStyle("  " + ve.Message)
	}
	return errorStyle(prefix + ": " + err.Error())
}

// messageView turns the stream of sync snapshots into lines to print. Lists
// only grow while a room stays selected, so it remembers how many messages
// it has printed.
type messageView struct {
	selfID    string
	selfEmail string
	roomID  int64
	hasRoom bool
	state   chat.SyncState
	printed int
}

func newMessageView() *messageView {
	return &messageView{state: chat.SyncIdle}
}

func roomHeader(room, email string) string {
	if email == "" {
		return "── #" + room + " ──"
	}
	return "── #" + room + " - " + email + " ──"
}

func (v *messageView) apply(snap chat.Snapshot) []string {
	var out []string

	switch {
	case snap.Room == nil && v.hasRoom:
		v.hasRoom = false
		v.printed = 0
	case snap.Room != nil && (!v.hasRoom || snap.Room.ID != v.roomID):
		v.hasRoom = true
		v.roomID = snap.Room.ID
		v.printed = 0
		out = append(out, headerStyle(roomHeader(snap.Room.Name, v.selfEmail)))
	}

	stateChanged := snap.State != v.state
	v.state = snap.State

	if len(snap.Messages) > v.printed {
		for _, m := range snap.Messages[v.printed:] {
			out = append(out, formatMessage(m, v.selfID))
		}
		v.printed = len(snap.Messages)
	}

	if !stateChanged {
		return out
	}
	switch snap.State {
	case chat.SyncIdle:
		if snap.Room == nil {
			out = append(out, "Please join or create a room first.")
		}
	case chat.SyncLoading:
		out = append(out, "Loading messages...")
	case chat.SyncLive:
		if len(snap.Messages) == 0 {
			out = append(out, "No messages yet. Say hi!")
		}
	case chat.SyncError:
		out = append(out, errorStyle(fmt.Sprintf("Error loading messages: %v", snap.Err)))
	case chat.SyncDisconnected:
		out = append(out, errorStyle(fmt.Sprintf("Live updates stopped: %v. Type /join to reconnect.", snap.Err)))
	}
	return out
}
