package chat

import "time"

// FormatClock renders a timestamp as local "HH:MM".
func FormatClock(t time.Time) string {
	return t.Local().Format("15:04")
}
