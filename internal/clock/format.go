// Package clock provides pure display formatting for durations and
// timestamps. All duration formatting floors to whole units; nothing here
// rounds up.
package clock

import (
	"fmt"
	"time"
)

// FormatDuration renders whole seconds as zero-padded HH:MM:SS.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// FormatDurationFriendly renders whole seconds as "Xm" under an hour and
// "Xh Ym" otherwise.
func FormatDurationFriendly(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// FormatTime renders a timestamp as a 12-hour wall-clock string.
func FormatTime(t time.Time) string {
	return t.Format("03:04:05 PM")
}

// FormatDate renders a timestamp as "Jan 02, 2006".
func FormatDate(t time.Time) string {
	return t.Format("Jan 02, 2006")
}
