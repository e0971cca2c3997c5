package util //nolint:revive // package name util hosts small filesystem and formatting helpers

import "time"

// FormatDuration formats a time.Duration for display, handling edge cases.
// Returns "—" for zero or negative durations, truncates to seconds above a minute
// and to milliseconds below.
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "—"
	case d < time.Millisecond:
		return d.String()
	case d < time.Minute:
		return d.Truncate(time.Millisecond).String()
	default:
		return d.Truncate(time.Second).String()
	}
}
