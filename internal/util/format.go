// Package util holds small formatting helpers shared by the command-line tools.
package util //nolint:revive // package name util hosts shared formatting helpers

import "time"

// FormatAge renders how long ago t was, relative to now, for tabular output.
// Returns "-" for a zero or future t. Ages under a minute keep millisecond
// precision; longer ones are truncated to whole seconds.
func FormatAge(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return FormatDuration(now.Sub(t))
}

// FormatDuration formats d with the same rules as FormatAge.
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Millisecond:
		return d.String()
	case d < time.Minute:
		return d.Truncate(time.Millisecond).String()
	default:
		return d.Truncate(time.Second).String()
	}
}
