package timeutil

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration the way the dashboards show accrued
// time, e.g. "2h 05m" or "45m". Negative durations clamp to zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

// Seconds truncates a duration to whole seconds for JSON payloads.
func Seconds(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
