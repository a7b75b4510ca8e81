// Package format provides display helpers for durations and time ranges.
package format

import (
	"fmt"
	"time"
)

// Duration formats a duration as HH:MM:SS or MM:SS.
func Duration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Seconds formats a duration as fractional seconds with centisecond
// precision, e.g. "12.50s". Used in prompts and log fields where the
// collaborator and auditors reason in seconds.
func Seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// Range formats a time interval as "12.50s-15.00s".
func Range(start, end time.Duration) string {
	return fmt.Sprintf("%s-%s", Seconds(start), Seconds(end))
}
