package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// timestamp serializes a duration as HH:MM:SS<sep>mmm, the shared shape of
// SRT (comma separator) and WebVTT (dot separator) cue timings.
func timestamp(d time.Duration, sep byte) string {
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	ms := (d % time.Second) / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, ms)
}

var timestampRe = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})[.,](\d{3})$`)

// parseTimestamp reverses timestamp, accepting either separator.
func parseTimestamp(s string) (time.Duration, error) {
	m := timestampRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("timestamp %q: %w", s, ErrInvalidDocument)
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	se, _ := strconv.Atoi(m[3])
	ms, _ := strconv.Atoi(m[4])
	return time.Duration(h)*time.Hour +
		time.Duration(mi)*time.Minute +
		time.Duration(se)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}
