// Package lifecycle derives an event's status from wall-clock time.
package lifecycle

import (
	"fmt"
	"time"

	"eventboard/internal/model"
)

// Classify maps (now, start, end) to a status using the half-open window
// [start, end): now == start is live, now == end is past.
//
// A malformed event with end < start has an empty window and goes straight
// from upcoming to past.
func Classify(now, start, end time.Time) model.Status {
	if now.Before(start) {
		return model.StatusUpcoming
	}
	if now.Before(end) {
		return model.StatusLive
	}
	return model.StatusPast
}

const zeroCountdown = "0d 0h 0m 0s"

// Countdown renders a remaining duration as "{d}d {h}h {m}m {s}s", truncating
// each unit. Zero and negative durations render as "0d 0h 0m 0s".
func Countdown(d time.Duration) string {
	if d <= 0 {
		return zeroCountdown
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}
