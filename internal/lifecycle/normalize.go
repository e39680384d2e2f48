package lifecycle

import (
	"errors"
	"strings"
	"time"

	appLog "eventboard/internal/log"
	"eventboard/internal/model"
)

// DefaultDuration is used when an event has no usable end.
const DefaultDuration = 8 * time.Hour

// Layouts tried, in order, for timestamps without a zone designator.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var errEmptyTime = errors.New("empty time value")

// ParseTime parses an event timestamp. Values carrying an offset or a
// trailing Z are taken as given; anything else is wall-clock time in loc
// (time.Local when loc is nil).
//
// A bare date ("2006-01-02") is midnight in loc, like every other value
// without a zone. Browsers read that form as UTC midnight instead.
func ParseTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errEmptyTime
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}

	var firstErr error
	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, v, loc)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// Normalizer resolves raw events into NormalizedEvents for one render pass.
type Normalizer struct {
	// Location interprets timestamps without a zone and is the display zone
	// of the normalized times. Nil means time.Local.
	Location *time.Location

	// DefaultDuration replaces a missing or unparsable end. Zero means
	// DefaultDuration.
	DefaultDuration time.Duration
}

func (n Normalizer) location() *time.Location {
	if n.Location == nil {
		return time.Local
	}
	return n.Location
}

func (n Normalizer) duration() time.Duration {
	if n.DefaultDuration <= 0 {
		return DefaultDuration
	}
	return n.DefaultDuration
}

// Normalize parses ev against now. The second result is false when the
// event's start cannot be parsed; such events are left out of the pass.
func (n Normalizer) Normalize(ev model.Event, now time.Time) (model.NormalizedEvent, bool) {
	loc := n.location()
	start, err := ParseTime(ev.Start, loc)
	if err != nil {
		appLog.Debug("event skipped: unparsable start", "name", ev.Name, "start", ev.Start)
		return model.NormalizedEvent{}, false
	}

	end := start.Add(n.duration())
	if ev.End != "" {
		if parsed, err := ParseTime(ev.End, loc); err == nil {
			end = parsed
		} else {
			appLog.Debug("event end unparsable; using default duration", "name", ev.Name, "end", ev.End)
		}
	}

	// Offset-carrying inputs keep their own zone after parsing; cards show
	// wall-clock time in loc.
	start, end = start.In(loc), end.In(loc)

	return model.NormalizedEvent{
		Source: ev,
		Start:  start,
		End:    end,
		Status: Classify(now, start, end),
	}, true
}

// NormalizeAll normalizes events in input order, dropping excluded ones.
func (n Normalizer) NormalizeAll(events []model.Event, now time.Time) []model.NormalizedEvent {
	out := make([]model.NormalizedEvent, 0, len(events))
	for _, ev := range events {
		if ne, ok := n.Normalize(ev, now); ok {
			out = append(out, ne)
		}
	}
	return out
}
