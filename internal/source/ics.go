package source

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "eventboard/internal/log"
	"eventboard/internal/model"
)

// isICS reports whether a source should be decoded as iCalendar: either the
// path ends in .ics or the server said text/calendar.
func isICS(source, contentType string) bool {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/calendar") {
		return true
	}
	path := source
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.HasSuffix(strings.ToLower(path), ".ics")
}

// DecodeICS converts an iCalendar document into events. Each VEVENT
// becomes one event at its first occurrence; RRULEs are not expanded.
//
// Times are handed on as strings the normalizer understands:
//   - UTC or TZID date-times become RFC 3339 with an offset.
//   - Floating date-times stay local wall-clock.
//   - DATE values become a bare date (local midnight).
func DecodeICS(body []byte) ([]model.Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty calendar", ErrInvalidDocument)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	vevents := cal.Events()
	events := make([]model.Event, 0, len(vevents))
	for i, ve := range vevents {
		ev, ok := eventFromVEvent(ve)
		if !ok {
			appLog.Debug("vevent skipped: no usable DTSTART", "index", i)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func eventFromVEvent(ve *ical.VEvent) (model.Event, bool) {
	start := icsTime(ve.GetProperty(ical.ComponentPropertyDtStart))
	if start == "" {
		return model.Event{}, false
	}
	return model.Event{
		Name:        propValue(ve, ical.ComponentPropertySummary),
		Start:       start,
		End:         icsTime(ve.GetProperty(ical.ComponentPropertyDtEnd)),
		Location:    propValue(ve, ical.ComponentPropertyLocation),
		Description: propValue(ve, ical.ComponentPropertyDescription),
	}, true
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

const (
	icsDate      = "20060102"
	icsLocal     = "20060102T150405"
	icsUTC       = "20060102T150405Z"
	wallClock    = "2006-01-02T15:04:05"
	calendarDate = "2006-01-02"
)

// icsTime renders a DTSTART/DTEND property value, or "" when absent or
// unparsable.
func icsTime(p *ical.IANAProperty) string {
	if p == nil {
		return ""
	}
	v := strings.TrimSpace(p.Value)

	tzid := ""
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		tzid = tzs[0]
	}

	switch {
	case len(v) == len(icsDate):
		t, err := time.Parse(icsDate, v)
		if err != nil {
			return ""
		}
		return t.Format(calendarDate)
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse(icsUTC, v)
		if err != nil {
			return ""
		}
		return t.Format(time.RFC3339)
	case tzid != "":
		if loc, err := time.LoadLocation(tzid); err == nil {
			t, err := time.ParseInLocation(icsLocal, v, loc)
			if err != nil {
				return ""
			}
			return t.Format(time.RFC3339)
		}
		appLog.Debug("unknown TZID; treating time as local", "tzid", tzid)
	}

	t, err := time.Parse(icsLocal, v)
	if err != nil {
		return ""
	}
	return t.Format(wallClock)
}
