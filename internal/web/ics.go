package web

import (
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"eventboard/internal/model"
)

// uidNamespace scopes event UIDs so the same event always exports with the
// same UID across requests and restarts.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:eventboard:events"))

// EventUID derives a stable iCalendar UID from an event's name and start.
func EventUID(ne model.NormalizedEvent) string {
	key := ne.Source.Name + "\x00" + ne.Start.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@eventboard"
}

// BuildCalendar exports normalized events as a VCALENDAR. Event order
// follows the input.
func BuildCalendar(events []model.NormalizedEvent, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//eventboard//Community Events//EN")
	cal.SetXWRCalName("Community Events")

	for _, ne := range events {
		ev := cal.AddEvent(EventUID(ne))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(ne.Start.UTC())
		ev.SetEndAt(ne.End.UTC())
		ev.SetSummary(ne.Source.Name)
		if ne.Source.Location != "" {
			ev.SetLocation(ne.Source.Location)
		}
		if ne.Source.Description != "" {
			ev.SetDescription(ne.Source.Description)
		}
	}
	return cal
}

// handleICS exports the cached events. Unparsable events are left out, the
// same as on the board.
//
// GET /events.ics
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	events, loaded := s.board.Events()
	if !loaded {
		http.Error(w, "events are still loading", http.StatusServiceUnavailable)
		return
	}

	now := s.board.Now()
	normalized := s.board.Renderer().Normalizer.NormalizeAll(events, now)
	cal := BuildCalendar(normalized, now)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(cal.Serialize()))
}
