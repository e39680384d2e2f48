package render

import (
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"eventboard/internal/lifecycle"
	"eventboard/internal/model"
)

// DefaultLayout renders e.g. "Sat, Nov 15, 2025, 9:00 AM".
const DefaultLayout = "Mon, Jan 02, 2006, 3:04 PM"

const (
	statusLineLive = "Event is live!"
	statusLinePast = "This event has passed."
	startsInPrefix = "Starts in: "
)

// Badge returns the fixed badge label for a status.
func Badge(s model.Status) string {
	switch s {
	case model.StatusUpcoming:
		return "Upcoming"
	case model.StatusLive:
		return "Live Now"
	default:
		return "Past"
	}
}

// Card is the display content of one event at one instant.
type Card struct {
	Status      model.Status `json:"-"`
	Title       string       `json:"title"`
	Badge       string       `json:"badge"`
	When        string       `json:"when"`
	Where       string       `json:"where,omitempty"`
	Description string       `json:"description"`
	StatusLine  string       `json:"status_line"`
}

// BuildCard produces the card for ne at now. layout formats the time range;
// empty means DefaultLayout.
func BuildCard(ne model.NormalizedEvent, now time.Time, layout string) Card {
	if layout == "" {
		layout = DefaultLayout
	}

	c := Card{
		Status:      ne.Status,
		Title:       ne.Source.Name,
		Badge:       Badge(ne.Status),
		When:        ne.Start.Format(layout) + " – " + ne.End.Format(layout),
		Where:       ne.Source.Location,
		Description: ne.Source.Description,
	}

	switch ne.Status {
	case model.StatusUpcoming:
		c.StatusLine = startsInPrefix + lifecycle.Countdown(ne.Start.Sub(now))
	case model.StatusLive:
		c.StatusLine = statusLineLive
	default:
		c.StatusLine = statusLinePast
	}
	return c
}

// Node builds the card's <article> tree. The location line is left out
// when empty; the description line is always present.
func (c Card) Node() *html.Node {
	card := element(atom.Article, "event-card status-"+c.Status.Slug(), "")

	titleRow := element(atom.Div, "event-title-row", "")
	titleRow.AppendChild(element(atom.H3, "event-title", c.Title))
	titleRow.AppendChild(element(atom.Span, "event-badge", c.Badge))
	card.AppendChild(titleRow)

	card.AppendChild(element(atom.P, "event-when", c.When))
	if c.Where != "" {
		card.AppendChild(element(atom.P, "event-where", c.Where))
	}
	card.AppendChild(element(atom.P, "event-desc", c.Description))
	card.AppendChild(element(atom.P, "event-status", c.StatusLine))
	return card
}
