// Package render turns normalized events into display-node trees and mounts
// them into host documents.
package render

import (
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"eventboard/internal/lifecycle"
	"eventboard/internal/model"
)

// Empty-state messages.
const (
	EmptyUpcomingMessage = "No upcoming events at the moment."
	EmptyPastMessage     = "No past events yet."
)

// Pass is one render pass: a single instant and the buckets derived from it.
type Pass struct {
	Now     time.Time
	Buckets Buckets
}

// Renderer builds region content from raw events.
type Renderer struct {
	Normalizer lifecycle.Normalizer
	// Layout formats card time ranges; empty means DefaultLayout.
	Layout string
}

// Prepare normalizes, classifies and partitions events against now.
func (r *Renderer) Prepare(events []model.Event, now time.Time) Pass {
	return Pass{
		Now:     now,
		Buckets: Partition(r.Normalizer.NormalizeAll(events, now)),
	}
}

// Cards returns the cards of a bucket in order.
func (r *Renderer) Cards(events []model.NormalizedEvent, now time.Time) []Card {
	cards := make([]Card, 0, len(events))
	for _, ne := range events {
		cards = append(cards, BuildCard(ne, now, r.Layout))
	}
	return cards
}

// UpcomingView is the content of the upcoming region: live cards first,
// then upcoming cards, or the empty-state message when both are empty.
func (r *Renderer) UpcomingView(p Pass) *html.Node {
	if len(p.Buckets.Live) == 0 && len(p.Buckets.Upcoming) == 0 {
		return element(atom.P, "empty-msg", EmptyUpcomingMessage)
	}
	grid := element(atom.Div, "events-grid", "")
	for _, c := range r.Cards(p.Buckets.Live, p.Now) {
		grid.AppendChild(c.Node())
	}
	for _, c := range r.Cards(p.Buckets.Upcoming, p.Now) {
		grid.AppendChild(c.Node())
	}
	return grid
}

// PastView is the content of the past region.
func (r *Renderer) PastView(p Pass) *html.Node {
	if len(p.Buckets.Past) == 0 {
		return element(atom.P, "empty-msg", EmptyPastMessage)
	}
	grid := element(atom.Div, "events-grid", "")
	for _, c := range r.Cards(p.Buckets.Past, p.Now) {
		grid.AppendChild(c.Node())
	}
	return grid
}

// Mount replaces the content of every region present in doc. It reports
// false, touching nothing, when doc has no regions.
func (r *Renderer) Mount(doc *Document, p Pass) bool {
	up := doc.Region(UpcomingRegionID)
	past := doc.Region(PastRegionID)
	if up == nil && past == nil {
		return false
	}

	if up != nil {
		clearChildren(up)
		up.AppendChild(r.UpcomingView(p))
	}
	if past != nil {
		clearChildren(past)
		past.AppendChild(r.PastView(p))
	}
	return true
}

// Render prepares a pass and mounts it into doc.
func (r *Renderer) Render(doc *Document, events []model.Event, now time.Time) Pass {
	p := r.Prepare(events, now)
	r.Mount(doc, p)
	return p
}
