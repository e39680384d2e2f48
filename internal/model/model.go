package model

import "time"

// Event is a single entry of the event source document. All fields are kept
// as raw strings; interpretation happens per render pass in
// internal/lifecycle.
type Event struct {
	Name        string `json:"name" yaml:"name"`
	Start       string `json:"start" yaml:"start"`
	End         string `json:"end,omitempty" yaml:"end,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Document is the top-level shape of the event source:
//
//	{ "events": [ ... ] }
type Document struct {
	Events []Event `json:"events"`
}

// Status is an event's position relative to the current instant.
type Status int

const (
	StatusUpcoming Status = iota
	StatusLive
	StatusPast
)

func (s Status) String() string {
	switch s {
	case StatusUpcoming:
		return "UPCOMING"
	case StatusLive:
		return "LIVE"
	case StatusPast:
		return "PAST"
	default:
		return "UNKNOWN"
	}
}

// Slug is the lower-case form used in CSS classes and JSON.
func (s Status) Slug() string {
	switch s {
	case StatusUpcoming:
		return "upcoming"
	case StatusLive:
		return "live"
	case StatusPast:
		return "past"
	default:
		return "unknown"
	}
}

// NormalizedEvent is an Event resolved against one render instant. It is
// rebuilt on every tick and never stored.
type NormalizedEvent struct {
	Source Event

	Start time.Time
	End   time.Time

	Status Status
}
