package source

import "eventboard/internal/model"

// Fallback returns the built-in dataset shown when the event source cannot
// be loaded. Each call returns a fresh slice.
func Fallback() []model.Event {
	return []model.Event{
		{
			Name:        "Health Camp",
			Start:       "2025-11-15T09:00:00",
			End:         "2025-11-15T17:00:00",
			Location:    "Seme Sub-County Hospital",
			Description: "A health outreach program with Red Cross, Aga Khan, and other partners.",
		},
		{
			Name:        "Agricultural Expo",
			Start:       "2025-12-02T10:00:00",
			End:         "2025-12-02T16:00:00",
			Location:    "Seme Resource Centre Grounds",
			Description: "An expo showcasing modern agricultural practices and innovations.",
		},
	}
}
