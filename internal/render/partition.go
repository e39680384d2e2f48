package render

import (
	"slices"

	"eventboard/internal/model"
)

// Buckets holds one tick's events grouped by status.
type Buckets struct {
	Upcoming []model.NormalizedEvent
	Live     []model.NormalizedEvent
	Past     []model.NormalizedEvent
}

// Len returns the number of events across all buckets.
func (b Buckets) Len() int {
	return len(b.Upcoming) + len(b.Live) + len(b.Past)
}

// Partition splits events by status. Upcoming and live are ordered by start
// ascending, past by end descending. Equal keys keep input order.
func Partition(events []model.NormalizedEvent) Buckets {
	var b Buckets
	for _, ne := range events {
		switch ne.Status {
		case model.StatusUpcoming:
			b.Upcoming = append(b.Upcoming, ne)
		case model.StatusLive:
			b.Live = append(b.Live, ne)
		default:
			b.Past = append(b.Past, ne)
		}
	}

	byStartAsc := func(a, c model.NormalizedEvent) int {
		return a.Start.Compare(c.Start)
	}
	slices.SortStableFunc(b.Upcoming, byStartAsc)
	slices.SortStableFunc(b.Live, byStartAsc)
	slices.SortStableFunc(b.Past, func(a, c model.NormalizedEvent) int {
		return c.End.Compare(a.End)
	})
	return b
}
