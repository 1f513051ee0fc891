// Package planning groups reminder markers into the per-reminder view
// used for "what is scheduled between these dates" questions.
package planning

import (
	"fmt"
	"sort"

	"zenledger/internal/core"
	"zenledger/internal/store"
)

// Filter narrows the marker set. From and To form a closed interval;
// both bounds are included. Category is a tag id or an exact tag title
// and is matched against the first tag on the reminder that owns the
// markers. IncludeProcessed pulls in markers already confirmed by the
// user; deleted markers are never returned.
type Filter struct {
	From             core.Day
	To               core.Day
	Category         string
	IncludeProcessed bool
}

// Group is one reminder with its qualifying markers and their rollups.
type Group struct {
	Reminder core.Reminder
	Markers  []core.ReminderMarker

	Count        int
	TotalIncome  float64
	TotalOutcome float64
	Kind         core.OpKind
}

// FirstDate is the date of the earliest qualifying marker.
func (g Group) FirstDate() core.Day {
	return g.Markers[0].Date
}

// Upcoming returns the reminders that have at least one qualifying
// marker in the filter window, each with its markers in date order,
// ordered by the date of their earliest marker. Reminders whose
// markers all fall outside the window, or all sit in excluded states,
// are dropped entirely.
func Upcoming(s *store.Store, f Filter) ([]Group, error) {
	if err := f.From.Validate(); err != nil {
		return nil, fmt.Errorf("planning: from: %w", err)
	}
	if err := f.To.Validate(); err != nil {
		return nil, fmt.Errorf("planning: to: %w", err)
	}
	if f.To.Before(f.From) {
		return nil, fmt.Errorf("planning: window ends (%s) before it starts (%s)", f.To, f.From)
	}

	var category *core.Tag
	if f.Category != "" {
		t, ok := s.TagByTitle(f.Category)
		if !ok {
			return nil, fmt.Errorf("planning: unknown category %q", f.Category)
		}
		category = &t
	}

	byReminder := make(map[string][]core.ReminderMarker)
	for _, m := range s.ReminderMarkers() {
		if !qualifies(m, f) {
			continue
		}
		byReminder[m.Reminder] = append(byReminder[m.Reminder], m)
	}

	groups := make([]Group, 0, len(byReminder))
	for id, markers := range byReminder {
		sort.Slice(markers, func(i, j int) bool {
			if markers[i].Date != markers[j].Date {
				return markers[i].Date.Before(markers[j].Date)
			}
			return markers[i].ID < markers[j].ID
		})
		g := Group{Markers: markers, Count: len(markers)}
		for _, m := range markers {
			g.TotalIncome += m.Income
			g.TotalOutcome += m.Outcome
		}
		// The category lives on the reminder record; markers inherit it.
		tags := markers[0].Tag
		if r, ok := s.Reminder(id); ok {
			g.Reminder = r
			g.Kind = r.Kind()
			tags = r.Tag
		} else {
			// Marker arrived before its reminder in a partial
			// snapshot. Classify from the markers instead.
			g.Reminder = core.Reminder{ID: id}
			g.Kind = markers[0].Kind()
		}
		if category != nil && (len(tags) == 0 || tags[0] != category.ID) {
			continue
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].FirstDate(), groups[j].FirstDate()
		if a != b {
			return a.Before(b)
		}
		return groups[i].Reminder.ID < groups[j].Reminder.ID
	})
	return groups, nil
}

// Markers returns the flat chronological listing of qualifying markers
// across all reminders.
func Markers(s *store.Store, f Filter) ([]core.ReminderMarker, error) {
	groups, err := Upcoming(s, f)
	if err != nil {
		return nil, err
	}
	var out []core.ReminderMarker
	for _, g := range groups {
		out = append(out, g.Markers...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func qualifies(m core.ReminderMarker, f Filter) bool {
	switch m.State {
	case core.MarkerPlanned:
	case core.MarkerProcessed:
		if !f.IncludeProcessed {
			return false
		}
	default:
		return false
	}
	return m.Date.In(f.From, f.To)
}
