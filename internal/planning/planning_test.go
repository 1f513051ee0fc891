package planning

import (
	"testing"

	"zenledger/internal/core"
	"zenledger/internal/store"
	"zenledger/internal/zenmoney"
)

func marker(id, reminder string, date core.Day, state string, outcome float64, tags ...string) core.ReminderMarker {
	return core.ReminderMarker{
		ID:             id,
		Date:           date,
		Outcome:        outcome,
		OutcomeAccount: "acc-1",
		Reminder:       reminder,
		State:          state,
		Tag:            tags,
	}
}

func seed(t *testing.T, d zenmoney.Diff) *store.Store {
	t.Helper()
	s := store.New()
	s.Apply(&d)
	return s
}

func TestUpcomingRollsUpMarkers(t *testing.T) {
	s := seed(t, zenmoney.Diff{
		Reminder: []core.Reminder{{ID: "rent", Outcome: 10000, OutcomeAccount: "acc-1"}},
		ReminderMarker: []core.ReminderMarker{
			marker("m1", "rent", "2026-02-01", core.MarkerPlanned, 10000),
			marker("m2", "rent", "2026-03-01", core.MarkerPlanned, 10000),
			marker("m3", "rent", "2026-04-01", core.MarkerPlanned, 10000),
			marker("m4", "rent", "2026-05-01", core.MarkerPlanned, 10000),
			marker("m5", "rent", "2026-06-01", core.MarkerPlanned, 10000),
		},
	})

	groups, err := Upcoming(s, Filter{From: "2026-01-01", To: "2026-12-31"})
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.Count != 5 || g.TotalOutcome != 50000 || g.TotalIncome != 0 {
		t.Fatalf("rollup = count %d, outcome %v, income %v", g.Count, g.TotalOutcome, g.TotalIncome)
	}
	if g.Kind != core.OpExpense {
		t.Fatalf("kind = %s, want expense", g.Kind)
	}
	if g.FirstDate() != "2026-02-01" {
		t.Fatalf("first date = %s", g.FirstDate())
	}
}

func TestUpcomingWindowIsClosed(t *testing.T) {
	s := seed(t, zenmoney.Diff{
		Reminder: []core.Reminder{{ID: "r", Outcome: 1, OutcomeAccount: "acc-1"}},
		ReminderMarker: []core.ReminderMarker{
			marker("before", "r", "2026-02-19", core.MarkerPlanned, 1),
			marker("lo", "r", "2026-02-20", core.MarkerPlanned, 1),
			marker("hi", "r", "2026-03-19", core.MarkerPlanned, 1),
			marker("after", "r", "2026-03-20", core.MarkerPlanned, 1),
		},
	})

	groups, err := Upcoming(s, Filter{From: "2026-02-20", To: "2026-03-19"})
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].Count != 2 {
		t.Fatalf("want exactly the two boundary markers, got %+v", groups)
	}
	if groups[0].Markers[0].ID != "lo" || groups[0].Markers[1].ID != "hi" {
		t.Fatalf("wrong markers: %+v", groups[0].Markers)
	}
}

func TestUpcomingStateFiltering(t *testing.T) {
	s := seed(t, zenmoney.Diff{
		Reminder: []core.Reminder{{ID: "r", Outcome: 1, OutcomeAccount: "acc-1"}},
		ReminderMarker: []core.ReminderMarker{
			marker("p", "r", "2026-02-01", core.MarkerPlanned, 1),
			marker("done", "r", "2026-02-02", core.MarkerProcessed, 1),
			marker("gone", "r", "2026-02-03", core.MarkerDeleted, 1),
		},
	})
	f := Filter{From: "2026-02-01", To: "2026-02-28"}

	groups, err := Upcoming(s, f)
	if err != nil {
		t.Fatal(err)
	}
	if groups[0].Count != 1 || groups[0].Markers[0].ID != "p" {
		t.Fatalf("default view: %+v", groups[0].Markers)
	}

	f.IncludeProcessed = true
	groups, err = Upcoming(s, f)
	if err != nil {
		t.Fatal(err)
	}
	if groups[0].Count != 2 {
		t.Fatalf("processed opt-in: %+v", groups[0].Markers)
	}
	for _, m := range groups[0].Markers {
		if m.State == core.MarkerDeleted {
			t.Fatal("deleted markers must never surface")
		}
	}
}

func TestUpcomingDropsEmptyRemindersAndSorts(t *testing.T) {
	s := seed(t, zenmoney.Diff{
		Reminder: []core.Reminder{
			{ID: "late", Outcome: 1, OutcomeAccount: "acc-1"},
			{ID: "early", Outcome: 1, OutcomeAccount: "acc-1"},
			{ID: "outside", Outcome: 1, OutcomeAccount: "acc-1"},
		},
		ReminderMarker: []core.ReminderMarker{
			marker("l1", "late", "2026-02-10", core.MarkerPlanned, 1),
			marker("e1", "early", "2026-02-05", core.MarkerPlanned, 1),
			marker("o1", "outside", "2026-09-01", core.MarkerPlanned, 1),
		},
	})

	groups, err := Upcoming(s, Filter{From: "2026-02-01", To: "2026-02-28"})
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Reminder.ID != "early" || groups[1].Reminder.ID != "late" {
		t.Fatalf("order: %s, %s", groups[0].Reminder.ID, groups[1].Reminder.ID)
	}
}

func TestUpcomingCategoryFilter(t *testing.T) {
	s := seed(t, zenmoney.Diff{
		Tag: []core.Tag{{ID: "tag-groceries", Title: "Продукты"}},
		Reminder: []core.Reminder{
			{ID: "food", Outcome: 1, OutcomeAccount: "acc-1", Tag: []string{"tag-groceries"}},
			{ID: "other", Outcome: 1, OutcomeAccount: "acc-1", Tag: []string{"tag-rent"}},
			{ID: "untagged", Outcome: 1, OutcomeAccount: "acc-1"},
		},
		ReminderMarker: []core.ReminderMarker{
			// The marker carries no tags of its own; the category is
			// read off the reminder record.
			marker("f1", "food", "2026-02-01", core.MarkerPlanned, 1),
			marker("o1", "other", "2026-02-01", core.MarkerPlanned, 1),
			marker("u1", "untagged", "2026-02-02", core.MarkerPlanned, 1),
		},
	})
	window := Filter{From: "2026-02-01", To: "2026-02-28"}

	for _, category := range []string{"Продукты", "tag-groceries"} {
		f := window
		f.Category = category
		groups, err := Upcoming(s, f)
		if err != nil {
			t.Fatal(err)
		}
		if len(groups) != 1 || groups[0].Reminder.ID != "food" {
			t.Fatalf("category %q: %+v", category, groups)
		}
	}

	f := window
	f.Category = "нет такой"
	if _, err := Upcoming(s, f); err == nil {
		t.Fatal("unknown category must error")
	}
}

func TestUpcomingRejectsBadWindow(t *testing.T) {
	s := store.New()
	if _, err := Upcoming(s, Filter{From: "2026-03-01", To: "2026-02-01"}); err == nil {
		t.Fatal("inverted window must error")
	}
	if _, err := Upcoming(s, Filter{From: "bad", To: "2026-02-01"}); err == nil {
		t.Fatal("malformed date must error")
	}
}

func TestMarkersFlatListing(t *testing.T) {
	s := seed(t, zenmoney.Diff{
		Reminder: []core.Reminder{
			{ID: "a", Outcome: 1, OutcomeAccount: "acc-1"},
			{ID: "b", Outcome: 1, OutcomeAccount: "acc-1"},
		},
		ReminderMarker: []core.ReminderMarker{
			marker("a2", "a", "2026-02-10", core.MarkerPlanned, 1),
			marker("b1", "b", "2026-02-05", core.MarkerPlanned, 1),
			marker("a1", "a", "2026-02-01", core.MarkerPlanned, 1),
		},
	})

	flat, err := Markers(s, Filter{From: "2026-02-01", To: "2026-02-28"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a1", "b1", "a2"}
	if len(flat) != len(want) {
		t.Fatalf("got %d markers", len(flat))
	}
	for i, id := range want {
		if flat[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, flat[i].ID, id)
		}
	}
}
