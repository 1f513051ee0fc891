package core

import "testing"

func TestDayValidate(t *testing.T) {
	cases := []struct {
		d  Day
		ok bool
	}{
		{"2026-02-20", true},
		{"2026-13-01", false},
		{"2026-2-1", false},
		{"", false},
		{"yesterday", false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDayIn(t *testing.T) {
	from, to := Day("2026-02-20"), Day("2026-03-19")
	if !Day("2026-02-20").In(from, to) || !Day("2026-03-19").In(from, to) {
		t.Fatal("bounds are inclusive")
	}
	if Day("2026-02-19").In(from, to) || Day("2026-03-20").In(from, to) {
		t.Fatal("one day outside either bound must be excluded")
	}
}

func TestDayNext(t *testing.T) {
	cases := []struct{ d, want Day }{
		{"2026-02-28", "2026-03-01"},
		{"2028-02-28", "2028-02-29"}, // leap year
		{"2026-12-31", "2027-01-01"},
	}
	for i, tc := range cases {
		if got := tc.d.Next(); got != tc.want {
			t.Fatalf("case %d: got %s, want %s", i, got, tc.want)
		}
	}
}

func TestMonthStarts(t *testing.T) {
	got := MonthStarts("2026-02-20", "2026-03-19")
	if len(got) != 2 || got[0] != "2026-02-01" || got[1] != "2026-03-01" {
		t.Fatalf("got %v", got)
	}
	got = MonthStarts("2026-02-01", "2026-02-28")
	if len(got) != 1 || got[0] != "2026-02-01" {
		t.Fatalf("got %v", got)
	}
}
