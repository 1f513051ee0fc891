// Package forecast builds the per-period report: actual totals, planned
// totals, a merged calendar and a day-by-day balance projection.
package forecast

import (
	"fmt"
	"math"
	"sort"

	"zenledger/internal/classify"
	"zenledger/internal/core"
	"zenledger/internal/planning"
	"zenledger/internal/store"
)

// Source tags a calendar entry as a booked transaction or a planned
// reminder marker.
type Source string

const (
	SourceActual  Source = "actual"
	SourcePlanned Source = "planned"
)

// Entry is one dated event contributing to the projection. Amount is
// signed: expenses negative, income positive.
type Entry struct {
	Date    Day
	Source  Source
	Kind    core.OpKind
	Amount  float64
	Tag     string
	Payee   string
	Comment string
}

// Day is re-exported for the calendar types below.
type Day = core.Day

// DayBalance is the projected balance at the end of one day.
type DayBalance struct {
	Date    Day
	Balance float64
}

// CategoryLine is the per-category expense view. Expected is the larger
// of what is already committed (actual plus planned) and the budget
// allotment, so an overspent category shows its real trajectory.
type CategoryLine struct {
	Tag      string
	Title    string
	Actual   float64
	Planned  float64
	Budget   float64
	Expected float64
}

// Options select the period, the transfer analysis mode, and whether
// presentation values are rounded to whole currency units.
type Options struct {
	From  core.Day
	To    core.Day
	Mode  classify.Mode
	Round bool
}

// Report is the finished forecast. It is a value snapshot: rebuilding
// one always starts clean from the current store state.
type Report struct {
	From core.Day
	To   core.Day
	Mode string

	StartBalance float64
	EndBalance   float64

	ActualOutcome  float64
	ActualIncome   float64
	PlannedOutcome float64
	PlannedIncome  float64

	Calendar   []Entry
	Days       []DayBalance
	Categories []CategoryLine
}

// Build computes the report for one billing period from the current
// store snapshot.
func Build(s *store.Store, opts Options) (*Report, error) {
	if err := opts.From.Validate(); err != nil {
		return nil, fmt.Errorf("forecast: from: %w", err)
	}
	if err := opts.To.Validate(); err != nil {
		return nil, fmt.Errorf("forecast: to: %w", err)
	}
	if opts.To.Before(opts.From) {
		return nil, fmt.Errorf("forecast: period ends (%s) before it starts (%s)", opts.To, opts.From)
	}

	r := &Report{From: opts.From, To: opts.To, Mode: opts.Mode.Name}
	r.StartBalance = startBalance(s)

	var calendar []Entry

	for _, t := range s.Transactions() {
		if t.Deleted || !t.Date.In(opts.From, opts.To) {
			continue
		}
		e, ok := transactionEntry(s, t, opts.Mode)
		if !ok {
			continue
		}
		calendar = append(calendar, e)
		if e.Amount < 0 {
			r.ActualOutcome += -e.Amount
		} else {
			r.ActualIncome += e.Amount
		}
	}

	groups, err := planning.Upcoming(s, planning.Filter{From: opts.From, To: opts.To})
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		for _, m := range g.Markers {
			e, ok := markerEntry(s, m, opts.Mode)
			if !ok {
				continue
			}
			calendar = append(calendar, e)
			if e.Amount < 0 {
				r.PlannedOutcome += -e.Amount
			} else {
				r.PlannedIncome += e.Amount
			}
		}
	}

	sort.SliceStable(calendar, func(i, j int) bool {
		return calendar[i].Date.Before(calendar[j].Date)
	})
	r.Calendar = calendar
	r.Categories = categoryLines(s, calendar, opts)
	r.Days = project(calendar, opts, r.StartBalance)
	if len(r.Days) > 0 {
		r.EndBalance = r.Days[len(r.Days)-1].Balance
	} else {
		r.EndBalance = r.StartBalance
	}
	if opts.Round {
		r.EndBalance = math.Round(r.EndBalance)
	}
	return r, nil
}

// startBalance sums the balances of live on-balance accounts. Archived
// and off-balance accounts do not move the projection.
func startBalance(s *store.Store) float64 {
	var total float64
	for _, a := range s.Accounts() {
		if a.Archive || !a.InBalance {
			continue
		}
		total += a.Balance
	}
	return total
}

func transactionEntry(s *store.Store, t core.Transaction, mode classify.Mode) (Entry, bool) {
	e := Entry{
		Date:    t.Date,
		Source:  SourceActual,
		Kind:    t.Kind(),
		Payee:   t.Payee,
		Comment: t.Comment,
	}
	if len(t.Tag) > 0 {
		e.Tag = t.Tag[0]
	}
	return contribute(s, e, t.Kind(), t.Outcome, t.Income, t.OutcomeAccount, t.IncomeAccount, t.Comment, mode)
}

func markerEntry(s *store.Store, m core.ReminderMarker, mode classify.Mode) (Entry, bool) {
	e := Entry{
		Date:    m.Date,
		Source:  SourcePlanned,
		Kind:    m.Kind(),
		Payee:   m.Payee,
		Comment: m.Comment,
	}
	if len(m.Tag) > 0 {
		e.Tag = m.Tag[0]
	}
	return contribute(s, e, m.Kind(), m.Outcome, m.Income, m.OutcomeAccount, m.IncomeAccount, m.Comment, mode)
}

// contribute resolves the signed amount of one operation. Plain
// expenses and income count when their account sits on the balance;
// transfers go through the classifier under the active mode. Unknown
// kinds and uncounted transfers produce no entry.
func contribute(s *store.Store, e Entry, kind core.OpKind, outcome, income float64, outcomeAccount, incomeAccount, comment string, mode classify.Mode) (Entry, bool) {
	switch kind {
	case core.OpExpense:
		if !onBalance(s, outcomeAccount) {
			return Entry{}, false
		}
		e.Amount = -outcome
		return e, true
	case core.OpIncome:
		if !onBalance(s, incomeAccount) {
			return Entry{}, false
		}
		e.Amount = income
		return e, true
	case core.OpTransfer:
		res, counted := classify.Classify(classify.Transfer{
			Amount:  outcome,
			Comment: comment,
			From:    classify.InfoOf(s.Account(outcomeAccount)),
			To:      classify.InfoOf(s.Account(incomeAccount)),
		}, mode)
		if !counted {
			return Entry{}, false
		}
		if res.Direction == classify.DirExpense {
			e.Amount = -res.Amount
		} else {
			e.Amount = res.Amount
		}
		return e, true
	}
	return Entry{}, false
}

func onBalance(s *store.Store, accountID string) bool {
	a, ok := s.Account(accountID)
	return ok && a.InBalance
}

// categoryLines builds the per-category expense view. Budget rows are
// summed across every calendar month the period touches.
func categoryLines(s *store.Store, calendar []Entry, opts Options) []CategoryLine {
	byTag := make(map[string]*CategoryLine)
	line := func(tag string) *CategoryLine {
		l, ok := byTag[tag]
		if !ok {
			l = &CategoryLine{Tag: tag}
			if t, found := s.Tag(tag); found {
				l.Title = t.Title
			}
			byTag[tag] = l
		}
		return l
	}

	for _, e := range calendar {
		if e.Amount >= 0 {
			continue
		}
		l := line(e.Tag)
		if e.Source == SourcePlanned {
			l.Planned += -e.Amount
		} else {
			l.Actual += -e.Amount
		}
	}

	months := core.MonthStarts(opts.From, opts.To)
	for _, b := range s.Budgets() {
		var inPeriod bool
		for _, m := range months {
			if b.Date == m {
				inPeriod = true
				break
			}
		}
		if !inPeriod || b.Outcome == 0 {
			continue
		}
		tag := ""
		if b.Tag != nil {
			tag = *b.Tag
		}
		line(tag).Budget += b.Outcome
	}

	lines := make([]CategoryLine, 0, len(byTag))
	for _, l := range byTag {
		l.Expected = math.Max(l.Actual+l.Planned, l.Budget)
		lines = append(lines, *l)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Expected != lines[j].Expected {
			return lines[i].Expected > lines[j].Expected
		}
		return lines[i].Tag < lines[j].Tag
	})
	return lines
}

// project walks the calendar day by day and records the balance at the
// end of each day of the period.
func project(calendar []Entry, opts Options, start float64) []DayBalance {
	byDay := make(map[core.Day]float64)
	for _, e := range calendar {
		byDay[e.Date] += e.Amount
	}

	var days []DayBalance
	balance := start
	for d := opts.From; !opts.To.Before(d); d = d.Next() {
		balance += byDay[d]
		v := balance
		if opts.Round {
			v = math.Round(v)
		}
		days = append(days, DayBalance{Date: d, Balance: v})
	}
	return days
}
