// Package core holds the entity model mirrored from the remote ledger
// service, plus the classification rules shared by every derived
// computation. Field names and JSON tags follow the service's diff wire
// format; nothing in this package performs I/O.
package core

// Instrument is a currency. Instrument ids are small integers, unlike
// the UUID-shaped ids of every other entity kind.
type Instrument struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	ShortTitle string  `json:"shortTitle"`
	Symbol     string  `json:"symbol"`
	Rate       float64 `json:"rate"`
	Changed    int64   `json:"changed"`
}

type User struct {
	ID       int    `json:"id"`
	Login    string `json:"login,omitempty"`
	Currency int    `json:"currency"`
	Changed  int64  `json:"changed"`
}

type Company struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Changed int64  `json:"changed"`
}

type Account struct {
	ID           string  `json:"id"`
	User         int     `json:"user"`
	Instrument   int     `json:"instrument"`
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	Company      *int    `json:"company"`
	Balance      float64 `json:"balance"`
	StartBalance float64 `json:"startBalance"`
	CreditLimit  float64 `json:"creditLimit"`
	InBalance    bool    `json:"inBalance"`
	Savings      bool    `json:"savings"`
	Archive      bool    `json:"archive"`
	Changed      int64   `json:"changed"`
}

// Tag is a transaction category. Tags form a forest via Parent.
type Tag struct {
	ID          string  `json:"id"`
	User        int     `json:"user"`
	Title       string  `json:"title"`
	Parent      *string `json:"parent"`
	ShowIncome  bool    `json:"showIncome"`
	ShowOutcome bool    `json:"showOutcome"`
	Changed     int64   `json:"changed"`
}

type Merchant struct {
	ID      string `json:"id"`
	User    int    `json:"user"`
	Title   string `json:"title"`
	Changed int64  `json:"changed"`
}

type Transaction struct {
	ID                string   `json:"id"`
	User              int      `json:"user"`
	Date              Day      `json:"date"`
	Income            float64  `json:"income"`
	IncomeAccount     string   `json:"incomeAccount"`
	IncomeInstrument  int      `json:"incomeInstrument"`
	Outcome           float64  `json:"outcome"`
	OutcomeAccount    string   `json:"outcomeAccount"`
	OutcomeInstrument int      `json:"outcomeInstrument"`
	Tag               []string `json:"tag"`
	Merchant          *string  `json:"merchant"`
	Payee             string   `json:"payee,omitempty"`
	Comment           string   `json:"comment,omitempty"`
	Deleted           bool     `json:"deleted"`
	Hold              *bool    `json:"hold"`
	ReminderMarker    *string  `json:"reminderMarker"`
	Created           int64    `json:"created"`
	Changed           int64    `json:"changed"`
}

// Recurrence intervals accepted by the service.
const (
	IntervalDay   = "day"
	IntervalWeek  = "week"
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// ValidInterval reports whether s is a recurrence interval the service
// understands.
func ValidInterval(s string) bool {
	switch s {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return true
	}
	return false
}

// Reminder is a recurring operation template. The service materializes
// its dated occurrences as ReminderMarkers; the client never expands the
// recurrence rule itself. An EndDate in the past means the reminder is
// inactive, which the service also uses as its soft-delete convention.
type Reminder struct {
	ID                string   `json:"id"`
	User              int      `json:"user"`
	Income            float64  `json:"income"`
	IncomeAccount     string   `json:"incomeAccount"`
	IncomeInstrument  int      `json:"incomeInstrument"`
	Outcome           float64  `json:"outcome"`
	OutcomeAccount    string   `json:"outcomeAccount"`
	OutcomeInstrument int      `json:"outcomeInstrument"`
	Tag               []string `json:"tag"`
	Payee             string   `json:"payee,omitempty"`
	Comment           string   `json:"comment,omitempty"`
	Interval          *string  `json:"interval"`
	Step              *int     `json:"step"`
	Points            []int    `json:"points"`
	StartDate         Day      `json:"startDate"`
	EndDate           *Day     `json:"endDate"`
	Notify            bool     `json:"notify"`
	Changed           int64    `json:"changed"`
}

// ActiveOn reports whether the reminder has not expired as of the given
// day. Expired and administratively deleted reminders are
// indistinguishable here: the service expresses both by moving EndDate
// into the past.
func (r Reminder) ActiveOn(today Day) bool {
	return r.EndDate == nil || !r.EndDate.Before(today)
}

// Marker states.
const (
	MarkerPlanned   = "planned"
	MarkerProcessed = "processed"
	MarkerDeleted   = "deleted"
)

// ReminderMarker is one dated occurrence of a reminder.
type ReminderMarker struct {
	ID                string   `json:"id"`
	User              int      `json:"user"`
	Date              Day      `json:"date"`
	Income            float64  `json:"income"`
	IncomeAccount     string   `json:"incomeAccount"`
	IncomeInstrument  int      `json:"incomeInstrument"`
	Outcome           float64  `json:"outcome"`
	OutcomeAccount    string   `json:"outcomeAccount"`
	OutcomeInstrument int      `json:"outcomeInstrument"`
	Reminder          string   `json:"reminder"`
	State             string   `json:"state"`
	Tag               []string `json:"tag"`
	Payee             string   `json:"payee,omitempty"`
	Comment           string   `json:"comment,omitempty"`
	Notify            bool     `json:"notify"`
	Changed           int64    `json:"changed"`
}

// Budget is a per-category monthly limit. A nil Tag is the aggregate
// cross-category row. Budgets have no id of their own; they key on
// (tag, month).
type Budget struct {
	User        int     `json:"user"`
	Tag         *string `json:"tag"`
	Date        Day     `json:"date"`
	Income      float64 `json:"income"`
	IncomeLock  bool    `json:"incomeLock"`
	Outcome     float64 `json:"outcome"`
	OutcomeLock bool    `json:"outcomeLock"`
	Changed     int64   `json:"changed"`
}

// Deletion is the wire form of a structural delete: which object of
// which kind disappeared.
type Deletion struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	Stamp  int64  `json:"stamp"`
	User   int    `json:"user"`
}

// Entity kind names as they appear in the diff protocol.
const (
	KindInstrument     = "instrument"
	KindCompany        = "company"
	KindUser           = "user"
	KindAccount        = "account"
	KindTag            = "tag"
	KindMerchant       = "merchant"
	KindTransaction    = "transaction"
	KindReminder       = "reminder"
	KindReminderMarker = "reminderMarker"
	KindBudget         = "budget"
)
