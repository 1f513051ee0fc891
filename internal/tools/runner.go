// Package tools is the callable surface of the ledger: a named set of
// read and write operations over the synced mirror, with input
// validation in front of every write. Every call sees a fresh mirror;
// the runner refreshes the sync manager before dispatching.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"zenledger/internal/cache"
	"zenledger/internal/classify"
	"zenledger/internal/store"
	"zenledger/internal/zenmoney"
)

const (
	suggestCacheSize = 256
	suggestCacheTTL  = time.Hour
)

// ErrUnknownTool is returned when the requested tool name is not in
// the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// Ledger is the slice of the sync manager the tools need: freshness,
// write-through, and the entity mirror.
type Ledger interface {
	EnsureFresh(ctx context.Context) error
	Synchronize(ctx context.Context) error
	WriteThrough(ctx context.Context, changes *zenmoney.Changes) error
	Store() *store.Store
}

// Suggester asks the remote service for its category/merchant guess
// for a payee string.
type Suggester interface {
	Suggest(ctx context.Context, payee string) (*zenmoney.Suggestion, error)
}

// Spec describes one tool for discovery listings.
type Spec struct {
	Name   string            `json:"name"`
	Desc   string            `json:"desc"`
	Params map[string]string `json:"params,omitempty"`
}

// Runner dispatches tool calls against the ledger.
type Runner struct {
	ledger         Ledger
	suggester      Suggester
	mode           classify.Mode
	periodStartDay int
	round          bool
	now            func() time.Time
	suggestions    *cache.LRU[*zenmoney.Suggestion]

	handlers map[string]func(context.Context, Args) (any, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithSuggester enables the suggest tool.
func WithSuggester(s Suggester) Option {
	return func(r *Runner) { r.suggester = s }
}

// WithMode sets the default transfer analysis mode for report tools.
func WithMode(m classify.Mode) Option {
	return func(r *Runner) { r.mode = m }
}

// WithPeriodStartDay sets the day of month a billing period begins on.
func WithPeriodStartDay(day int) Option {
	return func(r *Runner) { r.periodStartDay = day }
}

// WithRounding enables whole-unit rounding in report output.
func WithRounding(round bool) Option {
	return func(r *Runner) { r.round = round }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func New(ledger Ledger, opts ...Option) *Runner {
	r := &Runner{
		ledger:         ledger,
		mode:           classify.IncomeVsExpense(),
		periodStartDay: 1,
		now:            time.Now,
		suggestions:    cache.NewLRU[*zenmoney.Suggestion](suggestCacheSize, suggestCacheTTL),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.handlers = map[string]func(context.Context, Args) (any, error){
		"get_accounts":           r.getAccounts,
		"get_transactions":       r.getTransactions,
		"get_categories":         r.getCategories,
		"get_instruments":        r.getInstruments,
		"get_budgets":            r.getBudgets,
		"get_reminders":          r.getReminders,
		"get_analytics":          r.getAnalytics,
		"get_merchants":          r.getMerchants,
		"analyze_budget":         r.analyzeBudget,
		"suggest":                r.runSuggest,
		"check_auth_status":      r.checkAuthStatus,
		"create_transaction":     r.createTransaction,
		"update_transaction":     r.updateTransaction,
		"delete_transaction":     r.deleteTransaction,
		"create_account":         r.createAccount,
		"create_budget":          r.createBudget,
		"update_budget":          r.updateBudget,
		"delete_budget":          r.deleteBudget,
		"create_reminder":        r.createReminder,
		"update_reminder":        r.updateReminder,
		"delete_reminder":        r.deleteReminder,
		"create_reminder_marker": r.createReminderMarker,
		"delete_reminder_marker": r.deleteReminderMarker,
	}
	return r
}

// Run dispatches one tool call. The mirror is refreshed first so every
// tool reads current state; check_auth_status does its own round trip
// and reports failures as a status instead of an error.
func (r *Runner) Run(ctx context.Context, name string, args Args) (any, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = Args{}
	}
	if name != "check_auth_status" {
		if err := r.ledger.EnsureFresh(ctx); err != nil {
			return nil, fmt.Errorf("refresh mirror: %w", err)
		}
	}
	return handler(ctx, args)
}

// Catalog lists every available tool, sorted by name.
func (r *Runner) Catalog() []Spec {
	specs := make([]Spec, 0, len(catalog))
	specs = append(specs, catalog...)
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Describe returns the catalog entry for one tool.
func (r *Runner) Describe(name string) (Spec, bool) {
	for _, s := range catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

var catalog = []Spec{
	{Name: "get_accounts", Desc: "List accounts with balances",
		Params: map[string]string{"include_archived": "bool (default false)"}},
	{Name: "get_transactions", Desc: "List transactions in a date range",
		Params: map[string]string{
			"start_date": "str yyyy-MM-dd (required)",
			"end_date":   "str yyyy-MM-dd (default today)",
			"account_id": "str UUID (optional)", "category_id": "str UUID (optional)",
			"type":  "str expense|income|transfer (optional)",
			"limit": "int (default 100, max 500)", "offset": "int (default 0)"}},
	{Name: "get_categories", Desc: "List categories as a two-level tree"},
	{Name: "get_instruments", Desc: "List currencies",
		Params: map[string]string{"include_all": "bool (default false, only currencies in use)"}},
	{Name: "get_budgets", Desc: "List budgets for one month",
		Params: map[string]string{"month": "str yyyy-MM (required)"}},
	{Name: "get_reminders", Desc: "List reminders with their upcoming markers",
		Params: map[string]string{
			"include_processed": "bool (default false)", "active_only": "bool (default true)",
			"category": "str name (optional)", "type": "str expense|income|transfer|all",
			"marker_from": "str yyyy-MM-dd (optional)", "marker_to": "str yyyy-MM-dd (optional)",
			"limit": "int (default 50, max 200)", "markers_limit": "int (default 5)",
			"offset": "int (default 0)"}},
	{Name: "get_analytics", Desc: "Aggregate spending or income by category, account, or merchant",
		Params: map[string]string{
			"start_date": "str yyyy-MM-dd (required)", "end_date": "str yyyy-MM-dd (default today)",
			"group_by": "str category|account|merchant (default category)",
			"type":     "str expense|income|all (default expense)"}},
	{Name: "get_merchants", Desc: "Search merchants by name",
		Params: map[string]string{"search": "str (optional)",
			"limit": "int (default 50, max 200)", "offset": "int (default 0)"}},
	{Name: "analyze_budget", Desc: "Budget forecast for a billing period",
		Params: map[string]string{
			"start_date": "str yyyy-MM-dd (default: current billing period)",
			"end_date":   "str yyyy-MM-dd (default: billing period end)",
			"mode":       "str balance_vs_expense|income_vs_expense (default: configured mode)"}},
	{Name: "suggest", Desc: "Ask the service to suggest category and merchant for a payee",
		Params: map[string]string{"payee": "str (required)"}},
	{Name: "check_auth_status", Desc: "Verify the API token by performing a sync round trip"},
	{Name: "create_transaction", Desc: "Create an expense, income, or transfer",
		Params: map[string]string{
			"type": "str expense|income|transfer (required)", "amount": "float (required)",
			"account_id": "str UUID (required)", "to_account_id": "str UUID (for transfers)",
			"category_ids": "list[str] UUIDs (optional)", "date": "str yyyy-MM-dd (default today)",
			"payee": "str (optional)", "comment": "str (optional)",
			"currency_id":   "int (optional, defaults to account currency)",
			"income_amount": "float (for cross-currency transfers)"}},
	{Name: "update_transaction", Desc: "Update an existing transaction. Only pass fields to change.",
		Params: map[string]string{"id": "str UUID (required)", "amount": "float (optional)",
			"category_ids": "list[str] UUIDs (optional)", "date": "str yyyy-MM-dd (optional)",
			"payee": "str (optional)", "comment": "str (optional)"}},
	{Name: "delete_transaction", Desc: "Delete a transaction",
		Params: map[string]string{"id": "str UUID (required)"}},
	{Name: "create_account", Desc: "Create an account",
		Params: map[string]string{"title": "str (required)", "type": "str (required)",
			"currency_id": "int (required)", "balance": "float (default 0)",
			"credit_limit": "float (default 0)"}},
	{Name: "create_budget", Desc: "Create a monthly budget for a category, or ALL for the aggregate row",
		Params: map[string]string{"month": "str yyyy-MM (required)",
			"category": "str name or UUID or ALL (required)",
			"income":   "float (default 0)", "outcome": "float (default 0)",
			"income_lock": "bool (default false)", "outcome_lock": "bool (default false)"}},
	{Name: "update_budget", Desc: "Update an existing budget. Only pass fields to change.",
		Params: map[string]string{"month": "str yyyy-MM (required)",
			"category": "str name or UUID (required)",
			"income":   "float (optional)", "outcome": "float (optional)",
			"income_lock": "bool (optional)", "outcome_lock": "bool (optional)"}},
	{Name: "delete_budget", Desc: "Delete a budget by zeroing income and outcome",
		Params: map[string]string{"month": "str yyyy-MM (required)",
			"category": "str name or UUID (required)"}},
	{Name: "create_reminder", Desc: "Create a recurring reminder (planned operation)",
		Params: map[string]string{
			"type": "str expense|income|transfer (required)", "amount": "float (required, positive)",
			"account_id": "str UUID (required)", "to_account_id": "str UUID (for transfers)",
			"category_ids": "list[str] UUIDs (optional)", "payee": "str (optional)",
			"comment": "str (optional)", "interval": "str day|week|month|year (required)",
			"step": "int (default 1)", "points": "list[int] (optional)",
			"start_date": "str yyyy-MM-dd (default today)", "end_date": "str yyyy-MM-dd (optional)",
			"notify": "bool (default true)"}},
	{Name: "update_reminder", Desc: "Update an existing reminder. Only pass fields to change.",
		Params: map[string]string{"id": "str UUID (required)", "amount": "float (optional)",
			"category_ids": "list[str] UUIDs (optional)", "payee": "str (optional)",
			"comment": "str (optional)", "interval": "str day|week|month|year (optional)",
			"step": "int (optional)", "points": "list[int] (optional)",
			"end_date": "str yyyy-MM-dd (optional)", "notify": "bool (optional)"}},
	{Name: "delete_reminder", Desc: "Delete a reminder and all its markers",
		Params: map[string]string{"id": "str UUID (required)"}},
	{Name: "create_reminder_marker", Desc: "Create a one-time planned operation for a specific date",
		Params: map[string]string{
			"type": "str expense|income|transfer (required)", "amount": "float (required, positive)",
			"account_id": "str UUID (required)", "to_account_id": "str UUID (for transfers)",
			"category_ids": "list[str] UUIDs (optional)", "payee": "str (optional)",
			"comment": "str (optional)", "date": "str yyyy-MM-dd (required)",
			"reminder_id": "str UUID (optional, auto-creates a one-time reminder if absent)",
			"notify":      "bool (default true)"}},
	{Name: "delete_reminder_marker", Desc: "Delete a reminder marker",
		Params: map[string]string{"id": "str UUID (required)"}},
}
