package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"zenledger/internal/analytics"
	"zenledger/internal/classify"
	"zenledger/internal/core"
	"zenledger/internal/forecast"
	"zenledger/internal/planning"
	"zenledger/internal/store"
	"zenledger/internal/zenmoney"
)

// AccountView is the account shape returned to callers.
type AccountView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	Balance     float64 `json:"balance"`
	Currency    string  `json:"currency"`
	InBalance   bool    `json:"inBalance"`
	CreditLimit float64 `json:"creditLimit,omitempty"`
	Archived    bool    `json:"archived,omitempty"`
}

// TransactionView flattens a transaction for its kind: expenses and
// incomes carry one amount and account, transfers carry both sides.
type TransactionView struct {
	ID   string      `json:"id"`
	Date core.Day    `json:"date"`
	Type core.OpKind `json:"type"`

	Amount   float64 `json:"amount,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Account  string  `json:"account,omitempty"`

	OutcomeAmount   float64 `json:"outcomeAmount,omitempty"`
	OutcomeCurrency string  `json:"outcomeCurrency,omitempty"`
	FromAccount     string  `json:"fromAccount,omitempty"`
	IncomeAmount    float64 `json:"incomeAmount,omitempty"`
	IncomeCurrency  string  `json:"incomeCurrency,omitempty"`
	ToAccount       string  `json:"toAccount,omitempty"`

	Categories []string `json:"categories,omitempty"`
	Payee      string   `json:"payee,omitempty"`
	Comment    string   `json:"comment,omitempty"`
	Hold       bool     `json:"hold,omitempty"`
	Merchant   string   `json:"merchant,omitempty"`
}

// Page carries shared truncation metadata for list results.
type Page struct {
	Truncated bool `json:"truncated,omitempty"`
	Total     int  `json:"total,omitempty"`
	Showing   int  `json:"showing,omitempty"`
	Offset    int  `json:"offset,omitempty"`
}

type TransactionPage struct {
	Transactions []TransactionView `json:"transactions"`
	Page
}

// CategoryNode is one category with its direct children. The tree is
// at most two levels deep; that is all the service supports.
type CategoryNode struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Children []CategoryNode `json:"children,omitempty"`
}

type InstrumentView struct {
	ID     int     `json:"id"`
	Code   string  `json:"code"`
	Title  string  `json:"title"`
	Symbol string  `json:"symbol"`
	Rate   float64 `json:"rate"`
}

type BudgetView struct {
	Category    string   `json:"category"`
	Month       core.Day `json:"month"`
	Income      float64  `json:"income"`
	IncomeLock  bool     `json:"incomeLock"`
	Outcome     float64  `json:"outcome"`
	OutcomeLock bool     `json:"outcomeLock"`
}

type MarkerView struct {
	ID      string   `json:"id"`
	Date    core.Day `json:"date"`
	State   string   `json:"state"`
	Income  float64  `json:"income"`
	Outcome float64  `json:"outcome"`
}

type ReminderView struct {
	ID          string      `json:"id"`
	Type        core.OpKind `json:"type"`
	Payee       string      `json:"payee,omitempty"`
	Comment     string      `json:"comment,omitempty"`
	Income      float64     `json:"income,omitempty"`
	Outcome     float64     `json:"outcome,omitempty"`
	FromAccount string      `json:"fromAccount,omitempty"`
	ToAccount   string      `json:"toAccount,omitempty"`
	Categories  []string    `json:"categories,omitempty"`
	Interval    *string     `json:"interval"`
	Step        *int        `json:"step"`
	StartDate   core.Day    `json:"startDate"`
	EndDate     *core.Day   `json:"endDate"`
	Notify      bool        `json:"notify"`

	Markers             []MarkerView `json:"markers,omitempty"`
	MarkersTotalIncome  float64      `json:"markersTotalIncome,omitempty"`
	MarkersTotalOutcome float64      `json:"markersTotalOutcome,omitempty"`
}

type ReminderPage struct {
	Reminders  []ReminderView `json:"reminders"`
	Mode       string         `json:"mode,omitempty"`
	MarkerFrom core.Day       `json:"markerFrom,omitempty"`
	MarkerTo   core.Day       `json:"markerTo,omitempty"`
	Page
}

type MerchantView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type MerchantPage struct {
	Merchants []MerchantView `json:"merchants"`
	Page
}

// AuthStatus is the result of a token check.
type AuthStatus struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Solution string `json:"solution,omitempty"`
}

func (r *Runner) getAccounts(_ context.Context, args Args) (any, error) {
	includeArchived := args.boolOr("include_archived", false)
	s := r.ledger.Store()

	var views []AccountView
	for _, a := range s.Accounts() {
		if a.Archive && !includeArchived {
			continue
		}
		views = append(views, accountView(s, a))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Title < views[j].Title })
	return views, nil
}

func (r *Runner) getTransactions(_ context.Context, args Args) (any, error) {
	startDate, ok := args.str("start_date")
	if !ok {
		return nil, errors.New("start_date is required")
	}
	if err := validateDate(startDate, "start_date"); err != nil {
		return nil, err
	}
	endDate := args.strOr("end_date", string(r.today()))
	if err := validateDate(endDate, "end_date"); err != nil {
		return nil, err
	}
	accountID, _ := args.str("account_id")
	categoryID, _ := args.str("category_id")
	txType, _ := args.str("type")
	limit := min(args.intOr("limit", 100), 500)
	offset := args.intOr("offset", 0)

	if accountID != "" {
		if err := validateUUID(accountID, "account_id"); err != nil {
			return nil, err
		}
	}
	if categoryID != "" {
		if err := validateUUID(categoryID, "category_id"); err != nil {
			return nil, err
		}
	}

	s := r.ledger.Store()
	var txs []core.Transaction
	for _, t := range s.Transactions() {
		if t.Deleted || !t.Date.In(core.Day(startDate), core.Day(endDate)) {
			continue
		}
		if accountID != "" && t.IncomeAccount != accountID && t.OutcomeAccount != accountID {
			continue
		}
		if categoryID != "" && !containsString(t.Tag, categoryID) {
			continue
		}
		if txType != "" && t.Kind() != core.OpKind(txType) {
			continue
		}
		txs = append(txs, t)
	}
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Date != txs[j].Date {
			return txs[i].Date > txs[j].Date
		}
		return txs[i].Created > txs[j].Created
	})

	total := len(txs)
	txs = slicePage(txs, offset, limit)
	views := make([]TransactionView, 0, len(txs))
	for _, t := range txs {
		views = append(views, transactionView(s, t))
	}
	return TransactionPage{Transactions: views, Page: pageOf(total, offset, len(views))}, nil
}

func (r *Runner) getCategories(_ context.Context, _ Args) (any, error) {
	s := r.ledger.Store()
	tags := s.Tags()
	sort.Slice(tags, func(i, j int) bool { return tags[i].Title < tags[j].Title })

	var tree []CategoryNode
	for _, root := range tags {
		if root.Parent != nil {
			continue
		}
		node := CategoryNode{ID: root.ID, Title: root.Title}
		for _, child := range tags {
			if child.Parent != nil && *child.Parent == root.ID {
				node.Children = append(node.Children, CategoryNode{ID: child.ID, Title: child.Title})
			}
		}
		tree = append(tree, node)
	}
	return tree, nil
}

func (r *Runner) getInstruments(_ context.Context, args Args) (any, error) {
	includeAll := args.boolOr("include_all", false)
	s := r.ledger.Store()

	used := map[int]bool{}
	if !includeAll {
		for _, a := range s.Accounts() {
			used[a.Instrument] = true
		}
	}
	var views []InstrumentView
	for _, i := range s.Instruments() {
		if !includeAll && !used[i.ID] {
			continue
		}
		views = append(views, InstrumentView{
			ID: i.ID, Code: i.ShortTitle, Title: i.Title, Symbol: i.Symbol, Rate: i.Rate,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Code < views[j].Code })
	return views, nil
}

func (r *Runner) getBudgets(_ context.Context, args Args) (any, error) {
	month, ok := args.str("month")
	if !ok {
		return nil, errors.New("month is required")
	}
	if err := validateMonth(month, "month"); err != nil {
		return nil, err
	}
	monthDate := core.Day(month + "-01")

	s := r.ledger.Store()
	var views []BudgetView
	for _, b := range s.Budgets() {
		if b.Date != monthDate {
			continue
		}
		views = append(views, budgetView(s, b))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Category < views[j].Category })
	return views, nil
}

func (r *Runner) getReminders(_ context.Context, args Args) (any, error) {
	includeProcessed := args.boolOr("include_processed", false)
	activeOnly := args.boolOr("active_only", true)
	limit := min(args.intOr("limit", 50), 200)
	markersLimit := args.intOr("markers_limit", 5)
	offset := args.intOr("offset", 0)
	markerFrom, _ := args.str("marker_from")
	markerTo, _ := args.str("marker_to")
	category, _ := args.str("category")
	rType := args.strOr("type", "all")
	today := r.today()

	if markerFrom != "" {
		if err := validateDate(markerFrom, "marker_from"); err != nil {
			return nil, err
		}
	}
	if markerTo != "" {
		if err := validateDate(markerTo, "marker_to"); err != nil {
			return nil, err
		}
	}

	if markerFrom != "" && markerTo != "" {
		return r.remindersByMarkerRange(planning.Filter{
			From:             core.Day(markerFrom),
			To:               core.Day(markerTo),
			Category:         category,
			IncludeProcessed: includeProcessed,
		}, rType, activeOnly, today, limit, offset)
	}
	return r.remindersChronological(category, rType, activeOnly, includeProcessed, today, limit, markersLimit, offset)
}

// remindersByMarkerRange lists reminders that have at least one marker
// in the window, ordered by the earliest marker date.
func (r *Runner) remindersByMarkerRange(f planning.Filter, rType string, activeOnly bool, today core.Day, limit, offset int) (any, error) {
	s := r.ledger.Store()
	groups, err := planning.Upcoming(s, f)
	if err != nil {
		return nil, err
	}

	var views []ReminderView
	for _, g := range groups {
		if activeOnly && !g.Reminder.ActiveOn(today) {
			continue
		}
		if rType != "all" && g.Kind != core.OpKind(rType) {
			continue
		}
		v := reminderView(s, g.Reminder)
		v.Type = g.Kind
		for _, m := range g.Markers {
			v.Markers = append(v.Markers, markerView(m))
		}
		v.MarkersTotalIncome = g.TotalIncome
		v.MarkersTotalOutcome = g.TotalOutcome
		views = append(views, v)
	}

	total := len(views)
	views = slicePage(views, offset, limit)
	return ReminderPage{
		Reminders:  views,
		Mode:       "marker_range",
		MarkerFrom: f.From,
		MarkerTo:   f.To,
		Page:       pageOf(total, offset, len(views)),
	}, nil
}

// remindersChronological is the plain listing: newest start date first,
// each reminder with a capped preview of its upcoming markers.
func (r *Runner) remindersChronological(category, rType string, activeOnly, includeProcessed bool, today core.Day, limit, markersLimit, offset int) (any, error) {
	s := r.ledger.Store()

	var categoryID string
	if category != "" {
		tag, ok := s.TagByTitle(category)
		if !ok {
			return nil, fmt.Errorf("category not found: %s", category)
		}
		categoryID = tag.ID
	}

	var reminders []core.Reminder
	for _, rem := range s.Reminders() {
		if activeOnly && !rem.ActiveOn(today) {
			continue
		}
		if categoryID != "" && !containsString(rem.Tag, categoryID) {
			continue
		}
		if rType != "all" && rem.Kind() != core.OpKind(rType) {
			continue
		}
		reminders = append(reminders, rem)
	}
	sort.Slice(reminders, func(i, j int) bool { return reminders[i].StartDate > reminders[j].StartDate })

	total := len(reminders)
	reminders = slicePage(reminders, offset, limit)
	views := make([]ReminderView, 0, len(reminders))
	for _, rem := range reminders {
		v := reminderView(s, rem)
		markers := s.MarkersOf(rem.ID)
		sort.Slice(markers, func(i, j int) bool { return markers[i].Date < markers[j].Date })
		for _, m := range markers {
			if len(v.Markers) >= markersLimit {
				break
			}
			if m.State == core.MarkerDeleted {
				continue
			}
			if m.State == core.MarkerProcessed && !includeProcessed {
				continue
			}
			v.Markers = append(v.Markers, markerView(m))
		}
		views = append(views, v)
	}
	return ReminderPage{Reminders: views, Page: pageOf(total, offset, len(views))}, nil
}

func (r *Runner) getAnalytics(_ context.Context, args Args) (any, error) {
	startDate, ok := args.str("start_date")
	if !ok {
		return nil, errors.New("start_date is required")
	}
	endDate := args.strOr("end_date", string(r.today()))

	q := analytics.Query{
		From:    core.Day(startDate),
		To:      core.Day(endDate),
		GroupBy: analytics.Grouping(args.strOr("group_by", "")),
		Type:    analytics.Type(args.strOr("type", "")),
	}
	return analytics.Aggregate(r.ledger.Store(), q)
}

func (r *Runner) getMerchants(_ context.Context, args Args) (any, error) {
	search, _ := args.str("search")
	limit := args.intOr("limit", 50)
	offset := args.intOr("offset", 0)

	matches, total := analytics.SearchMerchants(r.ledger.Store(), search, limit, offset)
	views := make([]MerchantView, 0, len(matches))
	for _, m := range matches {
		views = append(views, MerchantView{ID: m.ID, Title: m.Title})
	}
	return MerchantPage{Merchants: views, Page: pageOf(total, offset, len(views))}, nil
}

func (r *Runner) analyzeBudget(_ context.Context, args Args) (any, error) {
	var from, to core.Day
	if startDate, ok := args.str("start_date"); ok {
		if err := validateDate(startDate, "start_date"); err != nil {
			return nil, err
		}
		from = core.Day(startDate)
		to = r.today()
		if endDate, ok := args.str("end_date"); ok {
			if err := validateDate(endDate, "end_date"); err != nil {
				return nil, err
			}
			to = core.Day(endDate)
		}
	} else {
		from, to = billingPeriod(r.now(), r.periodStartDay)
	}

	mode := r.mode
	if name, ok := args.str("mode"); ok {
		mode = classify.Preset(name)
	}
	return forecast.Build(r.ledger.Store(), forecast.Options{
		From: from, To: to, Mode: mode, Round: r.round,
	})
}

func (r *Runner) runSuggest(ctx context.Context, args Args) (any, error) {
	if r.suggester == nil {
		return nil, errors.New("suggest is not available without a remote gateway")
	}
	payee, ok := args.str("payee")
	if !ok {
		return nil, errors.New("payee is required")
	}
	key := strings.ToLower(strings.TrimSpace(payee))
	if s, ok := r.suggestions.Get(key); ok {
		return s, nil
	}
	s, err := r.suggester.Suggest(ctx, payee)
	if err != nil {
		return nil, err
	}
	r.suggestions.Set(key, s)
	return s, nil
}

func (r *Runner) checkAuthStatus(ctx context.Context, _ Args) (any, error) {
	if err := r.ledger.Synchronize(ctx); err != nil {
		return AuthStatus{
			Status:   "error",
			Error:    err.Error(),
			Solution: authSolution(err),
		}, nil
	}
	return AuthStatus{Status: "authenticated", Message: "token is valid and working"}, nil
}

func (r *Runner) today() core.Day {
	return core.DayOf(r.now())
}

func accountView(s *store.Store, a core.Account) AccountView {
	v := AccountView{
		ID: a.ID, Title: a.Title, Type: a.Type,
		Balance: a.Balance, InBalance: a.InBalance,
		Currency: currencyCode(s, a.Instrument),
		Archived: a.Archive,
	}
	if a.CreditLimit != 0 {
		v.CreditLimit = a.CreditLimit
	}
	return v
}

func transactionView(s *store.Store, t core.Transaction) TransactionView {
	v := TransactionView{ID: t.ID, Date: t.Date, Type: t.Kind()}
	switch v.Type {
	case core.OpExpense:
		v.Amount = t.Outcome
		v.Currency = currencyCode(s, t.OutcomeInstrument)
		v.Account = accountTitle(s, t.OutcomeAccount)
	case core.OpIncome:
		v.Amount = t.Income
		v.Currency = currencyCode(s, t.IncomeInstrument)
		v.Account = accountTitle(s, t.IncomeAccount)
	default:
		v.OutcomeAmount = t.Outcome
		v.OutcomeCurrency = currencyCode(s, t.OutcomeInstrument)
		v.FromAccount = accountTitle(s, t.OutcomeAccount)
		v.IncomeAmount = t.Income
		v.IncomeCurrency = currencyCode(s, t.IncomeInstrument)
		v.ToAccount = accountTitle(s, t.IncomeAccount)
	}
	v.Categories = tagTitles(s, t.Tag)
	v.Payee = t.Payee
	v.Comment = t.Comment
	v.Hold = t.Hold != nil && *t.Hold
	if t.Merchant != nil {
		if m, ok := s.Merchant(*t.Merchant); ok {
			v.Merchant = m.Title
		}
	}
	return v
}

func budgetView(s *store.Store, b core.Budget) BudgetView {
	category := "Total"
	if b.Tag != nil {
		category = *b.Tag
		if tag, ok := s.Tag(*b.Tag); ok {
			category = tag.Title
		}
	}
	return BudgetView{
		Category: category, Month: b.Date,
		Income: b.Income, IncomeLock: b.IncomeLock,
		Outcome: b.Outcome, OutcomeLock: b.OutcomeLock,
	}
}

func reminderView(s *store.Store, rem core.Reminder) ReminderView {
	return ReminderView{
		ID:          rem.ID,
		Type:        rem.Kind(),
		Payee:       rem.Payee,
		Comment:     rem.Comment,
		Income:      rem.Income,
		Outcome:     rem.Outcome,
		FromAccount: accountTitle(s, rem.OutcomeAccount),
		ToAccount:   accountTitle(s, rem.IncomeAccount),
		Categories:  tagTitles(s, rem.Tag),
		Interval:    rem.Interval,
		Step:        rem.Step,
		StartDate:   rem.StartDate,
		EndDate:     rem.EndDate,
		Notify:      rem.Notify,
	}
}

func markerView(m core.ReminderMarker) MarkerView {
	return MarkerView{ID: m.ID, Date: m.Date, State: m.State, Income: m.Income, Outcome: m.Outcome}
}

func currencyCode(s *store.Store, instrumentID int) string {
	if i, ok := s.Instrument(instrumentID); ok {
		return i.ShortTitle
	}
	return "RUB"
}

func accountTitle(s *store.Store, id string) string {
	if a, ok := s.Account(id); ok {
		return a.Title
	}
	return ""
}

func tagTitles(s *store.Store, ids []string) []string {
	var titles []string
	for _, id := range ids {
		if tag, ok := s.Tag(id); ok {
			titles = append(titles, tag.Title)
		}
	}
	return titles
}

func authSolution(err error) string {
	if errors.Is(err, zenmoney.ErrUnauthorized) {
		return "token expired, generate a new one in the service settings"
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "expired") {
		return "token expired, generate a new one in the service settings"
	}
	return "check your credentials or network connection"
}

func pageOf(total, offset, showing int) Page {
	if offset < 0 {
		offset = 0
	}
	if total <= offset+showing {
		return Page{}
	}
	return Page{Truncated: true, Total: total, Showing: showing, Offset: offset}
}

func slicePage[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
