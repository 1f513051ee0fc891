package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"zenledger/internal/core"
	"zenledger/internal/store"
	"zenledger/internal/zenmoney"
)

const (
	accChecking = "11111111-1111-1111-1111-111111111111"
	accEUR      = "22222222-2222-2222-2222-222222222222"
	accArchived = "33333333-3333-3333-3333-333333333333"
	tagGrocery  = "44444444-4444-4444-4444-444444444444"
	txLunch     = "55555555-5555-5555-5555-555555555555"
	txSalary    = "66666666-6666-6666-6666-666666666666"
	txEURCoffee = "77777777-7777-7777-7777-777777777777"
	remRent     = "88888888-8888-8888-8888-888888888888"
	mkRentMar   = "99999999-9999-9999-9999-999999999999"
	mkRentApr   = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

type fakeLedger struct {
	store   *store.Store
	writes  []*zenmoney.Changes
	syncErr error
}

func (f *fakeLedger) EnsureFresh(context.Context) error { return nil }

func (f *fakeLedger) Synchronize(context.Context) error { return f.syncErr }

func (f *fakeLedger) Store() *store.Store { return f.store }

func (f *fakeLedger) WriteThrough(_ context.Context, changes *zenmoney.Changes) error {
	f.writes = append(f.writes, changes)
	f.store.Apply(&zenmoney.Diff{
		Account:        changes.Account,
		Transaction:    changes.Transaction,
		Reminder:       changes.Reminder,
		ReminderMarker: changes.ReminderMarker,
		Budget:         changes.Budget,
		Deletion:       changes.Deletion,
	})
	return nil
}

func newFixture(t *testing.T) (*Runner, *fakeLedger) {
	t.Helper()
	s := store.New()
	s.Apply(&zenmoney.Diff{
		User: []core.User{{ID: 1, Currency: 2}},
		Instrument: []core.Instrument{
			{ID: 2, Title: "Russian Ruble", ShortTitle: "RUB", Symbol: "₽", Rate: 1},
			{ID: 3, Title: "Euro", ShortTitle: "EUR", Symbol: "€", Rate: 100},
		},
		Account: []core.Account{
			{ID: accChecking, User: 1, Instrument: 2, Type: "checking", Title: "Основной", Balance: 50000, InBalance: true},
			{ID: accEUR, User: 1, Instrument: 3, Type: "checking", Title: "Евро", Balance: 300, InBalance: true},
			{ID: accArchived, User: 1, Instrument: 2, Type: "checking", Title: "Старый", Archive: true},
		},
		Tag: []core.Tag{
			{ID: tagGrocery, User: 1, Title: "Продукты", ShowOutcome: true},
		},
		Transaction: []core.Transaction{
			{ID: txLunch, User: 1, Date: "2026-03-05", Outcome: 700, OutcomeAccount: accChecking, OutcomeInstrument: 2,
				IncomeAccount: accChecking, IncomeInstrument: 2, Tag: []string{tagGrocery}, Payee: "Кафе", Created: 100},
			{ID: txSalary, User: 1, Date: "2026-03-01", Income: 120000, IncomeAccount: accChecking, IncomeInstrument: 2,
				OutcomeAccount: accChecking, OutcomeInstrument: 2, Created: 90},
			{ID: txEURCoffee, User: 1, Date: "2026-03-07", Outcome: 4, OutcomeAccount: accEUR, OutcomeInstrument: 3,
				IncomeAccount: accEUR, IncomeInstrument: 3, Created: 110},
		},
		Reminder: []core.Reminder{
			{ID: remRent, User: 1, Outcome: 30000, OutcomeAccount: accChecking, OutcomeInstrument: 2,
				IncomeAccount: accChecking, IncomeInstrument: 2, StartDate: "2026-01-01", Notify: true},
		},
		ReminderMarker: []core.ReminderMarker{
			{ID: mkRentMar, User: 1, Reminder: remRent, Date: "2026-03-01", State: core.MarkerProcessed,
				Outcome: 30000, OutcomeAccount: accChecking, OutcomeInstrument: 2, IncomeAccount: accChecking, IncomeInstrument: 2},
			{ID: mkRentApr, User: 1, Reminder: remRent, Date: "2026-04-01", State: core.MarkerPlanned,
				Outcome: 30000, OutcomeAccount: accChecking, OutcomeInstrument: 2, IncomeAccount: accChecking, IncomeInstrument: 2},
		},
	})

	ledger := &fakeLedger{store: s}
	clock := func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return New(ledger, WithClock(clock), WithPeriodStartDay(1)), ledger
}

func TestGetAccountsSkipsArchived(t *testing.T) {
	r, _ := newFixture(t)

	out, err := r.Run(context.Background(), "get_accounts", nil)
	if err != nil {
		t.Fatalf("get_accounts: %v", err)
	}
	views := out.([]AccountView)
	if len(views) != 2 {
		t.Fatalf("expected 2 live accounts, got %d", len(views))
	}
	for _, v := range views {
		if v.Archived {
			t.Errorf("archived account %s leaked into default listing", v.Title)
		}
	}

	out, err = r.Run(context.Background(), "get_accounts", Args{"include_archived": true})
	if err != nil {
		t.Fatalf("get_accounts include_archived: %v", err)
	}
	if got := len(out.([]AccountView)); got != 3 {
		t.Fatalf("expected 3 accounts with archived, got %d", got)
	}
}

func TestGetTransactionsFiltersAndSorts(t *testing.T) {
	r, _ := newFixture(t)

	out, err := r.Run(context.Background(), "get_transactions", Args{
		"start_date": "2026-03-01", "end_date": "2026-03-31",
	})
	if err != nil {
		t.Fatalf("get_transactions: %v", err)
	}
	page := out.(TransactionPage)
	if len(page.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(page.Transactions))
	}
	if page.Transactions[0].ID != txEURCoffee {
		t.Errorf("expected newest transaction first, got %s", page.Transactions[0].ID)
	}

	out, err = r.Run(context.Background(), "get_transactions", Args{
		"start_date": "2026-03-01", "type": "expense", "category_id": tagGrocery,
	})
	if err != nil {
		t.Fatalf("filtered get_transactions: %v", err)
	}
	page = out.(TransactionPage)
	if len(page.Transactions) != 1 || page.Transactions[0].ID != txLunch {
		t.Fatalf("category filter returned %+v", page.Transactions)
	}
	if page.Transactions[0].Amount != 700 || page.Transactions[0].Currency != "RUB" {
		t.Errorf("expense view = %+v", page.Transactions[0])
	}
	if page.Transactions[0].Categories[0] != "Продукты" {
		t.Errorf("category title not resolved: %+v", page.Transactions[0].Categories)
	}
}

func TestGetTransactionsRequiresStartDate(t *testing.T) {
	r, _ := newFixture(t)
	if _, err := r.Run(context.Background(), "get_transactions", Args{}); err == nil {
		t.Fatal("expected error without start_date")
	}
	if _, err := r.Run(context.Background(), "get_transactions", Args{"start_date": "03/01/2026"}); err == nil {
		t.Fatal("expected error for malformed start_date")
	}
}

func TestGetTransactionsNegativeOffset(t *testing.T) {
	r, _ := newFixture(t)
	out, err := r.Run(context.Background(), "get_transactions", Args{
		"start_date": "2026-02-01", "offset": -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	page := out.(TransactionPage)
	if len(page.Transactions) != 3 {
		t.Fatalf("got %d transactions, want all 3", len(page.Transactions))
	}
	if page.Truncated {
		t.Fatalf("full listing marked truncated: %+v", page.Page)
	}
}

func TestCreateTransactionExpenseShape(t *testing.T) {
	r, ledger := newFixture(t)

	out, err := r.Run(context.Background(), "create_transaction", Args{
		"type": "expense", "amount": 1500.0, "account_id": accChecking,
		"category_ids": []any{tagGrocery}, "comment": "рынок",
	})
	if err != nil {
		t.Fatalf("create_transaction: %v", err)
	}
	created := out.(createdTransaction).Created
	if created.Type != core.OpExpense || created.Amount != 1500 {
		t.Fatalf("created view = %+v", created)
	}

	if len(ledger.writes) != 1 || len(ledger.writes[0].Transaction) != 1 {
		t.Fatalf("expected one transaction write, got %+v", ledger.writes)
	}
	tx := ledger.writes[0].Transaction[0]
	if tx.Income != 0 || tx.Outcome != 1500 {
		t.Errorf("amount sides = income %v outcome %v", tx.Income, tx.Outcome)
	}
	if tx.IncomeAccount != accChecking || tx.OutcomeAccount != accChecking {
		t.Errorf("expense must keep both accounts equal, got %s / %s", tx.IncomeAccount, tx.OutcomeAccount)
	}
	if tx.Date != "2026-03-10" {
		t.Errorf("default date = %s", tx.Date)
	}
	if tx.User != 1 || tx.ID == "" {
		t.Errorf("identity fields = %+v", tx)
	}
}

func TestCreateTransferCrossCurrency(t *testing.T) {
	r, ledger := newFixture(t)

	_, err := r.Run(context.Background(), "create_transaction", Args{
		"type": "transfer", "amount": 10000.0, "account_id": accChecking, "to_account_id": accEUR,
	})
	if err == nil {
		t.Fatal("expected income_amount to be required for cross-currency transfer")
	}

	out, err := r.Run(context.Background(), "create_transaction", Args{
		"type": "transfer", "amount": 10000.0, "account_id": accChecking, "to_account_id": accEUR,
		"income_amount": 100.0,
	})
	if err != nil {
		t.Fatalf("cross-currency transfer: %v", err)
	}
	created := out.(createdTransaction).Created
	if created.OutcomeAmount != 10000 || created.IncomeAmount != 100 {
		t.Fatalf("transfer view = %+v", created)
	}
	tx := ledger.writes[len(ledger.writes)-1].Transaction[0]
	if tx.OutcomeInstrument != 2 || tx.IncomeInstrument != 3 {
		t.Errorf("instruments = %d -> %d", tx.OutcomeInstrument, tx.IncomeInstrument)
	}
}

func TestUpdateTransactionAmount(t *testing.T) {
	r, ledger := newFixture(t)

	if _, err := r.Run(context.Background(), "update_transaction", Args{
		"id": txLunch, "amount": 900.0,
	}); err != nil {
		t.Fatalf("update_transaction: %v", err)
	}
	tx := ledger.writes[0].Transaction[0]
	if tx.Outcome != 900 || tx.Income != 0 {
		t.Fatalf("updated amounts = income %v outcome %v", tx.Income, tx.Outcome)
	}

	// Cross-currency transfers refuse amount edits.
	if _, err := r.Run(context.Background(), "create_transaction", Args{
		"type": "transfer", "amount": 10000.0, "account_id": accChecking, "to_account_id": accEUR,
		"income_amount": 100.0,
	}); err != nil {
		t.Fatalf("seed transfer: %v", err)
	}
	transferID := ledger.writes[len(ledger.writes)-1].Transaction[0].ID
	if _, err := r.Run(context.Background(), "update_transaction", Args{
		"id": transferID, "amount": 5000.0,
	}); err == nil {
		t.Fatal("expected cross-currency amount update to be rejected")
	}
}

func TestDeleteTransactionSoftDeletes(t *testing.T) {
	r, ledger := newFixture(t)

	out, err := r.Run(context.Background(), "delete_transaction", Args{"id": txLunch})
	if err != nil {
		t.Fatalf("delete_transaction: %v", err)
	}
	res := out.(deletedTransaction)
	if !res.Deleted || res.Amount != 700 {
		t.Fatalf("delete result = %+v", res)
	}
	tx := ledger.writes[0].Transaction[0]
	if !tx.Deleted {
		t.Error("write-through did not carry the deleted flag")
	}
	mirrored, _ := ledger.store.Transaction(txLunch)
	if !mirrored.Deleted {
		t.Error("mirror still shows the transaction as live")
	}
}

func TestDeleteTransactionUnknownID(t *testing.T) {
	r, _ := newFixture(t)
	if _, err := r.Run(context.Background(), "delete_transaction", Args{
		"id": "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb",
	}); err == nil {
		t.Fatal("expected error for unknown transaction id")
	}
	if _, err := r.Run(context.Background(), "delete_transaction", Args{"id": "not-a-uuid"}); err == nil {
		t.Fatal("expected error for malformed id")
	}
}

func TestCreateAccountValidatesCurrency(t *testing.T) {
	r, ledger := newFixture(t)

	if _, err := r.Run(context.Background(), "create_account", Args{
		"title": "Копилка", "type": "checking", "currency_id": 99.0,
	}); err == nil {
		t.Fatal("expected unknown currency to be rejected")
	}

	out, err := r.Run(context.Background(), "create_account", Args{
		"title": "Копилка", "type": "checking", "currency_id": 2.0, "balance": 1000.0,
	})
	if err != nil {
		t.Fatalf("create_account: %v", err)
	}
	created := out.(createdAccount).Created
	if created.Balance != 1000 || created.Currency != "RUB" || !created.InBalance {
		t.Fatalf("created account = %+v", created)
	}
	acc := ledger.writes[0].Account[0]
	if acc.StartBalance != 1000 {
		t.Errorf("start balance = %v", acc.StartBalance)
	}
}

func TestBudgetLifecycle(t *testing.T) {
	r, ledger := newFixture(t)
	ctx := context.Background()

	out, err := r.Run(ctx, "create_budget", Args{
		"month": "2026-03", "category": "Продукты", "outcome": 25000.0,
	})
	if err != nil {
		t.Fatalf("create_budget: %v", err)
	}
	res := out.(budgetResult)
	if !res.Success || res.Budget.Category != "Продукты" || res.Budget.Outcome != 25000 {
		t.Fatalf("create result = %+v", res)
	}
	b := ledger.writes[0].Budget[0]
	if b.Tag == nil || *b.Tag != tagGrocery || b.Date != "2026-03-01" {
		t.Fatalf("written budget = %+v", b)
	}

	if _, err := r.Run(ctx, "update_budget", Args{
		"month": "2026-03", "category": tagGrocery, "outcome": 30000.0,
	}); err != nil {
		t.Fatalf("update_budget: %v", err)
	}
	updated, ok := ledger.store.Budget(store.BudgetKey{Tag: tagGrocery, Month: "2026-03-01"})
	if !ok || updated.Outcome != 30000 {
		t.Fatalf("mirror budget after update = %+v", updated)
	}

	if _, err := r.Run(ctx, "delete_budget", Args{
		"month": "2026-03", "category": "Продукты",
	}); err != nil {
		t.Fatalf("delete_budget: %v", err)
	}
	zeroed, _ := ledger.store.Budget(store.BudgetKey{Tag: tagGrocery, Month: "2026-03-01"})
	if zeroed.Income != 0 || zeroed.Outcome != 0 {
		t.Fatalf("budget not zeroed: %+v", zeroed)
	}
}

func TestBudgetAggregateRow(t *testing.T) {
	r, ledger := newFixture(t)

	if _, err := r.Run(context.Background(), "create_budget", Args{
		"month": "2026-04", "category": "ALL", "outcome": 90000.0,
	}); err != nil {
		t.Fatalf("create aggregate budget: %v", err)
	}
	b := ledger.writes[0].Budget[0]
	if b.Tag != nil {
		t.Fatalf("aggregate row must carry a nil tag, got %v", *b.Tag)
	}
}

func TestUpdateBudgetRequiresExistingRow(t *testing.T) {
	r, _ := newFixture(t)
	if _, err := r.Run(context.Background(), "update_budget", Args{
		"month": "2026-07", "category": "Продукты", "outcome": 1.0,
	}); err == nil {
		t.Fatal("expected update of a missing budget to fail")
	}
}

func TestDeleteReminderCascadesMarkers(t *testing.T) {
	r, ledger := newFixture(t)

	out, err := r.Run(context.Background(), "delete_reminder", Args{"id": remRent})
	if err != nil {
		t.Fatalf("delete_reminder: %v", err)
	}
	res := out.(reminderResult)
	if !res.Success {
		t.Fatalf("delete result = %+v", res)
	}

	deletions := ledger.writes[0].Deletion
	if len(deletions) != 3 {
		t.Fatalf("expected reminder plus 2 markers deleted, got %d deletions", len(deletions))
	}
	if deletions[0].Object != core.KindReminder || deletions[0].ID != remRent {
		t.Errorf("first deletion = %+v", deletions[0])
	}
	if _, ok := ledger.store.Reminder(remRent); ok {
		t.Error("reminder survived in the mirror")
	}
	if _, ok := ledger.store.ReminderMarker(mkRentApr); ok {
		t.Error("marker survived in the mirror")
	}
}

func TestCreateReminderMarkerAutoCreatesReminder(t *testing.T) {
	r, ledger := newFixture(t)

	out, err := r.Run(context.Background(), "create_reminder_marker", Args{
		"type": "expense", "amount": 5000.0, "account_id": accChecking,
		"date": "2026-03-20", "comment": "страховка",
	})
	if err != nil {
		t.Fatalf("create_reminder_marker: %v", err)
	}
	res := out.(markerResult)
	if !res.AutoCreatedReminder {
		t.Fatal("expected a one-time reminder to be auto-created")
	}

	if len(ledger.writes) != 2 {
		t.Fatalf("expected two write-throughs (reminder, then marker), got %d", len(ledger.writes))
	}
	oneTime := ledger.writes[0].Reminder[0]
	if oneTime.StartDate != "2026-03-20" || oneTime.EndDate == nil || *oneTime.EndDate != "2026-03-20" {
		t.Errorf("one-time reminder window = %s .. %v", oneTime.StartDate, oneTime.EndDate)
	}
	marker := ledger.writes[1].ReminderMarker[0]
	if marker.Reminder != oneTime.ID || marker.State != core.MarkerPlanned {
		t.Errorf("marker = %+v", marker)
	}
}

func TestCreateReminderValidatesInterval(t *testing.T) {
	r, ledger := newFixture(t)

	if _, err := r.Run(context.Background(), "create_reminder", Args{
		"type": "expense", "amount": 30000.0, "account_id": accChecking, "interval": "fortnight",
	}); err == nil {
		t.Fatal("expected unknown interval to be rejected")
	}

	if _, err := r.Run(context.Background(), "create_reminder", Args{
		"type": "expense", "amount": 30000.0, "account_id": accChecking, "interval": "month",
	}); err != nil {
		t.Fatalf("create_reminder: %v", err)
	}
	rem := ledger.writes[0].Reminder[0]
	if rem.Interval == nil || *rem.Interval != core.IntervalMonth || rem.Step == nil || *rem.Step != 1 {
		t.Fatalf("written reminder = %+v", rem)
	}
	if rem.StartDate != "2026-03-10" {
		t.Errorf("default start date = %s", rem.StartDate)
	}
}

func TestGetRemindersMarkerRange(t *testing.T) {
	r, _ := newFixture(t)

	out, err := r.Run(context.Background(), "get_reminders", Args{
		"marker_from": "2026-03-15", "marker_to": "2026-04-15",
	})
	if err != nil {
		t.Fatalf("get_reminders: %v", err)
	}
	page := out.(ReminderPage)
	if page.Mode != "marker_range" || len(page.Reminders) != 1 {
		t.Fatalf("page = %+v", page)
	}
	rem := page.Reminders[0]
	if len(rem.Markers) != 1 || rem.Markers[0].Date != "2026-04-01" {
		t.Fatalf("markers = %+v", rem.Markers)
	}
	if rem.MarkersTotalOutcome != 30000 {
		t.Errorf("marker rollup = %v", rem.MarkersTotalOutcome)
	}
}

func TestBillingPeriod(t *testing.T) {
	cases := []struct {
		name     string
		now      time.Time
		startDay int
		from, to core.Day
	}{
		{"first of month", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), 1, "2026-03-01", "2026-03-31"},
		{"mid-month boundary reached", time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), 15, "2026-03-15", "2026-04-14"},
		{"before boundary", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), 15, "2026-02-15", "2026-03-14"},
		{"across year end", time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), 10, "2025-12-10", "2026-01-09"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			from, to := billingPeriod(tc.now, tc.startDay)
			if from != tc.from || to != tc.to {
				t.Fatalf("billingPeriod(%s, %d) = %s..%s, want %s..%s",
					tc.now.Format("2006-01-02"), tc.startDay, from, to, tc.from, tc.to)
			}
		})
	}
}

func TestCheckAuthStatus(t *testing.T) {
	r, ledger := newFixture(t)

	out, err := r.Run(context.Background(), "check_auth_status", nil)
	if err != nil {
		t.Fatalf("check_auth_status: %v", err)
	}
	if status := out.(AuthStatus); status.Status != "authenticated" {
		t.Fatalf("status = %+v", status)
	}

	ledger.syncErr = errors.New("diff request failed: 401 Unauthorized")
	out, err = r.Run(context.Background(), "check_auth_status", nil)
	if err != nil {
		t.Fatalf("check_auth_status after failure: %v", err)
	}
	status := out.(AuthStatus)
	if status.Status != "error" || status.Solution == "" {
		t.Fatalf("failure status = %+v", status)
	}
}

type countingSuggester struct {
	calls int
}

func (c *countingSuggester) Suggest(context.Context, string) (*zenmoney.Suggestion, error) {
	c.calls++
	return &zenmoney.Suggestion{Payee: "Пятёрочка"}, nil
}

func TestSuggestIsCached(t *testing.T) {
	s := store.New()
	s.Apply(&zenmoney.Diff{User: []core.User{{ID: 1}}})
	suggester := &countingSuggester{}
	r := New(&fakeLedger{store: s}, WithSuggester(suggester))

	for range 3 {
		if _, err := r.Run(context.Background(), "suggest", Args{"payee": "Пятёрочка"}); err != nil {
			t.Fatalf("suggest: %v", err)
		}
	}
	if suggester.calls != 1 {
		t.Fatalf("expected one remote call, got %d", suggester.calls)
	}
}

func TestSuggestWithoutGateway(t *testing.T) {
	r, _ := newFixture(t)
	if _, err := r.Run(context.Background(), "suggest", Args{"payee": "x"}); err == nil {
		t.Fatal("expected suggest to fail without a gateway")
	}
}

func TestRunRejectsUnknownTool(t *testing.T) {
	r, _ := newFixture(t)
	_, err := r.Run(context.Background(), "transmogrify", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("err = %v", err)
	}
}

func TestCatalogCoversEveryHandler(t *testing.T) {
	r, _ := newFixture(t)
	specs := r.Catalog()
	if len(specs) != len(r.handlers) {
		t.Fatalf("catalog has %d entries, handlers %d", len(specs), len(r.handlers))
	}
	for _, s := range specs {
		if _, ok := r.handlers[s.Name]; !ok {
			t.Errorf("catalog entry %s has no handler", s.Name)
		}
	}
}
