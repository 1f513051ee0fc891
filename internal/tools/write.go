package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"zenledger/internal/core"
	"zenledger/internal/store"
	"zenledger/internal/zenmoney"
)

// aggregateCategoryID is the tag id the service uses for the
// cross-category budget row.
const aggregateCategoryID = "00000000-0000-0000-0000-000000000000"

// opSpec is the four-field money shape of an operation: which account
// pays, which receives, and how much on each side. Expenses and incomes
// keep both accounts equal with one amount zeroed; that is how the
// service distinguishes them from transfers.
type opSpec struct {
	Income            float64
	IncomeAccount     string
	IncomeInstrument  int
	Outcome           float64
	OutcomeAccount    string
	OutcomeInstrument int
}

func buildOpSpec(s *store.Store, opType string, amount float64, accountID, toAccountID string, currencyID *int, incomeAmount *float64) (opSpec, error) {
	account, ok := s.Account(accountID)
	if !ok {
		return opSpec{}, fmt.Errorf("account not found: %s", accountID)
	}
	instrument := account.Instrument
	if currencyID != nil {
		instrument = *currencyID
	}

	spec := opSpec{
		IncomeAccount: accountID, IncomeInstrument: instrument,
		OutcomeAccount: accountID, OutcomeInstrument: instrument,
	}
	switch opType {
	case string(core.OpExpense):
		spec.Outcome = amount
	case string(core.OpIncome):
		spec.Income = amount
	case string(core.OpTransfer):
		if toAccountID == "" {
			return opSpec{}, errors.New("to_account_id is required for transfer type")
		}
		dest, ok := s.Account(toAccountID)
		if !ok {
			return opSpec{}, fmt.Errorf("destination account not found: %s", toAccountID)
		}
		spec.Outcome = amount
		spec.OutcomeInstrument = account.Instrument
		spec.IncomeAccount = toAccountID
		spec.IncomeInstrument = dest.Instrument
		if account.Instrument != dest.Instrument {
			if incomeAmount == nil || *incomeAmount == 0 {
				return opSpec{}, errors.New("income_amount is required for cross-currency transfers")
			}
			spec.Income = *incomeAmount
		} else {
			spec.Income = amount
		}
	default:
		return opSpec{}, fmt.Errorf("unknown operation type: %s", opType)
	}
	return spec, nil
}

type createdTransaction struct {
	Created TransactionView `json:"created"`
}

type updatedTransaction struct {
	Updated TransactionView `json:"updated"`
}

type deletedTransaction struct {
	Deleted bool     `json:"deleted"`
	ID      string   `json:"id"`
	Date    core.Day `json:"date"`
	Amount  float64  `json:"amount"`
}

func (r *Runner) createTransaction(ctx context.Context, args Args) (any, error) {
	opType, ok := args.str("type")
	if !ok {
		return nil, errors.New("type is required")
	}
	amount, ok := args.num("amount")
	if !ok {
		return nil, errors.New("amount is required")
	}
	accountID, ok := args.str("account_id")
	if !ok {
		return nil, errors.New("account_id is required")
	}
	toAccountID, _ := args.str("to_account_id")
	categoryIDs := args.strings("category_ids")
	date := args.strOr("date", string(r.today()))
	payee, _ := args.str("payee")
	comment, _ := args.str("comment")

	if err := validateUUID(accountID, "account_id"); err != nil {
		return nil, err
	}
	if toAccountID != "" {
		if err := validateUUID(toAccountID, "to_account_id"); err != nil {
			return nil, err
		}
	}
	for i, cid := range categoryIDs {
		if err := validateUUID(cid, fmt.Sprintf("category_ids[%d]", i)); err != nil {
			return nil, err
		}
	}
	if err := validateDate(date, "date"); err != nil {
		return nil, err
	}
	var currencyID *int
	if v, ok := args.num("currency_id"); ok {
		id := int(v)
		currencyID = &id
	}
	var incomeAmount *float64
	if v, ok := args.num("income_amount"); ok {
		incomeAmount = &v
	}

	s := r.ledger.Store()
	spec, err := buildOpSpec(s, opType, amount, accountID, toAccountID, currencyID, incomeAmount)
	if err != nil {
		return nil, err
	}
	user, ok := s.FirstUser()
	if !ok {
		return nil, errors.New("no user found in mirror")
	}

	now := r.now().Unix()
	tx := core.Transaction{
		ID:                uuid.NewString(),
		User:              user.ID,
		Date:              core.Day(date),
		Income:            spec.Income,
		IncomeAccount:     spec.IncomeAccount,
		IncomeInstrument:  spec.IncomeInstrument,
		Outcome:           spec.Outcome,
		OutcomeAccount:    spec.OutcomeAccount,
		OutcomeInstrument: spec.OutcomeInstrument,
		Tag:               categoryIDs,
		Payee:             payee,
		Comment:           comment,
		Created:           now,
		Changed:           now,
	}
	if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{Transaction: []core.Transaction{tx}}); err != nil {
		return nil, err
	}
	if committed, ok := s.Transaction(tx.ID); ok {
		tx = committed
	}
	return createdTransaction{Created: transactionView(s, tx)}, nil
}

func (r *Runner) updateTransaction(ctx context.Context, args Args) (any, error) {
	id, ok := args.str("id")
	if !ok {
		return nil, errors.New("id is required")
	}
	if err := validateUUID(id, "id"); err != nil {
		return nil, err
	}
	if date, ok := args.str("date"); ok {
		if err := validateDate(date, "date"); err != nil {
			return nil, err
		}
	}
	categoryIDs := args.strings("category_ids")
	for i, cid := range categoryIDs {
		if err := validateUUID(cid, fmt.Sprintf("category_ids[%d]", i)); err != nil {
			return nil, err
		}
	}

	s := r.ledger.Store()
	tx, ok := s.Transaction(id)
	if !ok {
		return nil, fmt.Errorf("transaction not found: %s", id)
	}

	if amount, ok := args.num("amount"); ok {
		switch tx.Kind() {
		case core.OpTransfer:
			if tx.OutcomeInstrument != tx.IncomeInstrument {
				return nil, errors.New("cannot update amount on cross-currency transfers, delete and recreate")
			}
			tx.Outcome = amount
			tx.Income = amount
		case core.OpExpense:
			tx.Outcome = amount
		default:
			tx.Income = amount
		}
	}
	if args.has("category_ids") {
		tx.Tag = categoryIDs
	}
	if date, ok := args.str("date"); ok {
		tx.Date = core.Day(date)
	}
	if args.has("payee") {
		tx.Payee, _ = args.str("payee")
	}
	if args.has("comment") {
		tx.Comment, _ = args.str("comment")
	}
	tx.Changed = r.now().Unix()

	if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{Transaction: []core.Transaction{tx}}); err != nil {
		return nil, err
	}
	if committed, ok := s.Transaction(id); ok {
		tx = committed
	}
	return updatedTransaction{Updated: transactionView(s, tx)}, nil
}

func (r *Runner) deleteTransaction(ctx context.Context, args Args) (any, error) {
	id, ok := args.str("id")
	if !ok {
		return nil, errors.New("id is required")
	}
	if err := validateUUID(id, "id"); err != nil {
		return nil, err
	}

	s := r.ledger.Store()
	tx, ok := s.Transaction(id)
	if !ok {
		return nil, fmt.Errorf("transaction not found: %s", id)
	}
	amount := tx.Outcome
	if amount == 0 {
		amount = tx.Income
	}

	tx.Deleted = true
	tx.Changed = r.now().Unix()
	if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{Transaction: []core.Transaction{tx}}); err != nil {
		return nil, err
	}
	return deletedTransaction{Deleted: true, ID: id, Date: tx.Date, Amount: amount}, nil
}

type createdAccount struct {
	Created AccountView `json:"created"`
}

func (r *Runner) createAccount(ctx context.Context, args Args) (any, error) {
	title, ok := args.str("title")
	if !ok {
		return nil, errors.New("title is required")
	}
	acctType, ok := args.str("type")
	if !ok {
		return nil, errors.New("type is required")
	}
	currencyID, ok := args.num("currency_id")
	if !ok {
		return nil, errors.New("currency_id is required")
	}
	balance, _ := args.num("balance")
	creditLimit, _ := args.num("credit_limit")

	s := r.ledger.Store()
	if _, ok := s.Instrument(int(currencyID)); !ok {
		return nil, fmt.Errorf("unknown currency_id: %d, use get_instruments to see available currencies", int(currencyID))
	}
	user, ok := s.FirstUser()
	if !ok {
		return nil, errors.New("no user found in mirror")
	}

	account := core.Account{
		ID:           uuid.NewString(),
		User:         user.ID,
		Instrument:   int(currencyID),
		Type:         acctType,
		Title:        title,
		Balance:      balance,
		StartBalance: balance,
		CreditLimit:  creditLimit,
		InBalance:    true,
		Changed:      r.now().Unix(),
	}
	if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{Account: []core.Account{account}}); err != nil {
		return nil, err
	}
	if committed, ok := s.Account(account.ID); ok {
		account = committed
	}
	return createdAccount{Created: accountView(s, account)}, nil
}

// findCategoryID resolves a budget category argument: the literal ALL
// maps to the aggregate row, everything else must be a known tag id or
// exact title.
func findCategoryID(s *store.Store, name string) (string, error) {
	if strings.EqualFold(name, "ALL") {
		return aggregateCategoryID, nil
	}
	if tag, ok := s.TagByTitle(name); ok {
		return tag.ID, nil
	}
	return "", fmt.Errorf("category not found: %s", name)
}

func categoryName(s *store.Store, categoryID string) string {
	if categoryID == aggregateCategoryID {
		return "ALL (aggregate)"
	}
	if tag, ok := s.Tag(categoryID); ok {
		return tag.Title
	}
	return categoryID
}

type budgetResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Budget  BudgetView `json:"budget"`
}

func (r *Runner) createBudget(ctx context.Context, args Args) (any, error) {
	month, ok := args.str("month")
	if !ok {
		return nil, errors.New("month is required")
	}
	if err := validateMonth(month, "month"); err != nil {
		return nil, err
	}
	category, ok := args.str("category")
	if !ok {
		return nil, errors.New("category is required")
	}
	income, _ := args.num("income")
	outcome, _ := args.num("outcome")
	if err := validatePositive(income, "income"); err != nil {
		return nil, err
	}
	if err := validatePositive(outcome, "outcome"); err != nil {
		return nil, err
	}

	s := r.ledger.Store()
	categoryID, err := findCategoryID(s, category)
	if err != nil {
		return nil, err
	}
	user, ok := s.FirstUser()
	if !ok {
		return nil, errors.New("no user found in mirror")
	}

	budget := core.Budget{
		User:        user.ID,
		Date:        core.Day(month + "-01"),
		Income:      income,
		IncomeLock:  args.boolOr("income_lock", false),
		Outcome:     outcome,
		OutcomeLock: args.boolOr("outcome_lock", false),
		Changed:     r.now().Unix(),
	}
	if categoryID != aggregateCategoryID {
		budget.Tag = &categoryID
	}
	if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{Budget: []core.Budget{budget}}); err != nil {
		return nil, err
	}
	view := budgetView(s, budget)
	view.Category = categoryName(s, categoryID)
	return budgetResult{Success: true, Budget: view}, nil
}

func (r *Runner) updateBudget(ctx context.Context, args Args) (any, error) {
	budget, categoryID, err := r.lookupBudget(args)
	if err != nil {
		return nil, err
	}
	if v, ok := args.num("income"); ok {
		if err := validatePositive(v, "income"); err != nil {
			return nil, err
		}
		budget.Income = v
	}
	if v, ok := args.num("outcome"); ok {
		if err := validatePositive(v, "outcome"); err != nil {
			return nil, err
		}
		budget.Outcome = v
	}
	if args.has("income_lock") {
		budget.IncomeLock = args.boolOr("income_lock", false)
	}
	if args.has("outcome_lock") {
		budget.OutcomeLock = args.boolOr("outcome_lock", false)
	}
	budget.Changed = r.now().Unix()

	if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{Budget: []core.Budget{budget}}); err != nil {
		return nil, err
	}
	s := r.ledger.Store()
	view := budgetView(s, budget)
	view.Category = categoryName(s, categoryID)
	return budgetResult{Success: true, Message: "budget updated", Budget: view}, nil
}

// deleteBudget zeroes both limits; the service has no structural delete
// for budget rows.
func (r *Runner) deleteBudget(ctx context.Context, args Args) (any, error) {
	budget, categoryID, err := r.lookupBudget(args)
	if err != nil {
		return nil, err
	}
	budget.Income = 0
	budget.Outcome = 0
	budget.Changed = r.now().Unix()

	if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{Budget: []core.Budget{budget}}); err != nil {
		return nil, err
	}
	s := r.ledger.Store()
	view := budgetView(s, budget)
	view.Category = categoryName(s, categoryID)
	return budgetResult{Success: true, Message: "budget deleted", Budget: view}, nil
}

func (r *Runner) lookupBudget(args Args) (core.Budget, string, error) {
	month, ok := args.str("month")
	if !ok {
		return core.Budget{}, "", errors.New("month is required")
	}
	if err := validateMonth(month, "month"); err != nil {
		return core.Budget{}, "", err
	}
	category, ok := args.str("category")
	if !ok {
		return core.Budget{}, "", errors.New("category is required")
	}

	s := r.ledger.Store()
	categoryID, err := findCategoryID(s, category)
	if err != nil {
		return core.Budget{}, "", err
	}
	key := store.BudgetKey{Month: core.Day(month + "-01")}
	if categoryID != aggregateCategoryID {
		key.Tag = categoryID
	}
	budget, ok := s.Budget(key)
	if !ok {
		return core.Budget{}, "", fmt.Errorf("budget not found for category %q in %s", category, month)
	}
	return budget, categoryID, nil
}

type reminderResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id"`
}

func (r *Runner) createReminder(ctx context.Context, args Args) (any, error) {
	opType, ok := args.str("type")
	if !ok {
		return nil, errors.New("type is required")
	}
	amount, ok := args.num("amount")
	if !ok {
		return nil, errors.New("amount is required")
	}
	accountID, ok := args.str("account_id")
	if !ok {
		return nil, errors.New("account_id is required")
	}
	interval, ok := args.str("interval")
	if !ok {
		return nil, errors.New("interval is required")
	}
	if !core.ValidInterval(interval) {
		return nil, fmt.Errorf("unknown interval: %s", interval)
	}
	toAccountID, _ := args.str("to_account_id")
	categoryIDs := args.strings("category_ids")
	payee, _ := args.str("payee")
	comment, _ := args.str("comment")
	step := args.intOr("step", 1)
	points := args.ints("points")
	startDate := args.strOr("start_date", string(r.today()))
	endDate, hasEnd := args.str("end_date")
	notify := args.boolOr("notify", true)

	if err := validatePositive(amount, "amount"); err != nil {
		return nil, err
	}
	if err := validateDate(startDate, "start_date"); err != nil {
		return nil, err
	}
	if hasEnd {
		if err := validateDate(endDate, "end_date"); err != nil {
			return nil, err
		}
	}

	s := r.ledger.Store()
	spec, err := r.plannedOpSpec(s, opType, amount, accountID, toAccountID, categoryIDs)
	if err != nil {
		return nil, err
	}
	account, _ := s.Account(accountID)

	reminder := core.Reminder{
		ID:                uuid.NewString(),
		User:              account.User,
		Income:            spec.Income,
		IncomeAccount:     spec.IncomeAccount,
		IncomeInstrument:  spec.IncomeInstrument,
		Outcome:           spec.Outcome,
		OutcomeAccount:    spec.OutcomeAccount,
		OutcomeInstrument: spec.OutcomeInstrument,
		Tag:               categoryIDs,
		Payee:             payee,
		Comment:           comment,
		Interval:          &interval,
		Step:              &step,
		Points:            points,
		StartDate:         core.Day(startDate),
		Notify:            notify,
		Changed:           r.now().Unix(),
	}
	if hasEnd {
		d := core.Day(endDate)
		reminder.EndDate = &d
	}
	if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{Reminder: []core.Reminder{reminder}}); err != nil {
		return nil, err
	}
	return reminderResult{Success: true, ID: reminder.ID}, nil
}

func (r *Runner) updateReminder(ctx context.Context, args Args) (any, error) {
	id, ok := args.str("id")
	if !ok {
		return nil, errors.New("id is required")
	}
	if err := validateUUID(id, "id"); err != nil {
		return nil, err
	}

	s := r.ledger.Store()
	reminder, ok := s.Reminder(id)
	if !ok {
		return nil, fmt.Errorf("reminder not found: %s", id)
	}

	if amount, ok := args.num("amount"); ok {
		if err := validatePositive(amount, "amount"); err != nil {
			return nil, err
		}
		switch reminder.Kind() {
		case core.OpIncome:
			reminder.Income = amount
		case core.OpExpense:
			reminder.Outcome = amount
		default:
			reminder.Income = amount
			reminder.Outcome = amount
		}
	}
	if args.has("category_ids") {
		categoryIDs := args.strings("category_ids")
		for _, cid := range categoryIDs {
			if err := validateUUID(cid, "category_id"); err != nil {
				return nil, err
			}
			if _, ok := s.Tag(cid); !ok {
				return nil, fmt.Errorf("category not found: %s", cid)
			}
		}
		reminder.Tag = categoryIDs
	}
	if args.has("payee") {
		reminder.Payee, _ = args.str("payee")
	}
	if args.has("comment") {
		reminder.Comment, _ = args.str("comment")
	}
	if interval, ok := args.str("interval"); ok {
		if !core.ValidInterval(interval) {
			return nil, fmt.Errorf("unknown interval: %s", interval)
		}
		reminder.Interval = &interval
	}
	if v, ok := args.num("step"); ok {
		step := int(v)
		reminder.Step = &step
	}
	if args.has("points") {
		reminder.Points = args.ints("points")
	}
	if endDate, ok := args.str("end_date"); ok {
		if err := validateDate(endDate, "end_date"); err != nil {
			return nil, err
		}
		d := core.Day(endDate)
		reminder.EndDate = &d
	}
	if args.has("notify") {
		reminder.Notify = args.boolOr("notify", true)
	}
	reminder.Changed = r.now().Unix()

	if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{Reminder: []core.Reminder{reminder}}); err != nil {
		return nil, err
	}
	return reminderResult{Success: true, Message: "reminder updated", ID: id}, nil
}

// deleteReminder issues structural deletions for the reminder and every
// marker it spawned, in one write-through.
func (r *Runner) deleteReminder(ctx context.Context, args Args) (any, error) {
	id, ok := args.str("id")
	if !ok {
		return nil, errors.New("id is required")
	}
	if err := validateUUID(id, "id"); err != nil {
		return nil, err
	}

	s := r.ledger.Store()
	reminder, ok := s.Reminder(id)
	if !ok {
		return nil, fmt.Errorf("reminder not found: %s", id)
	}

	stamp := r.now().Unix()
	deletions := []core.Deletion{{ID: id, Object: core.KindReminder, Stamp: stamp, User: reminder.User}}
	for _, m := range s.MarkersOf(id) {
		deletions = append(deletions, core.Deletion{ID: m.ID, Object: core.KindReminderMarker, Stamp: stamp, User: m.User})
	}
	if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{Deletion: deletions}); err != nil {
		return nil, err
	}
	return reminderResult{
		Success: true,
		Message: fmt.Sprintf("reminder deleted with %d associated markers", len(deletions)-1),
		ID:      id,
	}, nil
}

type markerResult struct {
	Success             bool     `json:"success"`
	Message             string   `json:"message,omitempty"`
	ID                  string   `json:"id"`
	Date                core.Day `json:"date,omitempty"`
	ReminderID          string   `json:"reminderId,omitempty"`
	AutoCreatedReminder bool     `json:"autoCreatedReminder,omitempty"`
}

func (r *Runner) createReminderMarker(ctx context.Context, args Args) (any, error) {
	opType, ok := args.str("type")
	if !ok {
		return nil, errors.New("type is required")
	}
	amount, ok := args.num("amount")
	if !ok {
		return nil, errors.New("amount is required")
	}
	accountID, ok := args.str("account_id")
	if !ok {
		return nil, errors.New("account_id is required")
	}
	date, ok := args.str("date")
	if !ok {
		return nil, errors.New("date is required")
	}
	toAccountID, _ := args.str("to_account_id")
	categoryIDs := args.strings("category_ids")
	payee, _ := args.str("payee")
	comment, _ := args.str("comment")
	reminderID, _ := args.str("reminder_id")
	notify := args.boolOr("notify", true)

	if err := validateDate(date, "date"); err != nil {
		return nil, err
	}
	if err := validatePositive(amount, "amount"); err != nil {
		return nil, err
	}
	if reminderID != "" {
		if err := validateUUID(reminderID, "reminder_id"); err != nil {
			return nil, err
		}
	}

	s := r.ledger.Store()
	spec, err := r.plannedOpSpec(s, opType, amount, accountID, toAccountID, categoryIDs)
	if err != nil {
		return nil, err
	}
	account, _ := s.Account(accountID)
	now := r.now().Unix()
	day := core.Day(date)

	autoCreated := false
	if reminderID == "" {
		// A marker cannot exist without a parent; materialize a
		// one-time reminder spanning just this date.
		oneTime := core.Reminder{
			ID:                uuid.NewString(),
			User:              account.User,
			Income:            spec.Income,
			IncomeAccount:     spec.IncomeAccount,
			IncomeInstrument:  spec.IncomeInstrument,
			Outcome:           spec.Outcome,
			OutcomeAccount:    spec.OutcomeAccount,
			OutcomeInstrument: spec.OutcomeInstrument,
			Tag:               categoryIDs,
			Payee:             payee,
			Comment:           comment,
			StartDate:         day,
			EndDate:           &day,
			Notify:            notify,
			Changed:           now,
		}
		if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{Reminder: []core.Reminder{oneTime}}); err != nil {
			return nil, err
		}
		reminderID = oneTime.ID
		autoCreated = true
	} else if _, ok := s.Reminder(reminderID); !ok {
		return nil, fmt.Errorf("reminder not found: %s", reminderID)
	}

	marker := core.ReminderMarker{
		ID:                uuid.NewString(),
		User:              account.User,
		Date:              day,
		Income:            spec.Income,
		IncomeAccount:     spec.IncomeAccount,
		IncomeInstrument:  spec.IncomeInstrument,
		Outcome:           spec.Outcome,
		OutcomeAccount:    spec.OutcomeAccount,
		OutcomeInstrument: spec.OutcomeInstrument,
		Reminder:          reminderID,
		State:             core.MarkerPlanned,
		Tag:               categoryIDs,
		Payee:             payee,
		Comment:           comment,
		Notify:            notify,
		Changed:           now,
	}
	if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{ReminderMarker: []core.ReminderMarker{marker}}); err != nil {
		return nil, err
	}
	return markerResult{
		Success:             true,
		ID:                  marker.ID,
		Date:                day,
		ReminderID:          reminderID,
		AutoCreatedReminder: autoCreated,
	}, nil
}

func (r *Runner) deleteReminderMarker(ctx context.Context, args Args) (any, error) {
	id, ok := args.str("id")
	if !ok {
		return nil, errors.New("id is required")
	}
	if err := validateUUID(id, "id"); err != nil {
		return nil, err
	}

	s := r.ledger.Store()
	marker, ok := s.ReminderMarker(id)
	if !ok {
		return nil, fmt.Errorf("reminder marker not found: %s", id)
	}

	deletion := core.Deletion{ID: id, Object: core.KindReminderMarker, Stamp: r.now().Unix(), User: marker.User}
	if err := r.ledger.WriteThrough(ctx, &zenmoney.Changes{Deletion: []core.Deletion{deletion}}); err != nil {
		return nil, err
	}
	return markerResult{Success: true, Message: "reminder marker deleted", ID: id}, nil
}

// plannedOpSpec validates the shared inputs of reminder and marker
// creation and builds the money shape.
func (r *Runner) plannedOpSpec(s *store.Store, opType string, amount float64, accountID, toAccountID string, categoryIDs []string) (opSpec, error) {
	if err := validateUUID(accountID, "account_id"); err != nil {
		return opSpec{}, err
	}
	if toAccountID != "" {
		if err := validateUUID(toAccountID, "to_account_id"); err != nil {
			return opSpec{}, err
		}
	}
	for _, cid := range categoryIDs {
		if err := validateUUID(cid, "category_id"); err != nil {
			return opSpec{}, err
		}
		if _, ok := s.Tag(cid); !ok {
			return opSpec{}, fmt.Errorf("category not found: %s", cid)
		}
	}
	// Planned operations carry one nominal amount on both sides even
	// across currencies; the realized transaction fixes the rate later.
	return buildOpSpec(s, opType, amount, accountID, toAccountID, nil, &amount)
}
