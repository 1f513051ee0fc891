package core

// OpKind is the classification of a ledger operation. Exactly one kind
// holds for any (outcome, income, accounts) combination; combinations
// that fit none are OpUnknown and contribute nothing anywhere.
type OpKind string

const (
	OpExpense  OpKind = "expense"
	OpIncome   OpKind = "income"
	OpTransfer OpKind = "transfer"
	OpUnknown  OpKind = "unknown"
)

// ClassifyOp applies the single shared rule: outcome only is an
// expense, income only is an income, both positive across two distinct
// accounts is a transfer. Transactions, reminders, and markers all use
// this so type filtering agrees across the three.
func ClassifyOp(outcome, income float64, outcomeAccount, incomeAccount string) OpKind {
	if outcome > 0 && income > 0 && outcomeAccount != incomeAccount {
		return OpTransfer
	}
	if outcome > 0 && income == 0 {
		return OpExpense
	}
	if income > 0 && outcome == 0 {
		return OpIncome
	}
	return OpUnknown
}

func (t Transaction) Kind() OpKind {
	return ClassifyOp(t.Outcome, t.Income, t.OutcomeAccount, t.IncomeAccount)
}

func (r Reminder) Kind() OpKind {
	return ClassifyOp(r.Outcome, r.Income, r.OutcomeAccount, r.IncomeAccount)
}

func (m ReminderMarker) Kind() OpKind {
	return ClassifyOp(m.Outcome, m.Income, m.OutcomeAccount, m.IncomeAccount)
}

// Subtype is the derived account classification the transfer rules key
// on. It is a pure function of the account record, never stored.
type Subtype string

const (
	SubtypeCredit   Subtype = "credit"
	SubtypeDebit    Subtype = "debit"
	SubtypeSavings  Subtype = "savings"
	SubtypeChecking Subtype = "checking"
	SubtypeCash     Subtype = "cash"
	SubtypeDebt     Subtype = "debt"
)

// Subtype derives the classification from the account's kind, credit
// limit, and savings flag.
func (a Account) Subtype() Subtype {
	switch a.Type {
	case "ccard":
		if a.CreditLimit > 0 {
			return SubtypeCredit
		}
		return SubtypeDebit
	case "checking":
		if a.Savings {
			return SubtypeSavings
		}
		return SubtypeChecking
	case "cash":
		return SubtypeCash
	case "debt", "loan":
		return SubtypeDebt
	}
	return Subtype(a.Type)
}
