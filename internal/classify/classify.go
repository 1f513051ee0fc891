package classify

import (
	"strings"

	"zenledger/internal/core"
)

// Direction of a counted transfer's contribution.
type Direction string

const (
	DirExpense Direction = "expense"
	DirIncome  Direction = "income"
)

// Transfer is the classifier's whole input besides the mode: the moved
// amount, the comment, and the two accounts' metadata.
type Transfer struct {
	Amount  float64
	Comment string
	From    AccountInfo
	To      AccountInfo
}

// Result is a counted contribution. A transfer is counted whole or not
// at all, never partially.
type Result struct {
	Direction Direction
	Amount    float64
}

// Classify is pure and total: identical inputs always produce identical
// output, and malformed input (unknown accounts) degrades to "not
// counted" instead of failing. The rules run in fixed order; the first
// match wins.
func Classify(t Transfer, mode Mode) (Result, bool) {
	if !t.From.Known || !t.To.Known {
		return Result{}, false
	}

	countAll := mode.CountAllMovements

	// Outflows.
	if t.To.Subtype == core.SubtypeCredit && mode.Expense.ToCredit {
		if (countAll || t.From.InBalance) && repaymentAllowed(t.Comment, mode) {
			return Result{DirExpense, t.Amount}, true
		}
	}
	if t.To.Subtype == core.SubtypeDebt && mode.Expense.ToDebt {
		if (countAll || t.From.InBalance) && repaymentAllowed(t.Comment, mode) {
			return Result{DirExpense, t.Amount}, true
		}
	}
	if (t.To.Subtype == core.SubtypeSavings || t.To.Savings) && mode.Expense.ToSavings {
		if countAll || t.From.InBalance {
			return Result{DirExpense, t.Amount}, true
		}
	}

	// Inflows.
	if (t.From.Subtype == core.SubtypeSavings || t.From.Savings) && mode.Income.FromSavings {
		if countAll || t.To.InBalance {
			return Result{DirIncome, t.Amount}, true
		}
	}
	if t.From.Subtype == core.SubtypeCredit && mode.Income.FromCredit {
		if countAll || t.To.InBalance {
			return Result{DirIncome, t.Amount}, true
		}
	}
	if t.From.Subtype == core.SubtypeDebt && mode.Income.FromDebt {
		if countAll || t.To.InBalance {
			return Result{DirIncome, t.Amount}, true
		}
	}

	// Generic off-balance boundary crossings.
	if mode.Expense.ToOtherOffBalance {
		if countAll || (t.From.InBalance && !t.To.InBalance) {
			return Result{DirExpense, t.Amount}, true
		}
	}
	if mode.Income.FromOtherOffBalance {
		if countAll || (!t.From.InBalance && t.To.InBalance) {
			return Result{DirIncome, t.Amount}, true
		}
	}

	// Internal movement, no balance impact.
	return Result{}, false
}

// repaymentAllowed applies the keyword gate for credit/debt
// destinations. It only bites in selective mode with a configured list.
func repaymentAllowed(comment string, mode Mode) bool {
	if mode.CountAllMovements || len(mode.RepaymentKeywords) == 0 {
		return true
	}
	c := strings.ToLower(comment)
	for _, kw := range mode.RepaymentKeywords {
		if kw != "" && strings.Contains(c, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
