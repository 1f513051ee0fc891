// Package classify decides whether a transfer between two accounts
// counts as real spending or income for an analysis mode, or is just
// money moving between pockets. It is the only judgement call in the
// whole reporting pipeline, so it lives alone as a pure function.
package classify

import "zenledger/internal/core"

// IncomeFlags selects which inbound transfer sources count as income.
type IncomeFlags struct {
	FromSavings         bool `json:"from_savings"`
	FromCredit          bool `json:"from_credit"`
	FromDebt            bool `json:"from_debt"`
	FromOtherOffBalance bool `json:"from_other_off_balance"`
}

// ExpenseFlags selects which outbound transfer destinations count as
// expenses.
type ExpenseFlags struct {
	ToSavings         bool `json:"to_savings"`
	ToCredit          bool `json:"to_credit"`
	ToDebt            bool `json:"to_debt"`
	ToOtherOffBalance bool `json:"to_other_off_balance"`
}

// Mode is one named analysis configuration. New modes are new preset
// instances, not new branching logic.
type Mode struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	// CountAllMovements ignores the inBalance gates entirely: every
	// flagged movement counts no matter which side of the balance
	// boundary it crosses.
	CountAllMovements bool         `json:"count_all_movements"`
	Income            IncomeFlags  `json:"income"`
	Expense           ExpenseFlags `json:"expense"`
	// RepaymentKeywords, when non-empty, gates credit/debt-bound
	// expense rules in selective mode: the transfer comment must
	// contain one of these (case-insensitive) to count. Ignored when
	// CountAllMovements is set.
	RepaymentKeywords []string `json:"repayment_keywords,omitempty"`
}

// Preset mode names.
const (
	ModeBalanceVsExpense = "balance_vs_expense"
	ModeIncomeVsExpense  = "income_vs_expense"
)

// BalanceVsExpense counts every money movement across accounts,
// including off-balance ones: the report answers "where did the balance
// go".
func BalanceVsExpense() Mode {
	return Mode{
		Name:              ModeBalanceVsExpense,
		Label:             "Баланс vs Расходы",
		Description:       "Учитываются все движения денег по счетам, включая счета вне баланса",
		CountAllMovements: true,
		Income: IncomeFlags{
			FromSavings:         true,
			FromCredit:          true,
			FromDebt:            true,
			FromOtherOffBalance: true,
		},
		Expense: ExpenseFlags{
			ToSavings:         true,
			ToCredit:          true,
			ToDebt:            true,
			ToOtherOffBalance: true,
		},
	}
}

// IncomeVsExpense excludes internal shuffling from the totals: savings
// withdrawals count as income, credit repayments count as expense only
// when the comment marks them as repayments, everything else is
// neutral.
func IncomeVsExpense() Mode {
	return Mode{
		Name:        ModeIncomeVsExpense,
		Label:       "Доходы vs Расходы",
		Description: "Исключает лишние переводы из расчётов",
		Income: IncomeFlags{
			FromSavings: true,
		},
		Expense: ExpenseFlags{
			ToCredit: true,
		},
		RepaymentKeywords: []string{
			"погашение",
			"платёж по кредиту",
			"платеж по кредиту",
			"кредит",
			"ипотека",
			"рассрочка",
			"repayment",
		},
	}
}

// Preset resolves a mode by name. Unknown names fall back to
// income_vs_expense, the conservative default.
func Preset(name string) Mode {
	switch name {
	case ModeBalanceVsExpense:
		return BalanceVsExpense()
	case ModeIncomeVsExpense:
		return IncomeVsExpense()
	}
	return IncomeVsExpense()
}

// AccountInfo is the slice of account metadata classification needs.
// Known is false when the mirror has no record for the referenced
// account; such transfers never count.
type AccountInfo struct {
	Known     bool
	Subtype   core.Subtype
	Savings   bool
	InBalance bool
}

// InfoOf extracts classification metadata from a mirrored account.
func InfoOf(a core.Account, ok bool) AccountInfo {
	if !ok {
		return AccountInfo{}
	}
	return AccountInfo{
		Known:     true,
		Subtype:   a.Subtype(),
		Savings:   a.Savings,
		InBalance: a.InBalance,
	}
}
