package classify

import (
	"reflect"
	"testing"

	"zenledger/internal/core"
)

func checking(inBalance bool) AccountInfo {
	return AccountInfo{Known: true, Subtype: core.SubtypeChecking, InBalance: inBalance}
}

func credit() AccountInfo {
	return AccountInfo{Known: true, Subtype: core.SubtypeCredit}
}

func savings() AccountInfo {
	return AccountInfo{Known: true, Subtype: core.SubtypeSavings}
}

func TestCreditTransferCountsInBalanceMode(t *testing.T) {
	tr := Transfer{Amount: 5000, Comment: "перевод себе", From: checking(true), To: credit()}
	res, counted := Classify(tr, BalanceVsExpense())
	if !counted || res.Direction != DirExpense || res.Amount != 5000 {
		t.Fatalf("got %+v counted=%v", res, counted)
	}
}

func TestCreditTransferNeedsKeywordInSelectiveMode(t *testing.T) {
	mode := IncomeVsExpense()

	tr := Transfer{Amount: 5000, Comment: "перевод себе", From: checking(true), To: credit()}
	if _, counted := Classify(tr, mode); counted {
		t.Fatal("no repayment keyword: must not count")
	}

	tr.Comment = "Погашение кредита за февраль"
	res, counted := Classify(tr, mode)
	if !counted || res.Direction != DirExpense || res.Amount != 5000 {
		t.Fatalf("repayment comment: got %+v counted=%v", res, counted)
	}
}

func TestSavingsWithdrawalIsIncome(t *testing.T) {
	tr := Transfer{Amount: 2000, From: savings(), To: checking(true)}
	res, counted := Classify(tr, IncomeVsExpense())
	if !counted || res.Direction != DirIncome || res.Amount != 2000 {
		t.Fatalf("got %+v counted=%v", res, counted)
	}
}

func TestOffBalanceTransitExcludedInSelectiveMode(t *testing.T) {
	// Transit account: plain checking with inBalance=false.
	tr := Transfer{Amount: 700, Comment: "кредит", From: checking(true), To: checking(false)}
	if _, counted := Classify(tr, IncomeVsExpense()); counted {
		t.Fatal("transit destination must not count in selective mode")
	}
	// The same crossing counts in the count-everything mode.
	if _, counted := Classify(tr, BalanceVsExpense()); !counted {
		t.Fatal("balance mode counts the off-balance crossing")
	}
}

func TestInternalMovementNotCounted(t *testing.T) {
	tr := Transfer{Amount: 300, From: checking(true), To: checking(true)}
	if _, counted := Classify(tr, IncomeVsExpense()); counted {
		t.Fatal("in-balance to in-balance checking transfer is internal")
	}
}

func TestUnknownAccountMetadataNotCounted(t *testing.T) {
	tr := Transfer{Amount: 100, From: checking(true), To: AccountInfo{}}
	for _, mode := range []Mode{BalanceVsExpense(), IncomeVsExpense()} {
		if _, counted := Classify(tr, mode); counted {
			t.Fatalf("mode %s: missing metadata must classify as not counted", mode.Name)
		}
	}
}

func TestClassifyIsPure(t *testing.T) {
	tr := Transfer{Amount: 5000, Comment: "погашение", From: checking(true), To: credit()}
	mode := IncomeVsExpense()
	r1, c1 := Classify(tr, mode)
	r2, c2 := Classify(tr, mode)
	if c1 != c2 || !reflect.DeepEqual(r1, r2) {
		t.Fatal("identical inputs must yield identical output")
	}
}

func TestSavingsFlagWithoutSubtype(t *testing.T) {
	// A ccard flagged savings still matches the savings rules.
	to := AccountInfo{Known: true, Subtype: core.SubtypeDebit, Savings: true}
	tr := Transfer{Amount: 1000, From: checking(true), To: to}
	res, counted := Classify(tr, BalanceVsExpense())
	if !counted || res.Direction != DirExpense {
		t.Fatalf("got %+v counted=%v", res, counted)
	}
}

func TestPresetFallback(t *testing.T) {
	if Preset("nope").Name != ModeIncomeVsExpense {
		t.Fatal("unknown preset must fall back to income_vs_expense")
	}
	if Preset(ModeBalanceVsExpense).Name != ModeBalanceVsExpense {
		t.Fatal("known preset must resolve")
	}
}
